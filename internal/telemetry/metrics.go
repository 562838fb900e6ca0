// SPDX-License-Identifier: MPL-2.0

// Package telemetry records build metrics on a private Prometheus registry.
//
// A nil *Metrics is valid and records nothing, so callers that do not ask for
// metrics need no special casing.
package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "handlerpack"

const (
	// ResultSuccess labels a build that reached DONE.
	ResultSuccess = "success"
	// ResultFailure labels a build that ended in FAILED.
	ResultFailure = "failure"
)

// Metrics holds the build collectors.
type Metrics struct {
	registry      *prometheus.Registry
	builds        *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	modules       prometheus.Gauge
	lastBuild     prometheus.Gauge
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Builds run, by result.",
		}, []string{"result"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_stage_duration_seconds",
			Help:      "Time spent reaching each build stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"stage"}),
		modules: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "handle_modules",
			Help:      "Handle modules in the most recent manifest.",
		}),
		lastBuild: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_build_timestamp_seconds",
			Help:      "Unix time the most recent build finished.",
		}),
	}
	m.registry.MustRegister(m.builds, m.stageDuration, m.modules, m.lastBuild)
	return m
}

// ObserveStage records how long it took to reach stage.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// SetModules records the module count of the latest manifest.
func (m *Metrics) SetModules(n int) {
	if m == nil {
		return
	}
	m.modules.Set(float64(n))
}

// BuildFinished counts a finished build under result.
func (m *Metrics) BuildFinished(result string, at time.Time) {
	if m == nil {
		return
	}
	m.builds.WithLabelValues(result).Inc()
	m.lastBuild.Set(float64(at.Unix()))
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile atomically writes the registry to path in the node exporter
// textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
