// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/handlerpack/handlerpack/internal/builder"
	"github.com/handlerpack/handlerpack/internal/config"
	"github.com/handlerpack/handlerpack/internal/logging"
	"github.com/handlerpack/handlerpack/internal/telemetry"
	"github.com/handlerpack/handlerpack/internal/transpile"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every Cobra handler receives an App and reaches
	// settings, builders and output streams through it.
	App struct {
		Config      ConfigProvider
		Transformer transpile.Transformer
		stdout      io.Writer
		stderr      io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		// Transformer replaces the esbuild transformer of every build.
		Transformer transpile.Transformer
		Stdout      io.Writer
		Stderr      io.Writer
	}

	// ConfigProvider loads settings using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// session is the per-invocation state shared by the handler commands.
	session struct {
		cfg    *config.Config
		logger *slog.Logger
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}

	return &App{
		Config:      deps.Config,
		Transformer: deps.Transformer,
		stdout:      deps.Stdout,
		stderr:      deps.Stderr,
	}, nil
}

// newSession loads settings and builds the logger. debug forces the debug
// level regardless of the configured one.
func (a *App) newSession(ctx context.Context, rootFlags *rootFlagValues, debug bool) (*session, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: rootFlags.configPath})
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	logger, err := logging.New(a.stderr, logging.Options{Level: level, Format: cfg.Log.Format})
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, logger: logger}, nil
}

// newBuilder creates a builder from the loaded settings. metrics may be nil.
func (a *App) newBuilder(s *session, metrics *telemetry.Metrics) (*builder.Builder, error) {
	opts := []builder.Option{
		builder.WithLogger(s.logger),
		builder.WithMetrics(metrics),
	}
	if a.Transformer != nil {
		opts = append(opts, builder.WithTransformer(a.Transformer))
	}
	return builder.New(builder.Settings{
		Layout:    s.cfg.Layout,
		Output:    s.cfg.Output,
		Transform: s.cfg.Transform,
	}, opts...)
}
