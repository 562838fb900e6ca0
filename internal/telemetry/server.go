// SPDX-License-Identifier: MPL-2.0

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// MetricsPath is the route the registry is served on.
const MetricsPath = "/metrics"

const shutdownTimeout = 5 * time.Second

// Server exposes a registry over HTTP.
type Server struct {
	srv    *http.Server
	ln     net.Listener
	logger *slog.Logger
}

// Listen binds addr and prepares a server for the registry. Nothing is served
// until Serve is called.
func (m *Metrics) Listen(addr string, logger *slog.Logger) (*Server, error) {
	if m == nil {
		return nil, errors.New("metrics are disabled")
	}
	if logger == nil {
		logger = slog.Default()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(MetricsPath, m.Handler())

	return &Server{
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ln:     ln,
		logger: logger,
	}, nil
}

// URL returns the address metrics are scraped from.
func (s *Server) URL() string {
	return "http://" + s.ln.Addr().String() + MetricsPath
}

// Serve blocks until ctx is canceled, then shuts the server down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		s.srv.SetKeepAlivesEnabled(false)
		done <- s.srv.Shutdown(shutdownCtx)
	}()

	s.logger.Debug("serving metrics", "url", s.URL())
	if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}
	if err := <-done; err != nil {
		return fmt.Errorf("shut down metrics server: %w", err)
	}
	return nil
}
