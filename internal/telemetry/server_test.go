// SPDX-License-Identifier: MPL-2.0

package telemetry

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/handlerpack/handlerpack/internal/logging"
)

func TestServer(t *testing.T) {
	m := New()
	m.BuildFinished(ResultSuccess, time.Unix(5, 0))

	srv, err := m.Listen("127.0.0.1:0", logging.Discard())
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	if !strings.HasSuffix(srv.URL(), MetricsPath) {
		t.Errorf("URL() = %q, want suffix %s", srv.URL(), MetricsPath)
	}

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx) }()

	resp, err := http.Get(srv.URL())
	if err != nil {
		cancel()
		t.Fatalf("GET %s: %v", srv.URL(), err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `handlerpack_builds_total{result="success"} 1`) {
		t.Errorf("body = %s", body)
	}

	cancel()
	select {
	case err := <-served:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

func TestListen_Errors(t *testing.T) {
	var disabled *Metrics
	if _, err := disabled.Listen("127.0.0.1:0", nil); err == nil {
		t.Error("Listen() on nil metrics should fail")
	}
	if _, err := New().Listen("not an address", nil); err == nil {
		t.Error("Listen() with a bad address should fail")
	}
}
