// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/handlerpack/handlerpack/internal/config"
)

type staticConfig struct {
	cfg *config.Config
	err error
}

func (s staticConfig) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.cfg, nil
}

type testApp struct {
	*App
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestApp(t *testing.T, provider ConfigProvider) *testApp {
	t.Helper()
	if provider == nil {
		cfg := config.DefaultConfig()
		cfg.Log.Level = "error"
		provider = staticConfig{cfg: cfg}
	}
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	app, err := NewApp(Dependencies{Config: provider, Stdout: stdout, Stderr: stderr})
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	return &testApp{App: app, stdout: stdout, stderr: stderr}
}

func (a *testApp) execute(args ...string) error {
	root := NewRootCommand(a.App)
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}
