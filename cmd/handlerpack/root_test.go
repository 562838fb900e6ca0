// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/fang"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2026-06-15T10:00:00Z"

		want := "v1.2.3 (commit: abc1234, built: 2026-06-15T10:00:00Z)"
		if got := getVersionString(); got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("dev build", func(t *testing.T) {
		origVersion := Version
		t.Cleanup(func() { Version = origVersion })

		Version = "dev"
		if got, want := getVersionString(), "dev (built from source)"; got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestNewRootCommand_Subcommands(t *testing.T) {
	t.Parallel()

	root := NewRootCommand(newTestApp(t, nil).App)
	for _, name := range []string{"build", "inspect", "render", "config"} {
		if sub, _, err := root.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("Find(%q) = %v, %v", name, sub, err)
		}
	}
}

func TestRootCommand_UsageErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{name: "build without dest", args: []string{"build", "src"}},
		{name: "inspect with two dirs", args: []string{"inspect", "a", "b"}},
		{name: "unknown flag", args: []string{"build", "--no-such-flag", "a", "b"}},
		{name: "config show with args", args: []string{"config", "show", "extra"}},
		{name: "metrics addr without watch", args: []string{"build", "--metrics-addr", "127.0.0.1:0", "a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := newTestApp(t, nil).execute(tt.args...)
			var exitErr *ExitError
			if !errors.As(err, &exitErr) || exitErr.Code != ExitUsage {
				t.Errorf("execute(%v) error = %v, want ExitError with code %d", tt.args, err, ExitUsage)
			}
		})
	}
}

func TestExitError(t *testing.T) {
	t.Parallel()

	if got := (&ExitError{Code: 3}).Error(); got != "exit status 3" {
		t.Errorf("Error() = %q", got)
	}
	cause := errors.New("boom")
	err := &ExitError{Code: ExitFailure, Err: cause}
	if err.Error() != "boom" || !errors.Is(err, cause) {
		t.Errorf("ExitError should expose its cause, got %q", err.Error())
	}
	if usageError(nil) != nil {
		t.Error("usageError(nil) should be nil")
	}
}

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, nil)
	failed := app.execute("build", t.TempDir(), filepath.Join(t.TempDir(), "out"))
	var exitErr *ExitError
	if !errors.As(failed, &exitErr) || !exitErr.Rendered {
		t.Fatalf("execute(build) error = %v, want a rendered ExitError", failed)
	}
	if !strings.Contains(app.stderr.String(), "Error:") {
		t.Errorf("stderr should hold the rendered failure, got %q", app.stderr.String())
	}

	var out bytes.Buffer
	errorHandler(&out, fang.Styles{}, failed)
	if out.Len() != 0 {
		t.Errorf("errorHandler printed a rendered failure again: %q", out.String())
	}

	usage := newTestApp(t, nil).execute("build", "onlyone")
	errorHandler(&out, fang.Styles{}, usage)
	if !strings.Contains(out.String(), "accepts 2 arg") {
		t.Errorf("errorHandler should print usage errors, got %q", out.String())
	}
}
