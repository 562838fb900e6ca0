// SPDX-License-Identifier: MPL-2.0

package handler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestMergeConfig_MissingFile(t *testing.T) {
	dir := t.TempDir()

	_, err := MergeConfig(dir, MergeOptions{})
	if !errors.Is(err, ErrMissingConfig) {
		t.Fatalf("MergeConfig() error = %v, want ErrMissingConfig", err)
	}

	var missing *MissingConfigError
	if !errors.As(err, &missing) {
		t.Fatalf("MergeConfig() error type = %T, want *MissingConfigError", err)
	}
	if want := filepath.Join(dir, "config.json"); missing.Path != want {
		t.Errorf("MissingConfigError.Path = %q, want %q", missing.Path, want)
	}
}

func TestMergeConfig_DefaultsNameToDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "demo_handler")
	writeFile(t, filepath.Join(dir, "config.json"), `{"description": "no name here"}`)

	cfg, err := MergeConfig(dir, MergeOptions{})
	if err != nil {
		t.Fatalf("MergeConfig() error = %v", err)
	}
	if got := cfg.Name(); got != "demo_handler" {
		t.Errorf("Name() = %q, want demo_handler", got)
	}
	if got := cfg["description"]; got != "no name here" {
		t.Errorf("description = %v, want passthrough value", got)
	}
}

func TestMergeConfig_DefaultNameResolvesRelativeSource(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "demo")
	writeFile(t, filepath.Join(dir, "config.json"), `{}`)
	writeFile(t, filepath.Join(dir, "sub", "config.json"), `{}`)
	t.Chdir(dir)

	for _, src := range []string{".", "./", "sub/..", filepath.Join("..", "demo")} {
		cfg, err := MergeConfig(src, MergeOptions{})
		if err != nil {
			t.Fatalf("MergeConfig(%q) error = %v", src, err)
		}
		if got := cfg.Name(); got != "demo" {
			t.Errorf("MergeConfig(%q).Name() = %q, want demo", src, got)
		}
	}
}

func TestMergeConfig_TierPrecedence(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "h")
	writeFile(t, filepath.Join(dir, "config.json"), `{
		"name": "from-file",
		"route": {"path": "/file"},
		"custom": [1, 2]
	}`)

	cache := map[string]any{
		"name":         "from-cache",
		"activeModule": "success",
		"route":        map[string]any{"path": "/cache", "method": "GET"},
	}

	cfg, err := MergeConfig(dir, MergeOptions{Cache: cache})
	if err != nil {
		t.Fatalf("MergeConfig() error = %v", err)
	}

	want := Config{
		"name":         "from-file",
		"activeModule": "success",
		"route":        map[string]any{"path": "/file"},
		"custom":       []any{float64(1), float64(2)},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("MergeConfig() mismatch (-want +got):\n%s", diff)
	}

	if _, ok := cache["custom"]; ok {
		t.Error("MergeConfig() mutated the cache record")
	}
}

func TestMergeConfig_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	explicit := filepath.Join(dir, "elsewhere", "handler.json")
	writeFile(t, explicit, `{"name": "explicit"}`)

	cfg, err := MergeConfig(filepath.Join(dir, "src"), MergeOptions{ConfigPath: explicit})
	if err != nil {
		t.Fatalf("MergeConfig() error = %v", err)
	}
	if cfg.Name() != "explicit" {
		t.Errorf("Name() = %q, want explicit", cfg.Name())
	}
}

func TestMergeConfig_LayoutConfigName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "handler.json"), `{"name": "layout"}`)

	layout := Layout{HandlerConfigName: "handler.json"}
	cfg, err := MergeConfig(dir, MergeOptions{Layout: layout})
	if err != nil {
		t.Fatalf("MergeConfig() error = %v", err)
	}
	if cfg.Name() != "layout" {
		t.Errorf("Name() = %q, want layout", cfg.Name())
	}
}

func TestMergeConfig_RejectsNonObjects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "array", content: `[1, 2, 3]`},
		{name: "null", content: `null`},
		{name: "syntax", content: `{"name": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, "config.json"), tt.content)

			_, err := MergeConfig(dir, MergeOptions{})
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("MergeConfig() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestReadObject_StripsByteOrderMark(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, "\xEF\xBB\xBF{\"name\": \"bom\"}")

	got, err := ReadObject(path)
	if err != nil {
		t.Fatalf("ReadObject() error = %v", err)
	}
	if diff := cmp.Diff(map[string]any{"name": "bom"}, got); diff != "" {
		t.Errorf("ReadObject() mismatch (-want +got):\n%s", diff)
	}
}

func TestConfig_Accessors(t *testing.T) {
	cfg := Config{"name": 42, "activeModule": "error"}
	if cfg.Name() != "" {
		t.Errorf("Name() = %q, want empty for non-string", cfg.Name())
	}
	if cfg.ActiveModule() != "error" {
		t.Errorf("ActiveModule() = %q, want error", cfg.ActiveModule())
	}

	var nilCfg Config
	if clone := nilCfg.Clone(); clone == nil {
		t.Error("Clone() of nil config returned nil")
	}
}
