// SPDX-License-Identifier: MPL-2.0

package handler

import (
	"testing"
)

func modules(names ...string) []Module {
	out := make([]Module, len(names))
	for i, n := range names {
		out[i] = Module{Name: n, Kind: KindFile}
	}
	return out
}

func TestFinalize_ActiveModule(t *testing.T) {
	tests := []struct {
		name       string
		configured any
		modules    []Module
		want       string
	}{
		{name: "unset defaults to first", configured: nil, modules: modules("error", "success_1"), want: "error"},
		{name: "unknown defaults to first", configured: "missing", modules: modules("error", "success_1"), want: "error"},
		{name: "empty string defaults to first", configured: "", modules: modules("a", "b"), want: "a"},
		{name: "known is kept", configured: "success_1", modules: modules("error", "success_1"), want: "success_1"},
		{name: "no modules keeps configured", configured: "ghost", modules: nil, want: "ghost"},
		{name: "no modules and unset", configured: nil, modules: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{"name": "demo"}
			if tt.configured != nil {
				cfg[FieldActiveModule] = tt.configured
			}

			m := Finalize(cfg, tt.modules)
			if m.ActiveModule != tt.want {
				t.Errorf("ActiveModule = %q, want %q", m.ActiveModule, tt.want)
			}
			if len(tt.modules) > 0 && m.Config.ActiveModule() != tt.want {
				t.Errorf("Config[activeModule] = %q, want %q", m.Config.ActiveModule(), tt.want)
			}
		})
	}
}

func TestFinalize_DoesNotMutateInput(t *testing.T) {
	cfg := Config{"name": "demo"}
	mods := modules("error")

	m := Finalize(cfg, mods)
	if _, ok := cfg[FieldActiveModule]; ok {
		t.Error("Finalize() wrote activeModule into the input config")
	}

	m.Modules[0].Name = "changed"
	if mods[0].Name != "error" {
		t.Error("Finalize() shares the module slice with its input")
	}
	if m.Name != "demo" {
		t.Errorf("Name = %q, want demo", m.Name)
	}
}

func TestManifest_Lookup(t *testing.T) {
	m := Finalize(Config{}, modules("a", "b"))

	if got := m.ModuleNames(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("ModuleNames() = %v, want [a b]", got)
	}
	if _, ok := m.Module("b"); !ok {
		t.Error("Module(b) not found")
	}
	if _, ok := m.Module("c"); ok {
		t.Error("Module(c) unexpectedly found")
	}
}

func TestManifest_Record(t *testing.T) {
	mods := []Module{
		{Name: "error", Kind: KindDirectory, Path: "/h/handle_modules/error"},
		{Name: "success_2", Kind: KindDirectory, Path: "/h/handle_modules/success_2", ConfigPath: "/h/handle_modules/success_2/config.json", Config: map[string]any{"x": true}},
	}
	rec := Finalize(Config{"name": "demo", "extra": 1}, mods).Record()

	if rec["name"] != "demo" || rec["extra"] != 1 {
		t.Errorf("Record() lost config fields: %v", rec)
	}
	if rec[FieldActiveModule] != "error" {
		t.Errorf("Record()[activeModule] = %v, want error", rec[FieldActiveModule])
	}
	entries, ok := rec["modules"].([]map[string]any)
	if !ok || len(entries) != 2 {
		t.Fatalf("Record()[modules] = %#v", rec["modules"])
	}
	if _, ok := entries[0]["config"]; ok {
		t.Error("module without config should not carry a config entry")
	}
	if entries[1]["kind"] != "directory" || entries[1]["configPath"] == nil {
		t.Errorf("module entry = %v", entries[1])
	}
}

func TestModuleKind_String(t *testing.T) {
	tests := map[ModuleKind]string{
		KindDirectory:  "directory",
		KindFile:       "file",
		KindImplicit:   "implicit-fallback",
		ModuleKind(99): "unknown",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("ModuleKind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}
