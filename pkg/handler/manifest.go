// SPDX-License-Identifier: MPL-2.0

package handler

import (
	"golang.org/x/exp/slices"
)

// Manifest is the finalized description of a handler, ready for rendering.
type Manifest struct {
	// Config holds every merged config field, including the resolved activeModule.
	Config Config
	// Name is the handler name after merging.
	Name string
	// Modules lists the discovered modules in discovery order.
	Modules []Module
	// ActiveModule names the default module. When Modules is non-empty it is
	// always one of their names.
	ActiveModule string
}

// Finalize builds the manifest from a merged config and the discovered
// modules. An unset or unknown activeModule falls back to the first module;
// with no modules the configured value is kept as-is.
func Finalize(cfg Config, modules []Module) Manifest {
	fields := cfg.Clone()
	m := Manifest{
		Config:       fields,
		Name:         fields.Name(),
		Modules:      slices.Clone(modules),
		ActiveModule: fields.ActiveModule(),
	}

	if len(m.Modules) == 0 {
		return m
	}

	if m.ActiveModule == "" || !slices.Contains(m.ModuleNames(), m.ActiveModule) {
		m.ActiveModule = m.Modules[0].Name
		m.Config[FieldActiveModule] = m.ActiveModule
	}

	return m
}

// ModuleNames returns module names in discovery order.
func (m Manifest) ModuleNames() []string {
	names := make([]string, len(m.Modules))
	for i, mod := range m.Modules {
		names[i] = mod.Name
	}
	return names
}

// Module looks a module up by name.
func (m Manifest) Module(name string) (Module, bool) {
	i := slices.IndexFunc(m.Modules, func(mod Module) bool { return mod.Name == name })
	if i < 0 {
		return Module{}, false
	}
	return m.Modules[i], true
}

// Record flattens the manifest into a single record: the merged config
// fields plus "modules" and "activeModule".
func (m Manifest) Record() map[string]any {
	rec := make(map[string]any, len(m.Config)+2)
	for k, v := range m.Config {
		rec[k] = v
	}
	modules := make([]map[string]any, 0, len(m.Modules))
	for _, mod := range m.Modules {
		entry := map[string]any{
			"name":     mod.Name,
			"kind":     mod.Kind.String(),
			"path":     mod.Path,
			"priority": mod.Priority,
		}
		if mod.HasConfig() {
			entry["configPath"] = mod.ConfigPath
			entry["config"] = mod.Config
		}
		if mod.EntryFile != "" {
			entry["entryFile"] = mod.EntryFile
			entry["description"] = mod.Description
			entry["query"] = mod.Query
		}
		modules = append(modules, entry)
	}
	rec["modules"] = modules
	if m.ActiveModule != "" {
		rec[FieldActiveModule] = m.ActiveModule
	}
	return rec
}
