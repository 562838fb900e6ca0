// SPDX-License-Identifier: MPL-2.0

package handler

const (
	// DefaultHandlerConfigName is the handler configuration file inside a source directory.
	DefaultHandlerConfigName = "config.json"
	// DefaultModulesDirName is the directory holding handle modules.
	DefaultModulesDirName = "handle_modules"
	// DefaultModuleConfigName is the per-module override file, relative to a module directory.
	DefaultModuleConfigName = "config.json"
	// DefaultImplicitModuleName names the module synthesized when no module directory exists.
	DefaultImplicitModuleName = "index_module"
	// DefaultTargetField is the query field routing requests to a module.
	DefaultTargetField = "_m_target"
)

// Layout describes the filesystem conventions of a handler directory. It is
// threaded explicitly through discovery and merging so builds with different
// conventions never share state.
type Layout struct {
	// HandlerConfigName is the handler config file name, relative to the source directory.
	HandlerConfigName string `json:"handler_config" mapstructure:"handler_config"`
	// ModulesDirName is the module directory name, relative to the source directory.
	ModulesDirName string `json:"modules_dir" mapstructure:"modules_dir"`
	// ModuleConfigName is the per-module config file, relative to each module directory.
	ModuleConfigName string `json:"module_config" mapstructure:"module_config"`
	// FallbackEntries are the entry files tried, in order, when no module directory exists.
	FallbackEntries []string `json:"fallback_entries" mapstructure:"fallback_entries"`
	// ImplicitModuleName names the synthesized fallback module.
	ImplicitModuleName string `json:"implicit_module" mapstructure:"implicit_module"`
	// TargetField is the routing query field recorded on the fallback module.
	TargetField string `json:"target_field" mapstructure:"target_field"`
}

// DefaultLayout returns the conventional handler layout.
func DefaultLayout() Layout {
	return Layout{
		HandlerConfigName:  DefaultHandlerConfigName,
		ModulesDirName:     DefaultModulesDirName,
		ModuleConfigName:   DefaultModuleConfigName,
		FallbackEntries:    []string{"index.js", "index.json"},
		ImplicitModuleName: DefaultImplicitModuleName,
		TargetField:        DefaultTargetField,
	}
}

// WithDefaults fills zero-valued fields from DefaultLayout.
func (l Layout) WithDefaults() Layout {
	def := DefaultLayout()
	if l.HandlerConfigName == "" {
		l.HandlerConfigName = def.HandlerConfigName
	}
	if l.ModulesDirName == "" {
		l.ModulesDirName = def.ModulesDirName
	}
	if l.ModuleConfigName == "" {
		l.ModuleConfigName = def.ModuleConfigName
	}
	if len(l.FallbackEntries) == 0 {
		l.FallbackEntries = def.FallbackEntries
	}
	if l.ImplicitModuleName == "" {
		l.ImplicitModuleName = def.ImplicitModuleName
	}
	if l.TargetField == "" {
		l.TargetField = def.TargetField
	}
	return l
}
