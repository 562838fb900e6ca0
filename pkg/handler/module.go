// SPDX-License-Identifier: MPL-2.0

package handler

// ModuleKind classifies how a handle module was discovered.
type ModuleKind int

const (
	// KindDirectory is a module backed by a directory under the module directory.
	KindDirectory ModuleKind = iota + 1
	// KindFile is a module backed by a single file under the module directory.
	KindFile
	// KindImplicit is the synthesized module used when no module directory exists.
	KindImplicit
)

// ImplicitModuleDescription describes the synthesized fallback module.
const ImplicitModuleDescription = "default module"

// Module describes one handle module. It is created during discovery and
// never modified afterwards.
type Module struct {
	// Name is derived from the filesystem entry: a directory's base name or a
	// file's base name without extension.
	Name string `json:"name"`
	// Kind records how the module was discovered.
	Kind ModuleKind `json:"kind"`
	// Path is the absolute path of the module entry (directory or file). For
	// implicit modules it is the fallback entry file.
	Path string `json:"path"`
	// ConfigPath is set only for directory modules holding their own config file.
	ConfigPath string `json:"configPath,omitempty"`
	// Config is the parsed content of ConfigPath, attached as-is.
	Config map[string]any `json:"config"`

	// EntryFile is the fallback entry file name (implicit modules only).
	EntryFile string `json:"entryFile,omitempty"`
	// Description is a human-readable summary (implicit modules only).
	Description string `json:"description,omitempty"`
	// Priority orders modules when routing; 0 is the lowest tier.
	Priority int `json:"priority"`
	// Query is the routing key selecting this module (implicit modules only).
	Query map[string]string `json:"query,omitempty"`
}

// String returns the kind name used in diagnostics and manifests.
func (k ModuleKind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindFile:
		return "file"
	case KindImplicit:
		return "implicit-fallback"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k ModuleKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// HasConfig reports whether the module carries its own config file.
func (m Module) HasConfig() bool {
	return m.ConfigPath != ""
}
