// SPDX-License-Identifier: MPL-2.0

package emit

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/handlerpack/handlerpack/pkg/handler"
)

// RenderOptions adjusts the rendered text.
type RenderOptions struct {
	// ConfigPath is the handler config file, absolute or relative to the
	// source directory. Empty means handler.DefaultHandlerConfigName.
	ConfigPath string
	// CustomCode is appended verbatim after the generated statements.
	CustomCode string
	// Marker is the exported boolean binding. Empty means DefaultMarker.
	Marker string
}

// Render produces the aggregation source text for manifest. Statements are
// joined with "\n" and the text carries no trailing newline unless the custom
// code supplies one.
func Render(m handler.Manifest, sourceDir string, opts RenderOptions) (string, error) {
	sourceDir, err := filepath.Abs(sourceDir)
	if err != nil {
		return "", fmt.Errorf("resolve source directory: %w", err)
	}

	marker := opts.Marker
	if marker == "" {
		marker = DefaultMarker
	}
	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = handler.DefaultHandlerConfigName
	}
	if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(sourceDir, configPath)
	}

	configImport, err := importPath(sourceDir, configPath)
	if err != nil {
		return "", err
	}
	configImport = strings.TrimSuffix(configImport, path.Ext(configImport))

	scope := newIdentScope(append([]string{marker}, boundNames...)...)
	lines := []string{
		fmt.Sprintf("export const %s = true;", marker),
		fmt.Sprintf("import config from %s;", quote(configImport)),
		"export { config };",
		fmt.Sprintf("export const name = config.name || %s;", quote(m.Name)),
	}

	entries := make([]string, 0, len(m.Modules))
	for _, mod := range m.Modules {
		id := scope.claim(mod.Name)

		configRef := "null"
		if mod.HasConfig() {
			p, err := importPath(sourceDir, mod.ConfigPath)
			if err != nil {
				return "", err
			}
			configRef = id + configSuffix
			lines = append(lines, fmt.Sprintf("import %s from %s;", configRef, quote(p)))
		}

		p, err := moduleImport(sourceDir, mod)
		if err != nil {
			return "", err
		}
		lines = append(lines, fmt.Sprintf("import %s from %s;", id, quote(p)))
		entries = append(entries, fmt.Sprintf("{name: %s, module: %s, config: %s}", quote(mod.Name), id, configRef))
	}

	lines = append(lines, fmt.Sprintf("export const handleModules = [%s];", strings.Join(entries, ", ")))
	if m.ActiveModule != "" {
		lines = append(lines, fmt.Sprintf("export const activeModule = %s;", quote(m.ActiveModule)))
	}
	if opts.CustomCode != "" {
		lines = append(lines, opts.CustomCode)
	}

	return strings.Join(lines, "\n"), nil
}

// Relocations maps each implicit module's entry file to the name it is
// mirrored under, so it never collides with the generated file.
func Relocations(m handler.Manifest) map[string]string {
	out := make(map[string]string)
	for _, mod := range m.Modules {
		if mod.Kind != handler.KindImplicit || mod.EntryFile == "" {
			continue
		}
		entry := filepath.ToSlash(mod.EntryFile)
		out[entry] = implicitTarget(mod)
	}
	return out
}

func implicitTarget(mod handler.Module) string {
	return mod.Name + path.Ext(filepath.ToSlash(mod.EntryFile))
}

func moduleImport(sourceDir string, mod handler.Module) (string, error) {
	switch mod.Kind {
	case handler.KindImplicit:
		return "./" + implicitTarget(mod), nil
	case handler.KindFile:
		p, err := importPath(sourceDir, mod.Path)
		if err != nil {
			return "", err
		}
		return strings.TrimSuffix(p, path.Ext(p)), nil
	default:
		return importPath(sourceDir, mod.Path)
	}
}

// importPath returns target relative to sourceDir as a slash-separated
// relative import specifier.
func importPath(sourceDir, target string) (string, error) {
	rel, err := filepath.Rel(sourceDir, target)
	if err != nil {
		return "", fmt.Errorf("import path for %s: %w", target, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return rel, nil
	}
	return "./" + rel, nil
}
