// SPDX-License-Identifier: MPL-2.0

package transpile

import (
	"path"
	"slices"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"golang.org/x/exp/maps"
)

const (
	// DefaultTarget is the ECMAScript version produced by default.
	DefaultTarget = "es2015"
	// DefaultFormat is the module format produced by default.
	DefaultFormat = "cjs"
)

var (
	targets = map[string]api.Target{
		"es2015": api.ES2015,
		"es2016": api.ES2016,
		"es2017": api.ES2017,
		"es2018": api.ES2018,
		"es2019": api.ES2019,
		"es2020": api.ES2020,
		"es2021": api.ES2021,
		"es2022": api.ES2022,
		"esnext": api.ESNext,
	}

	formats = map[string]api.Format{
		"cjs":  api.FormatCommonJS,
		"esm":  api.FormatESModule,
		"iife": api.FormatIIFE,
	}

	loaders = map[string]api.Loader{
		".js":  api.LoaderJS,
		".mjs": api.LoaderJS,
		".cjs": api.LoaderJS,
		".jsx": api.LoaderJSX,
		".ts":  api.LoaderTS,
		".mts": api.LoaderTS,
		".cts": api.LoaderTS,
		".tsx": api.LoaderTSX,
	}

	// renamed maps source extensions whose output is plain JavaScript.
	renamed = map[string]string{
		".jsx": ".js",
		".ts":  ".js",
		".tsx": ".js",
		".mts": ".mjs",
		".cts": ".cjs",
	}
)

// Settings selects what the ESBuild transformer produces.
type Settings struct {
	// Target is the ECMAScript version, es2015 through es2022 or esnext.
	Target string `json:"target" mapstructure:"target"`
	// Format is the module format: cjs, esm or iife.
	Format string `json:"format" mapstructure:"format"`
	// Extensions lists the file extensions transpiled during a tree
	// transform. Other files are copied unchanged.
	Extensions []string `json:"extensions" mapstructure:"extensions"`
	// Ignore holds doublestar patterns, relative to the source tree, that
	// are neither transpiled nor copied.
	Ignore []string `json:"ignore" mapstructure:"ignore"`
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() Settings {
	return Settings{
		Target:     DefaultTarget,
		Format:     DefaultFormat,
		Extensions: []string{".js", ".mjs", ".cjs", ".jsx", ".ts", ".tsx"},
		Ignore:     []string{"**/.git", "**/.DS_Store"},
	}
}

// IsValid reports whether every field names something the transformer
// supports, collecting one error per rejected value.
func (s Settings) IsValid() (bool, []error) {
	var errs []error
	if _, ok := targets[strings.ToLower(s.Target)]; !ok {
		errs = append(errs, &InvalidSettingError{Field: "target", Value: s.Target, Err: ErrInvalidTarget, Supported: Targets()})
	}
	if _, ok := formats[strings.ToLower(s.Format)]; !ok {
		errs = append(errs, &InvalidSettingError{Field: "format", Value: s.Format, Err: ErrInvalidFormat, Supported: Formats()})
	}
	for _, ext := range s.Extensions {
		if _, ok := loaders[strings.ToLower(ext)]; !ok {
			errs = append(errs, &InvalidSettingError{Field: "extensions", Value: ext, Err: ErrInvalidExtension, Supported: Extensions()})
		}
	}
	return len(errs) == 0, errs
}

// Targets returns the supported target names in sorted order.
func Targets() []string {
	names := maps.Keys(targets)
	slices.Sort(names)
	return names
}

// Formats returns the supported module format names in sorted order.
func Formats() []string {
	names := maps.Keys(formats)
	slices.Sort(names)
	return names
}

// Extensions returns every extension the transformer can transpile, sorted.
func Extensions() []string {
	names := maps.Keys(loaders)
	slices.Sort(names)
	return names
}

// OutputName returns the name a transpiled file is written under. Files whose
// extension is not transpiled keep their name.
func OutputName(name string) string {
	ext := path.Ext(name)
	if to, ok := renamed[strings.ToLower(ext)]; ok {
		return strings.TrimSuffix(name, ext) + to
	}
	return name
}

func loaderFor(name string) api.Loader {
	if l, ok := loaders[strings.ToLower(path.Ext(name))]; ok {
		return l
	}
	return api.LoaderJS
}
