// SPDX-License-Identifier: MPL-2.0

package handler

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"golang.org/x/exp/maps"
)

const (
	// FieldName is the config key holding the handler name.
	FieldName = "name"
	// FieldActiveModule is the config key naming the default module.
	FieldActiveModule = "activeModule"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type (
	// Config is a handler configuration record. Keys other than FieldName and
	// FieldActiveModule are user-defined and passed through verbatim.
	Config map[string]any

	// MergeOptions controls MergeConfig.
	MergeOptions struct {
		// ConfigPath overrides the config file location. Empty means
		// {sourceDir}/{Layout.HandlerConfigName}.
		ConfigPath string
		// Cache is a previously recorded handler record. It sits between the
		// defaults and the file, so values the file omits (typically
		// activeModule) survive repeated builds.
		Cache map[string]any
		// Layout supplies the default config file name.
		Layout Layout
	}
)

// Name returns the handler name, or "" when unset or not a string.
func (c Config) Name() string {
	s, _ := c[FieldName].(string)
	return s
}

// ActiveModule returns the configured active module, or "" when unset.
func (c Config) ActiveModule() string {
	s, _ := c[FieldActiveModule].(string)
	return s
}

// Clone returns a shallow copy of the record.
func (c Config) Clone() Config {
	if c == nil {
		return Config{}
	}
	return maps.Clone(c)
}

// ConfigPath resolves the handler config file location.
func ConfigPath(sourceDir string, opts MergeOptions) string {
	if opts.ConfigPath != "" {
		return opts.ConfigPath
	}
	return filepath.Join(sourceDir, opts.Layout.WithDefaults().HandlerConfigName)
}

// MergeConfig loads the handler config for sourceDir and overlays it on the
// defaults and the optional cached record. Each tier replaces top-level keys
// of the tiers below it; nested objects are never merged.
func MergeConfig(sourceDir string, opts MergeOptions) (Config, error) {
	path := ConfigPath(sourceDir, opts)
	if !fileExists(path) {
		return nil, &MissingConfigError{Path: path}
	}

	fields, err := ReadObject(path)
	if err != nil {
		return nil, err
	}

	absSource, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("resolve source directory %s: %w", sourceDir, err)
	}
	defaults := map[string]any{FieldName: filepath.Base(absSource)}

	k := koanf.New(".")
	for _, tier := range []map[string]any{defaults, opts.Cache, fields} {
		if tier == nil {
			continue
		}
		if err := k.Load(confmap.Provider(tier, ""), nil, koanf.WithMergeFunc(overlay)); err != nil {
			return nil, fmt.Errorf("merge handler config %s: %w", path, err)
		}
	}

	return Config(k.Raw()), nil
}

// ReadObject reads a JSON file whose top-level value must be an object.
func ReadObject(path string) (map[string]any, error) {
	raw, err := file.Provider(path).ReadBytes()
	if err != nil {
		return nil, &ConfigParseError{Path: path, Err: err}
	}
	fields, err := json.Parser().Unmarshal(bytes.TrimPrefix(raw, utf8BOM))
	if err != nil {
		return nil, &ConfigParseError{Path: path, Err: err}
	}
	if fields == nil {
		return nil, &ConfigParseError{Path: path, Err: errors.New("top-level value is not an object")}
	}
	return fields, nil
}

// overlay replaces dest keys with src keys without descending into nested maps.
func overlay(src, dest map[string]any) error {
	for key, val := range src {
		dest[key] = val
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
