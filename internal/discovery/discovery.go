// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/handlerpack/handlerpack/pkg/handler"
)

type (
	// Discoverer enumerates handle modules using an explicit Layout.
	Discoverer struct {
		layout handler.Layout
		lister Lister
		logger *slog.Logger
	}

	// Option configures a Discoverer.
	Option func(*Discoverer)

	// Overrides replaces layout conventions for a single discovery.
	Overrides struct {
		// ModuleBasePath is the module directory location. Empty means
		// {sourceDir}/{Layout.ModulesDirName}.
		ModuleBasePath string
		// ModuleConfigRelativePath is the per-module config file, relative to
		// each module directory. Empty means Layout.ModuleConfigName.
		ModuleConfigRelativePath string
	}
)

// WithLister replaces the default GlobLister.
func WithLister(l Lister) Option {
	return func(d *Discoverer) { d.lister = l }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(d *Discoverer) { d.logger = l }
}

// New creates a Discoverer. Zero-valued layout fields take their defaults.
func New(layout handler.Layout, opts ...Option) *Discoverer {
	d := &Discoverer{
		layout: layout.WithDefaults(),
		lister: GlobLister{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ModuleDir resolves the module directory for sourceDir.
func (d *Discoverer) ModuleDir(sourceDir string, ov Overrides) string {
	if ov.ModuleBasePath != "" {
		return ov.ModuleBasePath
	}
	return filepath.Join(sourceDir, d.layout.ModulesDirName)
}

// Discover returns the handle modules of sourceDir in listing order.
func (d *Discoverer) Discover(ctx context.Context, sourceDir string, ov Overrides) ([]handler.Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("discover modules: %w", err)
	}

	absSource, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("resolve source directory %s: %w", sourceDir, err)
	}

	moduleDir, err := filepath.Abs(d.ModuleDir(absSource, ov))
	if err != nil {
		return nil, fmt.Errorf("resolve module directory: %w", err)
	}

	info, err := os.Stat(moduleDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		d.logger.Debug("module directory absent, using implicit module", "dir", moduleDir)
		m, fallbackErr := d.implicitModule(absSource, moduleDir)
		if fallbackErr != nil {
			return nil, fallbackErr
		}
		return []handler.Module{m}, nil
	case err != nil:
		return nil, &DiscoveryIOError{Dir: moduleDir, Err: err}
	case !info.IsDir():
		return nil, &DiscoveryIOError{Dir: moduleDir, Err: errors.New("not a directory")}
	}

	configRel := ov.ModuleConfigRelativePath
	if configRel == "" {
		configRel = d.layout.ModuleConfigName
	}

	return d.listModules(moduleDir, configRel)
}

// implicitModule synthesizes the single fallback module from the first
// existing fallback entry file.
func (d *Discoverer) implicitModule(sourceDir, moduleDir string) (handler.Module, error) {
	for _, entry := range d.layout.FallbackEntries {
		path := filepath.Join(sourceDir, entry)
		if !isFile(path) {
			continue
		}
		name := d.layout.ImplicitModuleName
		return handler.Module{
			Name:        name,
			Kind:        handler.KindImplicit,
			Path:        path,
			EntryFile:   entry,
			Description: handler.ImplicitModuleDescription,
			Priority:    0,
			Query:       map[string]string{d.layout.TargetField: name},
		}, nil
	}
	return handler.Module{}, &NoModulesFoundError{ModuleDir: moduleDir, Candidates: d.layout.FallbackEntries}
}

// listModules turns each child of moduleDir into a module.
func (d *Discoverer) listModules(moduleDir, configRel string) ([]handler.Module, error) {
	entries, err := d.lister.ListEntries(moduleDir, ModulePattern)
	if err != nil {
		return nil, &DiscoveryIOError{Dir: moduleDir, Err: err}
	}

	modules := make([]handler.Module, 0, len(entries))
	seen := make(map[string]string, len(entries))

	for _, entry := range entries {
		m := handler.Module{Path: entry.Path}

		if entry.IsDir {
			m.Kind = handler.KindDirectory
			m.Name = entry.Name

			// A module-local config file overrides everything for that module
			// and is attached unmerged.
			configPath := filepath.Join(moduleDir, m.Name, configRel)
			if isFile(configPath) {
				cfg, err := handler.ReadObject(configPath)
				if err != nil {
					return nil, err
				}
				m.ConfigPath = configPath
				m.Config = cfg
			}
		} else {
			m.Kind = handler.KindFile
			m.Name = strings.TrimSuffix(entry.Name, filepath.Ext(entry.Name))
		}

		if first, dup := seen[m.Name]; dup {
			return nil, &DuplicateModuleError{Name: m.Name, First: first, Second: entry.Path}
		}
		seen[m.Name] = entry.Path

		d.logger.Debug("discovered handle module", "name", m.Name, "kind", m.Kind.String(), "config", m.ConfigPath)
		modules = append(modules, m)
	}

	return modules, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
