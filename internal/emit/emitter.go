// SPDX-License-Identifier: MPL-2.0

package emit

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/handlerpack/handlerpack/internal/transpile"
	"github.com/handlerpack/handlerpack/pkg/handler"
)

type (
	// Emitter writes the rendered aggregation source into a destination
	// directory.
	Emitter struct {
		output OutputSettings
		text   transpile.TextTransformer
		logger *slog.Logger
	}

	// Option configures an Emitter.
	Option func(*Emitter)

	// Result describes what Emit wrote.
	Result struct {
		// Source is the raw rendered text, identical to the backup file.
		Source string
		// BackupPath is the raw text file.
		BackupPath string
		// GeneratedPath is the transformed file.
		GeneratedPath string
	}
)

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Emitter) { e.logger = l }
}

// New creates an Emitter. Empty output fields take their defaults.
func New(output OutputSettings, text transpile.TextTransformer, opts ...Option) *Emitter {
	e := &Emitter{
		output: output.WithDefaults(),
		text:   text,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Output returns the effective output settings.
func (e *Emitter) Output() OutputSettings { return e.output }

// Emit renders m, writes the raw text to the backup file, then transforms it
// and writes the generated file. The backup is written before transforming so
// it survives a transform failure. Existing files are overwritten, but a
// destDir resolving to sourceDir is rejected before anything is written.
func (e *Emitter) Emit(ctx context.Context, m handler.Manifest, sourceDir, destDir string, opts RenderOptions) (*Result, error) {
	if err := CheckDestination(sourceDir, destDir); err != nil {
		return nil, err
	}
	if opts.Marker == "" {
		opts.Marker = e.output.Marker
	}
	source, err := Render(m, sourceDir, opts)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create destination %s: %w", destDir, err)
	}

	res := &Result{
		Source:        source,
		BackupPath:    filepath.Join(destDir, e.output.Backup),
		GeneratedPath: filepath.Join(destDir, e.output.Generated),
	}

	if err := os.WriteFile(res.BackupPath, []byte(source), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", res.BackupPath, err)
	}
	e.logger.Debug("wrote aggregation source", "path", res.BackupPath, "bytes", len(source))

	transformed, err := e.text.TransformText(ctx, e.output.Generated, source)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(res.GeneratedPath, []byte(transformed), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", res.GeneratedPath, err)
	}
	e.logger.Debug("wrote generated source", "path", res.GeneratedPath, "bytes", len(transformed))

	return res, nil
}
