// SPDX-License-Identifier: MPL-2.0

package transpile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/evanw/esbuild/pkg/api"

	"github.com/handlerpack/handlerpack/internal/logging"
)

type (
	// ESBuild transpiles JavaScript and TypeScript with esbuild's Transform API.
	ESBuild struct {
		settings Settings
		target   api.Target
		format   api.Format
		logger   *slog.Logger
	}

	// Option configures an ESBuild transformer.
	Option func(*ESBuild)
)

var _ Transformer = (*ESBuild)(nil)

// WithLogger sets the logger used for per-file output.
func WithLogger(l *slog.Logger) Option {
	return func(e *ESBuild) { e.logger = l }
}

// NewESBuild validates settings and returns a transformer for them.
func NewESBuild(settings Settings, opts ...Option) (*ESBuild, error) {
	if ok, errs := settings.IsValid(); !ok {
		return nil, errors.Join(errs...)
	}

	e := &ESBuild{
		settings: settings,
		target:   targets[strings.ToLower(settings.Target)],
		format:   formats[strings.ToLower(settings.Format)],
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// TransformText implements TextTransformer.
func (e *ESBuild) TransformText(ctx context.Context, filename, source string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &TransformError{File: filename, Err: err}
	}

	result := api.Transform(source, api.TransformOptions{
		Loader:     loaderFor(filename),
		Format:     e.format,
		Target:     e.target,
		Sourcefile: filename,
		LogLevel:   api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return "", &TransformError{File: filename, Messages: formatMessages(result.Errors)}
	}
	return string(result.Code), nil
}

// TransformTree implements TreeTransformer. Directories are recreated, files
// with a configured extension are transpiled and everything else is copied.
func (e *ESBuild) TransformTree(ctx context.Context, src, dest string, opts TreeOptions) error {
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return &TransformError{File: src, Err: err}
	}
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return &TransformError{File: dest, Err: err}
	}
	if absSrc == absDest {
		return &TransformError{File: dest, Err: ErrSameTree}
	}

	logger := e.logger
	if !opts.Debug {
		logger = logging.AtLeast(logger, slog.LevelInfo)
	}

	ignore := append(slices.Clone(e.settings.Ignore), opts.Ignore...)
	exclude := make(map[string]struct{}, len(opts.Exclude))
	for _, p := range opts.Exclude {
		exclude[path.Clean(filepath.ToSlash(p))] = struct{}{}
	}

	var transformed, copied int
	walkErr := filepath.WalkDir(absSrc, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(absSrc, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if p == absDest {
				logger.Debug("skipping destination nested in source", "dir", p)
				return filepath.SkipDir
			}
			if rel != "." && matchesAny(ignore, rel) {
				logger.Debug("ignoring directory", "path", rel)
				return filepath.SkipDir
			}
			return os.MkdirAll(filepath.Join(absDest, filepath.FromSlash(rel)), 0o755)
		}

		if matchesAny(ignore, rel) {
			logger.Debug("ignoring file", "path", rel)
			return nil
		}

		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		if info.IsDir() {
			logger.Debug("skipping symlinked directory", "path", rel)
			return nil
		}

		target := rel
		if to, ok := opts.Relocate[rel]; ok {
			target = path.Clean(filepath.ToSlash(to))
		}
		convert := e.transpiles(rel)
		if convert {
			target = OutputName(target)
		}
		if _, ok := exclude[target]; ok {
			logger.Debug("skipping excluded output", "path", target)
			return nil
		}

		out := filepath.Join(absDest, filepath.FromSlash(target))
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return err
		}

		if !convert {
			copied++
			logger.Debug("copying file", "from", rel, "to", target)
			return copyFile(p, out, info.Mode().Perm())
		}

		transformed++
		logger.Debug("transpiling file", "from", rel, "to", target)
		return e.transformFile(ctx, rel, p, out, info.Mode().Perm())
	})
	if walkErr != nil {
		var te *TransformError
		if errors.As(walkErr, &te) {
			return walkErr
		}
		return &TransformError{File: src, Err: walkErr}
	}

	logger.Debug("tree transform complete", "transpiled", transformed, "copied", copied)
	return nil
}

func (e *ESBuild) transformFile(ctx context.Context, rel, from, to string, perm fs.FileMode) error {
	data, err := os.ReadFile(from)
	if err != nil {
		return &TransformError{File: rel, Err: err}
	}
	code, err := e.TransformText(ctx, rel, string(data))
	if err != nil {
		return err
	}
	if err := os.WriteFile(to, []byte(code), perm); err != nil {
		return &TransformError{File: rel, Err: err}
	}
	return nil
}

func (e *ESBuild) transpiles(rel string) bool {
	ext := path.Ext(rel)
	return ext != "" && slices.ContainsFunc(e.settings.Extensions, func(x string) bool {
		return strings.EqualFold(x, ext)
	})
}

func matchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func copyFile(from, to string, perm fs.FileMode) (err error) {
	in, err := os.Open(from)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(to, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

func formatMessages(msgs []api.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Location == nil {
			out = append(out, m.Text)
			continue
		}
		out = append(out, fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text))
	}
	return out
}
