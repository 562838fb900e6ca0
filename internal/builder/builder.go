// SPDX-License-Identifier: MPL-2.0

// Package builder drives a handler build: merge the handler config, discover
// its modules, finalize the manifest, emit the aggregation source and mirror
// the transformed source tree.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/handlerpack/handlerpack/internal/discovery"
	"github.com/handlerpack/handlerpack/internal/emit"
	"github.com/handlerpack/handlerpack/internal/logging"
	"github.com/handlerpack/handlerpack/internal/telemetry"
	"github.com/handlerpack/handlerpack/internal/transpile"
	"github.com/handlerpack/handlerpack/pkg/handler"
)

type (
	// Settings are the conventions shared by every build of a Builder.
	Settings struct {
		Layout    handler.Layout
		Output    emit.OutputSettings
		Transform transpile.Settings
	}

	// Options adjust a single build.
	Options struct {
		// HandlerConfigPath overrides {src}/config.json.
		HandlerConfigPath string
		// ModuleBasePath overrides {src}/handle_modules.
		ModuleBasePath string
		// ModuleConfigRelativePath overrides the per-module config file name.
		ModuleConfigRelativePath string
		// CustomCode is appended verbatim to the aggregation source.
		CustomCode string
		// Debug enables debug logging. It never changes the artifacts.
		Debug bool
		// Cache is the cached handler record merged below the config file.
		Cache map[string]any
	}

	// Plan is a finalized manifest together with the handler config file
	// it was merged from.
	Plan struct {
		Manifest   handler.Manifest
		ConfigPath string
	}

	// Result describes a successful build.
	Result struct {
		Manifest handler.Manifest
		Emit     *emit.Result
		// Stages lists every stage entered, in order.
		Stages   []Stage
		Duration time.Duration
	}

	// Builder runs builds. It holds no per-build state and may be reused.
	Builder struct {
		settings Settings
		lister   discovery.Lister
		text     transpile.TextTransformer
		tree     transpile.TreeTransformer
		logger   *slog.Logger
		metrics  *telemetry.Metrics
		hook     func(Stage)
		now      func() time.Time
	}

	// Option configures a Builder.
	Option func(*Builder)

	run struct {
		*Builder
		logger  *slog.Logger
		started time.Time
		stages  []Stage
	}
)

// WithLister replaces the directory lister used for discovery.
func WithLister(l discovery.Lister) Option {
	return func(b *Builder) { b.lister = l }
}

// WithTransformer sets both the text and the tree transformer.
func WithTransformer(t transpile.Transformer) Option {
	return func(b *Builder) {
		b.text = t
		b.tree = t
	}
}

// WithTextTransformer sets the transformer applied to the aggregation source.
func WithTextTransformer(t transpile.TextTransformer) Option {
	return func(b *Builder) { b.text = t }
}

// WithTreeTransformer sets the transformer that mirrors the source tree.
func WithTreeTransformer(t transpile.TreeTransformer) Option {
	return func(b *Builder) { b.tree = t }
}

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithMetrics records stage timings and build results.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(b *Builder) { b.metrics = m }
}

// WithStageHook calls fn every time a stage is entered.
func WithStageHook(fn func(Stage)) Option {
	return func(b *Builder) { b.hook = fn }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// New creates a Builder. Unless both transformers are supplied through
// options, an esbuild transformer is created from settings.Transform.
func New(settings Settings, opts ...Option) (*Builder, error) {
	b := &Builder{
		settings: Settings{
			Layout:    settings.Layout.WithDefaults(),
			Output:    settings.Output.WithDefaults(),
			Transform: settings.Transform,
		},
		lister: discovery.GlobLister{},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.text == nil || b.tree == nil {
		es, err := transpile.NewESBuild(settings.Transform, transpile.WithLogger(b.logger))
		if err != nil {
			return nil, err
		}
		if b.text == nil {
			b.text = es
		}
		if b.tree == nil {
			b.tree = es
		}
	}
	return b, nil
}

// Settings returns the effective settings.
func (b *Builder) Settings() Settings { return b.settings }

// Build runs the pipeline for src into dest. On failure the returned error is
// a *StageError; files written by earlier stages are left in place. A dest
// resolving to src fails at StageConfigLoaded before anything is read or
// written.
func (b *Builder) Build(ctx context.Context, src, dest string, opts Options) (*Result, error) {
	logger := b.logger
	if !opts.Debug {
		logger = logging.AtLeast(logger, slog.LevelInfo)
	}
	r := &run{Builder: b, logger: logger.With("source", src), started: b.now()}
	r.enter(StageStart)

	res, err := r.build(ctx, src, dest, opts)
	if err != nil {
		r.enter(StageFailed)
		b.metrics.BuildFinished(telemetry.ResultFailure, b.now())
		r.logger.Debug("build failed", "error", err)
		return nil, err
	}

	r.enter(StageDone)
	res.Stages = r.stages
	res.Duration = b.now().Sub(r.started)
	b.metrics.BuildFinished(telemetry.ResultSuccess, b.now())
	r.logger.Info("build complete", "dest", dest, "modules", len(res.Manifest.Modules), "duration", res.Duration)
	return res, nil
}

// Plan runs the read-only stages of a build: it merges the handler config,
// discovers modules and finalizes the manifest without touching any
// destination. Stage hooks and metrics are not triggered.
func (b *Builder) Plan(ctx context.Context, src string, opts Options) (*Plan, error) {
	quiet := *b
	quiet.metrics = nil
	quiet.hook = nil
	logger := b.logger
	if !opts.Debug {
		logger = logging.AtLeast(logger, slog.LevelInfo)
	}
	r := &run{Builder: &quiet, logger: logger.With("source", src), started: b.now()}
	return r.plan(ctx, src, opts)
}

// Render returns the untransformed aggregation source a build of src would
// emit. Nothing is written.
func (b *Builder) Render(ctx context.Context, src string, opts Options) (string, error) {
	plan, err := b.Plan(ctx, src, opts)
	if err != nil {
		return "", err
	}
	return emit.Render(plan.Manifest, src, emit.RenderOptions{
		ConfigPath: plan.ConfigPath,
		CustomCode: opts.CustomCode,
		Marker:     b.settings.Output.Marker,
	})
}

func (r *run) plan(ctx context.Context, src string, opts Options) (*Plan, error) {
	mergeOpts := handler.MergeOptions{
		ConfigPath: opts.HandlerConfigPath,
		Cache:      opts.Cache,
		Layout:     r.settings.Layout,
	}
	if err := ctx.Err(); err != nil {
		return nil, &StageError{Stage: StageConfigLoaded, Err: err}
	}
	cfg, err := handler.MergeConfig(src, mergeOpts)
	if err != nil {
		return nil, &StageError{Stage: StageConfigLoaded, Err: err}
	}
	r.enter(StageConfigLoaded)

	d := discovery.New(r.settings.Layout, discovery.WithLister(r.lister), discovery.WithLogger(r.logger))
	modules, err := d.Discover(ctx, src, discovery.Overrides{
		ModuleBasePath:           opts.ModuleBasePath,
		ModuleConfigRelativePath: opts.ModuleConfigRelativePath,
	})
	if err != nil {
		return nil, &StageError{Stage: StageModulesDiscovered, Err: err}
	}
	r.enter(StageModulesDiscovered)

	manifest := handler.Finalize(cfg, modules)
	r.metrics.SetModules(len(manifest.Modules))
	r.logger.Debug("manifest finalized", "name", manifest.Name, "modules", manifest.ModuleNames(), "active", manifest.ActiveModule)
	r.enter(StageManifestFinalized)

	configPath, err := filepath.Abs(handler.ConfigPath(src, mergeOpts))
	if err != nil {
		return nil, &StageError{Stage: StageSourceEmitted, Err: fmt.Errorf("resolve handler config: %w", err)}
	}
	return &Plan{Manifest: manifest, ConfigPath: configPath}, nil
}

func (r *run) build(ctx context.Context, src, dest string, opts Options) (*Result, error) {
	if err := emit.CheckDestination(src, dest); err != nil {
		return nil, &StageError{Stage: StageConfigLoaded, Err: err}
	}
	plan, err := r.plan(ctx, src, opts)
	if err != nil {
		return nil, err
	}
	manifest, configPath := plan.Manifest, plan.ConfigPath

	if err := ctx.Err(); err != nil {
		return nil, &StageError{Stage: StageSourceEmitted, Err: err}
	}
	emitter := emit.New(r.settings.Output, r.text, emit.WithLogger(r.logger))
	emitted, err := emitter.Emit(ctx, manifest, src, dest, emit.RenderOptions{
		ConfigPath: configPath,
		CustomCode: opts.CustomCode,
	})
	if err != nil {
		return nil, &StageError{Stage: StageSourceEmitted, Err: err}
	}
	r.enter(StageSourceEmitted)

	if err := ctx.Err(); err != nil {
		return nil, &StageError{Stage: StageTreeTransformed, Err: err}
	}
	err = r.tree.TransformTree(ctx, src, dest, transpile.TreeOptions{
		Debug:    opts.Debug,
		Exclude:  r.settings.Output.Files(),
		Relocate: emit.Relocations(manifest),
	})
	if err != nil {
		return nil, &StageError{Stage: StageTreeTransformed, Err: err}
	}
	r.enter(StageTreeTransformed)

	return &Result{Manifest: manifest, Emit: emitted}, nil
}

func (r *run) enter(s Stage) {
	r.stages = append(r.stages, s)
	r.logger.Debug("build stage", "stage", s.String())
	if s != StageStart && s != StageFailed {
		r.metrics.ObserveStage(s.String(), r.now().Sub(r.started))
	}
	if r.hook != nil {
		r.hook(s)
	}
}
