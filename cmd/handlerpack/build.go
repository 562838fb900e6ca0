// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/handlerpack/handlerpack/internal/builder"
	"github.com/handlerpack/handlerpack/internal/telemetry"
	"github.com/handlerpack/handlerpack/internal/watch"
	"github.com/handlerpack/handlerpack/pkg/handler"

	"github.com/spf13/cobra"
)

type (
	// sourceFlagValues locate the handler inputs. They are shared by build,
	// inspect and render; inspect leaves the custom code flags unregistered.
	sourceFlagValues struct {
		handlerConfig string
		modulesDir    string
		moduleConfig  string
		cacheFile     string
		customCode    string
		customFile    string
	}

	buildFlagValues struct {
		sourceFlagValues
		debug       bool
		metricsFile string
		metricsAddr string
		watch       bool
	}
)

// registerInputs adds the flags that locate the handler config and modules.
func (f *sourceFlagValues) registerInputs(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.handlerConfig, "handler-config", "", "handler config file (default {source-dir}/config.json)")
	flags.StringVar(&f.modulesDir, "modules-dir", "", "module directory (default {source-dir}/handle_modules)")
	flags.StringVar(&f.moduleConfig, "module-config", "", "per-module config file, relative to each module directory (default config.json)")
	flags.StringVar(&f.cacheFile, "cache-file", "", "JSON record merged below the handler config")
}

// register adds the input flags plus the custom code flags, for commands
// that produce aggregation source.
func (f *sourceFlagValues) register(cmd *cobra.Command) {
	f.registerInputs(cmd)
	flags := cmd.Flags()
	flags.StringVar(&f.customCode, "custom-code", "", "code appended verbatim to the aggregation source")
	flags.StringVar(&f.customFile, "custom-code-file", "", "file whose content is appended to the aggregation source")
	cmd.MarkFlagsMutuallyExclusive("custom-code", "custom-code-file")
}

// options resolves the flags into build options, reading the cache and
// custom code files.
func (f *sourceFlagValues) options() (builder.Options, error) {
	opts := builder.Options{
		HandlerConfigPath:        f.handlerConfig,
		ModuleBasePath:           f.modulesDir,
		ModuleConfigRelativePath: f.moduleConfig,
		CustomCode:               f.customCode,
	}

	if f.customFile != "" {
		code, err := os.ReadFile(f.customFile)
		if err != nil {
			return builder.Options{}, fmt.Errorf("read custom code: %w", err)
		}
		opts.CustomCode = string(code)
	}

	if f.cacheFile != "" {
		cache, err := handler.ReadObject(f.cacheFile)
		if err != nil {
			return builder.Options{}, fmt.Errorf("read cache file: %w", err)
		}
		opts.Cache = cache
	}
	return opts, nil
}

func newBuildCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &buildFlagValues{}

	buildCmd := &cobra.Command{
		Use:   "build <source-dir> <dest-dir>",
		Short: "Build a handler into a destination directory",
		Long: `Build a handler into a destination directory.

The build merges the handler config, discovers the handle modules, writes
the aggregation source to index.bak, its transpiled form to index.js and
mirrors the transpiled source tree into the destination.

` + SubtitleStyle.Render("Examples:") + `
  handlerpack build ./handler ./dist
  handlerpack build ./handler ./dist --modules-dir ./shared/modules
  handlerpack build ./handler ./handler/dist --watch`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), app, rootFlags, flags, args[0], args[1])
		},
	}

	flags.register(buildCmd)
	buildCmd.Flags().BoolVar(&flags.debug, "debug", false, "log every build stage")
	buildCmd.Flags().StringVar(&flags.metricsFile, "metrics-file", "", "write Prometheus build metrics to this file after each build")
	buildCmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "rebuild whenever the source directory changes")
	buildCmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "serve Prometheus build metrics on this address while watching (e.g. :9464)")

	return buildCmd
}

func runBuild(ctx context.Context, app *App, rootFlags *rootFlagValues, flags *buildFlagValues, src, dest string) error {
	fail := func(err error) error {
		return app.fail(err, rootFlags.verbose, "build handler", src)
	}
	if flags.metricsAddr != "" && !flags.watch {
		return usageError(errors.New("--metrics-addr requires --watch"))
	}

	s, err := app.newSession(ctx, rootFlags, flags.debug)
	if err != nil {
		return fail(err)
	}
	opts, err := flags.options()
	if err != nil {
		return fail(err)
	}
	opts.Debug = flags.debug

	metrics := telemetry.New()
	b, err := app.newBuilder(s, metrics)
	if err != nil {
		return fail(err)
	}

	buildOnce := func(ctx context.Context) error {
		res, err := b.Build(ctx, src, dest, opts)
		if flags.metricsFile != "" {
			if werr := metrics.WriteTextfile(flags.metricsFile); werr != nil {
				s.logger.Warn("failed to write metrics", "path", flags.metricsFile, "error", werr)
			}
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(app.stdout, "%s Built %s into %s (%d modules, active %s)\n",
			SuccessStyle.Render("✓"),
			KeyStyle.Render(res.Manifest.Name),
			dest,
			len(res.Manifest.Modules),
			KeyStyle.Render(res.Manifest.ActiveModule))
		return nil
	}

	if !flags.watch {
		if err := buildOnce(ctx); err != nil {
			return fail(err)
		}
		return nil
	}

	return runWatch(ctx, app, rootFlags, s, flags, metrics, buildOnce, src, dest)
}

// runWatch builds once, then rebuilds on every change until ctx is
// canceled. Failed builds are reported and watching continues.
func runWatch(ctx context.Context, app *App, rootFlags *rootFlagValues, s *session, flags *buildFlagValues, metrics *telemetry.Metrics, buildOnce func(context.Context) error, src, dest string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if flags.metricsAddr != "" {
		srv, err := metrics.Listen(flags.metricsAddr, s.logger)
		if err != nil {
			return app.fail(err, rootFlags.verbose, "serve metrics", flags.metricsAddr)
		}
		go func() {
			if err := srv.Serve(ctx); err != nil {
				s.logger.Error("metrics server stopped", "error", err)
			}
		}()
		fmt.Fprintf(app.stdout, "%s Serving metrics at %s\n", KeyStyle.Render("→"), srv.URL())
	}

	report := func(err error) {
		if errors.Is(err, context.Canceled) {
			return
		}
		renderFailure(app.stderr, classifyError(err, "build handler", src), rootFlags.verbose)
	}

	fmt.Fprintf(app.stdout, "%s Watch mode: initial build of %s\n", KeyStyle.Render("→"), src)
	if err := buildOnce(ctx); err != nil {
		report(err)
	}

	exclude := []string{dest}
	if flags.metricsFile != "" {
		exclude = append(exclude, flags.metricsFile)
	}
	if flags.modulesDir != "" {
		if rel, err := filepath.Rel(src, flags.modulesDir); err != nil || !filepath.IsLocal(rel) {
			s.logger.Warn("module directory is outside the source directory and is not watched", "dir", flags.modulesDir)
		}
	}

	w, err := watch.New(watch.Config{
		SourceDir: src,
		Exclude:   exclude,
		Ignore:    s.cfg.Transform.Ignore,
		Logger:    s.logger,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintf(app.stdout, "%s Detected %d change(s), rebuilding\n", KeyStyle.Render("→"), len(changed))
			if err := buildOnce(ctx); err != nil {
				report(err)
			}
			return nil
		},
	})
	if err != nil {
		return app.fail(fmt.Errorf("failed to start watcher: %w", err), rootFlags.verbose, "watch handler", src)
	}

	fmt.Fprintf(app.stdout, "\n%s Watching for changes (Ctrl+C to stop)...\n\n", KeyStyle.Render("→"))
	if err := w.Run(ctx); err != nil {
		return app.fail(err, rootFlags.verbose, "watch handler", src)
	}
	return nil
}
