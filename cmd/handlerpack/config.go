// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/handlerpack/handlerpack/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `handlerpack config` command tree.
func newConfigCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage handlerpack settings",
		Long: `Manage handlerpack settings.

Settings are looked up in order:
  - the file given with --config
  - Linux: ~/.config/handlerpack/config.cue
    macOS: ~/Library/Application Support/handlerpack/config.cue
    Windows: %APPDATA%\handlerpack\config.cue
  - handlerpack.cue in the working directory

Environment variables HANDLERPACK_<SECTION>_<KEY> override file values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective settings",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app, rootFlags)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the settings file in use",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app, rootFlags)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default settings file",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app, rootFlags)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective settings as CUE",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: rootFlags.configPath})
			if err != nil {
				return app.fail(err, rootFlags.verbose, "load settings", rootFlags.configPath)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App, rootFlags *rootFlagValues) error {
	cfg, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: rootFlags.configPath})
	if err != nil {
		return app.fail(err, rootFlags.verbose, "load settings", rootFlags.configPath)
	}

	w := app.stdout
	fmt.Fprintln(w, TitleStyle.Render("Current Settings"))
	fmt.Fprintln(w)

	path, _ := config.ResolvePath(config.LoadOptions{ConfigFilePath: rootFlags.configPath})
	if path == "" {
		fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render("Settings file"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render("Settings file"), path)
	}
	fmt.Fprintln(w)

	section := func(title string, rows [][2]string) {
		fmt.Fprintln(w, TitleStyle.Render(title))
		for _, row := range rows {
			fmt.Fprintf(w, "  %s: %s\n", KeyStyle.Render(row[0]), SuccessStyle.Render(row[1]))
		}
		fmt.Fprintln(w)
	}

	section("layout", [][2]string{
		{"handler_config", cfg.Layout.HandlerConfigName},
		{"modules_dir", cfg.Layout.ModulesDirName},
		{"module_config", cfg.Layout.ModuleConfigName},
		{"fallback_entries", strings.Join(cfg.Layout.FallbackEntries, ", ")},
		{"implicit_module", cfg.Layout.ImplicitModuleName},
		{"target_field", cfg.Layout.TargetField},
	})
	section("output", [][2]string{
		{"generated", cfg.Output.Generated},
		{"backup", cfg.Output.Backup},
		{"marker", cfg.Output.Marker},
	})
	section("transform", [][2]string{
		{"target", cfg.Transform.Target},
		{"format", cfg.Transform.Format},
		{"extensions", strings.Join(cfg.Transform.Extensions, ", ")},
		{"ignore", strings.Join(cfg.Transform.Ignore, ", ")},
	})
	section("log", [][2]string{
		{"level", cfg.Log.Level},
		{"format", string(cfg.Log.Format)},
	})

	return nil
}

func showConfigPath(app *App, rootFlags *rootFlagValues) error {
	path, err := config.ResolvePath(config.LoadOptions{ConfigFilePath: rootFlags.configPath})
	if err != nil {
		return app.fail(err, rootFlags.verbose, "resolve settings file", rootFlags.configPath)
	}
	if path == "" {
		cfgDir, dirErr := config.ConfigDir()
		if dirErr != nil {
			return app.fail(dirErr, rootFlags.verbose, "resolve settings directory", "")
		}
		fmt.Fprintf(app.stdout, "%s %s\n", filepath.Join(cfgDir, config.ConfigFileName), SubtitleStyle.Render("(not created, using defaults)"))
		return nil
	}
	fmt.Fprintln(app.stdout, path)
	return nil
}

func initConfig(app *App, rootFlags *rootFlagValues) error {
	path, created, err := config.CreateDefaultConfig(config.LoadOptions{})
	if err != nil {
		return app.fail(err, rootFlags.verbose, "create settings file", "")
	}
	if !created {
		fmt.Fprintf(app.stdout, "%s Settings file already exists: %s\n", WarningStyle.Render("!"), path)
		return nil
	}
	fmt.Fprintf(app.stdout, "%s Created settings file: %s\n", SuccessStyle.Render("✓"), path)
	return nil
}
