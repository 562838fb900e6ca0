// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues holds the persistent flags shared by every command.
type rootFlagValues struct {
	configPath string
	verbose    bool
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootFlags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "handlerpack",
		Short: "Bundle handle modules into a single handler entry point",
		Long: TitleStyle.Render("handlerpack") + SubtitleStyle.Render(" - Bundle handle modules into a single handler entry point") + `

handlerpack reads a handler source directory, discovers its handle
modules, writes an aggregation module exporting all of them and mirrors
the transpiled source tree into a destination directory.

` + SubtitleStyle.Render("Examples:") + `
  handlerpack build ./handler ./dist     Build a handler
  handlerpack inspect ./handler          Show the discovered modules
  handlerpack render ./handler           Print the aggregation source
  handlerpack config show                Show current settings`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&rootFlags.configPath, "config", "", "settings file (default is $XDG_CONFIG_HOME/handlerpack/config.cue)")
	rootCmd.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false, "show the full error chain on failure")
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	rootCmd.AddCommand(
		newBuildCommand(app, rootFlags),
		newInspectCommand(app, rootFlags),
		newRenderCommand(app, rootFlags),
		newConfigCommand(app, rootFlags),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the code of the failing command.
// This is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(ExitFailure)
	}

	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitFailure)
	}
}
