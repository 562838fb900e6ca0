// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newRenderCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &sourceFlagValues{}

	renderCmd := &cobra.Command{
		Use:   "render <source-dir>",
		Short: "Print the aggregation source without building",
		Long: `Print the aggregation source a build would write to index.bak.

Nothing is written and no transformation runs, which makes render a dry
run of the emit stage.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), app, rootFlags, flags, args[0])
		},
	}

	flags.register(renderCmd)
	return renderCmd
}

func runRender(ctx context.Context, app *App, rootFlags *rootFlagValues, flags *sourceFlagValues, src string) error {
	fail := func(err error) error {
		return app.fail(err, rootFlags.verbose, "render handler", src)
	}

	s, err := app.newSession(ctx, rootFlags, false)
	if err != nil {
		return fail(err)
	}
	opts, err := flags.options()
	if err != nil {
		return fail(err)
	}
	b, err := app.newBuilder(s, nil)
	if err != nil {
		return fail(err)
	}

	source, err := b.Render(ctx, src, opts)
	if err != nil {
		return fail(err)
	}
	fmt.Fprint(app.stdout, source)
	if !strings.HasSuffix(source, "\n") {
		fmt.Fprintln(app.stdout)
	}
	return nil
}
