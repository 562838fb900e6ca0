// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/handlerpack/handlerpack/pkg/handler"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatTOML = "toml"
)

type inspectFlagValues struct {
	sourceFlagValues
	format string
}

func newInspectCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &inspectFlagValues{}

	inspectCmd := &cobra.Command{
		Use:   "inspect <source-dir>",
		Short: "Show the finalized manifest of a handler",
		Long: `Show the finalized manifest of a handler without building it.

The manifest lists the merged handler config, every discovered module in
discovery order and the active module.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), app, rootFlags, flags, args[0])
		},
	}

	flags.registerInputs(inspectCmd)
	inspectCmd.Flags().StringVarP(&flags.format, "format", "f", formatText, "output format: text, json or toml")

	return inspectCmd
}

func runInspect(ctx context.Context, app *App, rootFlags *rootFlagValues, flags *inspectFlagValues, src string) error {
	switch flags.format {
	case formatText, formatJSON, formatTOML:
	default:
		return usageError(fmt.Errorf("unknown format %q (want %s, %s or %s)", flags.format, formatText, formatJSON, formatTOML))
	}

	fail := func(err error) error {
		return app.fail(err, rootFlags.verbose, "inspect handler", src)
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
	plan, err := b.Plan(ctx, src, opts)
	if err != nil {
		return fail(err)
	}

	switch flags.format {
	case formatJSON:
		err = writeJSON(app.stdout, plan.Manifest)
	case formatTOML:
		err = writeTOML(app.stdout, plan.Manifest)
	default:
		writeText(app.stdout, plan.Manifest, plan.ConfigPath)
	}
	if err != nil {
		return fail(err)
	}
	return nil
}

func writeJSON(w io.Writer, m handler.Manifest) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m.Record()); err != nil {
		return fmt.Errorf("encode manifest as JSON: %w", err)
	}
	return nil
}

func writeTOML(w io.Writer, m handler.Manifest) error {
	// TOML has no null; drop nil values instead of failing.
	record, _ := dropNil(m.Record()).(map[string]any)
	enc := toml.NewEncoder(w)
	if err := enc.Encode(record); err != nil {
		return fmt.Errorf("encode manifest as TOML: %w", err)
	}
	return nil
}

func dropNil(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if item == nil {
				continue
			}
			out[k] = dropNil(item)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(val))
		for i, item := range val {
			out[i], _ = dropNil(item).(map[string]any)
		}
		return out
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			if item != nil {
				out = append(out, dropNil(item))
			}
		}
		return out
	default:
		return v
	}
}

func writeText(w io.Writer, m handler.Manifest, configPath string) {
	fmt.Fprintf(w, "%s %s\n", TitleStyle.Render("Handler"), m.Name)
	fmt.Fprintf(w, "%s: %s\n\n", KeyStyle.Render("Config file"), configPath)

	fmt.Fprintln(w, TitleStyle.Render("Modules"))
	if len(m.Modules) == 0 {
		fmt.Fprintln(w, SubtitleStyle.Render("  (none)"))
	}
	for _, mod := range m.Modules {
		marker := "  "
		name := KeyStyle.Render(mod.Name)
		if mod.Name == m.ActiveModule {
			marker = activeStyle.Render("* ")
			name = activeStyle.Render(mod.Name)
		}
		fmt.Fprintf(w, "%s%s %s %s\n", marker, name, SubtitleStyle.Render("("+mod.Kind.String()+")"), mod.Path)
		if mod.HasConfig() {
			fmt.Fprintf(w, "    %s %s\n", SubtitleStyle.Render("config:"), mod.ConfigPath)
		}
		if mod.Description != "" {
			fmt.Fprintf(w, "    %s %s\n", SubtitleStyle.Render("description:"), mod.Description)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s: %s\n\n", KeyStyle.Render("Active module"), m.ActiveModule)

	fmt.Fprintln(w, TitleStyle.Render("Config"))
	keys := maps.Keys(m.Config)
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %s\n", KeyStyle.Render(k), formatValue(m.Config[k]))
	}
}

func formatValue(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}
