// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/handlerpack/handlerpack/internal/discovery"
	"github.com/handlerpack/handlerpack/internal/emit"
	"github.com/handlerpack/handlerpack/internal/issue"
	"github.com/handlerpack/handlerpack/internal/transpile"
	"github.com/handlerpack/handlerpack/pkg/handler"
)

// classifyError turns a failure of operation on resource into an actionable
// error linked to the issue catalog. Errors that already are actionable are
// returned unchanged.
func classifyError(err error, operation, resource string) *issue.ActionableError {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae
	}

	ec := issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource).
		Wrap(err)

	switch {
	case errors.Is(err, handler.ErrMissingConfig):
		ec.WithIssue(issue.HandlerConfigNotFoundId).WithSuggestions(
			`Create config.json in the source directory, e.g. {"name": "my-handler"}`,
			"Point --handler-config at a config file stored elsewhere",
		)
	case errors.Is(err, handler.ErrInvalidConfig):
		ec.WithIssue(issue.HandlerConfigInvalidId).
			WithSuggestion("Make sure the file holds a single JSON object")
	case errors.Is(err, discovery.ErrNoModules):
		ec.WithIssue(issue.NoModulesFoundId).WithSuggestions(
			"Add modules to the handle_modules directory",
			"Or provide an index.js or index.json entry file",
		)
	case errors.Is(err, discovery.ErrDuplicateModule):
		ec.WithIssue(issue.DuplicateModuleId).
			WithSuggestion("Rename one of the entries so every module name is unique")
	case errors.Is(err, discovery.ErrDiscoveryIO):
		ec.WithIssue(issue.ModuleDiscoveryFailedId).
			WithSuggestion("Check that the module directory exists and is readable")
	case errors.Is(err, emit.ErrDestinationIsSource):
		ec.WithIssue(issue.DestinationIsSourceId).
			WithSuggestion("Choose a destination directory other than the source directory")
	case errors.Is(err, transpile.ErrTransform):
		ec.WithIssue(issue.TransformFailedId).
			WithSuggestion("Fix the reported syntax errors or adjust transform.target in the settings")
	}

	return ec.Build()
}

// renderFailure prints the catalog entry linked to ae, if any, followed by
// the error and its suggestions.
func renderFailure(w io.Writer, ae *issue.ActionableError, verbose bool) {
	if ae.Issue != 0 {
		if entry := issue.Get(ae.Issue); entry != nil {
			rendered, err := entry.Render("dark")
			if err != nil {
				slog.Warn("failed to render issue catalog entry", "issueID", ae.Issue, "error", err)
			} else {
				fmt.Fprint(w, rendered)
			}
		}
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("Error:"), ae.Format(verbose))
}

// fail renders err and converts it into an ExitError carrying ExitFailure.
// Usage errors pass through untouched.
func (a *App) fail(err error, verbose bool, operation, resource string) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	ae := classifyError(err, operation, resource)
	renderFailure(a.stderr, ae, verbose)
	return &ExitError{Code: ExitFailure, Err: ae, Rendered: true}
}
