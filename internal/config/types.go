// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/handlerpack/handlerpack/internal/emit"
	"github.com/handlerpack/handlerpack/internal/logging"
	"github.com/handlerpack/handlerpack/internal/transpile"
	"github.com/handlerpack/handlerpack/pkg/handler"
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidLayout is returned when a layout field is unusable.
	ErrInvalidLayout = errors.New("invalid layout")
	// ErrInvalidOutput is returned when an output field is unusable.
	ErrInvalidOutput = errors.New("invalid output settings")
	// ErrInvalidLoadOptions is the sentinel error wrapped by InvalidLoadOptionsError.
	ErrInvalidLoadOptions = errors.New("invalid load options")
)

type (
	// Config holds handlerpack's settings.
	Config struct {
		// Layout describes the handler directory conventions.
		Layout handler.Layout `json:"layout" mapstructure:"layout"`
		// Output names the generated files.
		Output emit.OutputSettings `json:"output" mapstructure:"output"`
		// Transform selects the transpile target.
		Transform transpile.Settings `json:"transform" mapstructure:"transform"`
		// Log configures diagnostic output.
		Log LogConfig `json:"log" mapstructure:"log"`
	}

	// LogConfig configures the logger built by the CLI.
	LogConfig struct {
		Level  string         `json:"level" mapstructure:"level"`
		Format logging.Format `json:"format" mapstructure:"format"`
	}

	// FieldError describes one rejected field.
	FieldError struct {
		// Field is the dotted settings key, e.g. "output.marker".
		Field string
		Value string
		Err   error
	}

	// InvalidConfigError collects every field error of a Config.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Layout:    handler.DefaultLayout(),
		Output:    emit.DefaultOutputSettings(),
		Transform: transpile.DefaultSettings(),
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatText,
		},
	}
}

// IsValid returns whether every field holds a usable value, with one error
// per rejected field.
func (c *Config) IsValid() (bool, []error) {
	var errs []error

	layout := map[string]string{
		"layout.handler_config":  c.Layout.HandlerConfigName,
		"layout.modules_dir":     c.Layout.ModulesDirName,
		"layout.module_config":   c.Layout.ModuleConfigName,
		"layout.implicit_module": c.Layout.ImplicitModuleName,
		"layout.target_field":    c.Layout.TargetField,
	}
	for _, field := range []string{
		"layout.handler_config", "layout.modules_dir", "layout.module_config",
		"layout.implicit_module", "layout.target_field",
	} {
		if strings.TrimSpace(layout[field]) == "" {
			errs = append(errs, &FieldError{Field: field, Value: layout[field], Err: ErrInvalidLayout})
		}
	}
	if len(c.Layout.FallbackEntries) == 0 {
		errs = append(errs, &FieldError{Field: "layout.fallback_entries", Err: ErrInvalidLayout})
	}

	if strings.TrimSpace(c.Output.Generated) == "" {
		errs = append(errs, &FieldError{Field: "output.generated", Value: c.Output.Generated, Err: ErrInvalidOutput})
	}
	if strings.TrimSpace(c.Output.Backup) == "" || c.Output.Backup == c.Output.Generated {
		errs = append(errs, &FieldError{Field: "output.backup", Value: c.Output.Backup, Err: ErrInvalidOutput})
	}
	if !emit.ValidMarker(c.Output.Marker) {
		errs = append(errs, &FieldError{Field: "output.marker", Value: c.Output.Marker, Err: ErrInvalidOutput})
	}

	if ok, transformErrs := c.Transform.IsValid(); !ok {
		errs = append(errs, transformErrs...)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "", logging.FormatText, logging.FormatJSON, logging.FormatLogfmt:
	default:
		errs = append(errs, &logging.InvalidFormatError{Value: c.Log.Format})
	}

	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for FieldError.
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v: %q", e.Field, e.Err, e.Value)
}

// Unwrap returns the field's sentinel error.
func (e *FieldError) Unwrap() error { return e.Err }

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %d field error(s): %s", len(e.FieldErrors), strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig and every field error, so errors.Is matches
// both the aggregate and the individual sentinels.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}
