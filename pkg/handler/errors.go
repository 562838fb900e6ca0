// SPDX-License-Identifier: MPL-2.0

package handler

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingConfig is the sentinel error wrapped by MissingConfigError.
	ErrMissingConfig = errors.New("handler config not found")
	// ErrInvalidConfig is the sentinel error wrapped by ConfigParseError.
	ErrInvalidConfig = errors.New("invalid config file")
)

type (
	// MissingConfigError is returned when a handler's config file does not
	// exist. No handler can be built without it.
	MissingConfigError struct {
		Path string
	}

	// ConfigParseError is returned when a handler or module config file cannot
	// be read or does not hold a JSON object.
	ConfigParseError struct {
		Path string
		Err  error
	}
)

// Error implements the error interface for MissingConfigError.
func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("handler config %s does not exist", e.Path)
}

// Unwrap returns ErrMissingConfig for errors.Is() compatibility.
func (e *MissingConfigError) Unwrap() error { return ErrMissingConfig }

// Error implements the error interface for ConfigParseError.
func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("invalid config file %s: %v", e.Path, e.Err)
}

// Unwrap returns both ErrInvalidConfig and the underlying cause.
func (e *ConfigParseError) Unwrap() []error { return []error{ErrInvalidConfig, e.Err} }
