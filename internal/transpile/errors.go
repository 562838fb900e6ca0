// SPDX-License-Identifier: MPL-2.0

package transpile

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransform is the sentinel error wrapped by TransformError.
	ErrTransform = errors.New("transform failed")
	// ErrInvalidTarget is returned when a target name is not supported.
	ErrInvalidTarget = errors.New("invalid transform target")
	// ErrInvalidFormat is returned when a module format name is not supported.
	ErrInvalidFormat = errors.New("invalid module format")
	// ErrInvalidExtension is returned when an extension cannot be transpiled.
	ErrInvalidExtension = errors.New("invalid transform extension")
	// ErrSameTree is returned when a tree would be mirrored onto itself.
	ErrSameTree = errors.New("source and destination are the same directory")
)

type (
	// TransformError is returned when transpiling text or a tree fails.
	TransformError struct {
		// File is the file being transformed, relative to the tree root when
		// known.
		File string
		// Messages holds the transpiler diagnostics, one per line.
		Messages []string
		// Err is the underlying I/O error, if any.
		Err error
	}

	// InvalidSettingError describes a rejected Settings field.
	InvalidSettingError struct {
		Field string
		Value string
		Err   error
		// Supported lists the accepted values, when the set is closed.
		Supported []string
	}
)

// Error implements the error interface.
func (e *TransformError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "transform %s", e.File)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	for _, m := range e.Messages {
		b.WriteString("\n  ")
		b.WriteString(m)
	}
	return b.String()
}

// Unwrap returns ErrTransform and the underlying error for errors.Is().
func (e *TransformError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransform}
	}
	return []error{ErrTransform, e.Err}
}

// Error implements the error interface.
func (e *InvalidSettingError) Error() string {
	msg := fmt.Sprintf("transform.%s: %v: %q", e.Field, e.Err, e.Value)
	if len(e.Supported) > 0 {
		msg += " (supported: " + strings.Join(e.Supported, ", ") + ")"
	}
	return msg
}

// Unwrap returns the sentinel for the rejected field.
func (e *InvalidSettingError) Unwrap() error { return e.Err }
