// SPDX-License-Identifier: MPL-2.0

package emit

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrDestinationIsSource is the sentinel error wrapped by DestinationError.
var ErrDestinationIsSource = errors.New("destination is the source directory")

// DestinationError is returned when a build would write its output over the
// source directory.
type DestinationError struct {
	Dir string
}

// Error implements the error interface.
func (e *DestinationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Dir, ErrDestinationIsSource)
}

// Unwrap returns ErrDestinationIsSource for errors.Is().
func (e *DestinationError) Unwrap() error { return ErrDestinationIsSource }

// CheckDestination rejects a destination that resolves to the source
// directory itself. A destination nested inside the source is allowed.
func CheckDestination(sourceDir, destDir string) error {
	absSource, err := filepath.Abs(sourceDir)
	if err != nil {
		return fmt.Errorf("resolve source directory: %w", err)
	}
	absDest, err := filepath.Abs(destDir)
	if err != nil {
		return fmt.Errorf("resolve destination: %w", err)
	}
	if absSource == absDest {
		return &DestinationError{Dir: absDest}
	}
	if a, errA := filepath.EvalSymlinks(absSource); errA == nil {
		if b, errB := filepath.EvalSymlinks(absDest); errB == nil && a == b {
			return &DestinationError{Dir: absDest}
		}
	}
	return nil
}
