// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoModules is the sentinel error wrapped by NoModulesFoundError.
	ErrNoModules = errors.New("no handle modules found")
	// ErrDiscoveryIO is the sentinel error wrapped by DiscoveryIOError.
	ErrDiscoveryIO = errors.New("module discovery failed")
	// ErrDuplicateModule is the sentinel error wrapped by DuplicateModuleError.
	ErrDuplicateModule = errors.New("duplicate module name")
)

type (
	// NoModulesFoundError is returned when the handler has neither a module
	// directory nor any of the fallback entry files.
	NoModulesFoundError struct {
		// ModuleDir is the module directory that was looked for.
		ModuleDir string
		// Candidates are the fallback entry files that were tried.
		Candidates []string
	}

	// DiscoveryIOError is returned when listing the module directory fails.
	// No partial module list accompanies it.
	DiscoveryIOError struct {
		Dir string
		Err error
	}

	// DuplicateModuleError is returned when two entries of the module
	// directory derive the same module name (e.g. "foo/" and "foo.js").
	DuplicateModuleError struct {
		Name   string
		First  string
		Second string
	}
)

// Error implements the error interface for NoModulesFoundError.
func (e *NoModulesFoundError) Error() string {
	return fmt.Sprintf("no handle modules: %s does not exist and none of [%s] was found",
		e.ModuleDir, strings.Join(e.Candidates, ", "))
}

// Unwrap returns ErrNoModules for errors.Is() compatibility.
func (e *NoModulesFoundError) Unwrap() error { return ErrNoModules }

// Error implements the error interface for DiscoveryIOError.
func (e *DiscoveryIOError) Error() string {
	return fmt.Sprintf("list handle modules in %s: %v", e.Dir, e.Err)
}

// Unwrap returns both ErrDiscoveryIO and the underlying cause.
func (e *DiscoveryIOError) Unwrap() []error { return []error{ErrDiscoveryIO, e.Err} }

// Error implements the error interface for DuplicateModuleError.
func (e *DuplicateModuleError) Error() string {
	return fmt.Sprintf("module name %q derived from both:\n  - %s\n  - %s", e.Name, e.First, e.Second)
}

// Unwrap returns ErrDuplicateModule for errors.Is() compatibility.
func (e *DuplicateModuleError) Unwrap() error { return ErrDuplicateModule }
