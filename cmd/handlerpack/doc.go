// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for handlerpack.
//
// This package implements the Cobra command hierarchy: build, inspect and
// render operate on a handler source directory, and config manages the
// tool's own settings. Commands receive an App holding their dependencies.
package cmd
