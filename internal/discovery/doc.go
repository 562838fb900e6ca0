// SPDX-License-Identifier: MPL-2.0

// Package discovery enumerates the handle modules of a handler directory.
//
// Two modes are mutually exclusive:
//   - the module directory exists: each immediate child becomes one module,
//     directories by base name and files by base name without extension;
//   - the module directory is absent: a single implicit module stands in for
//     the handler's own entry file (index.js or index.json).
//
// Module order follows the Lister. The default GlobLister returns entries in
// lexical order, so repeated runs on an unchanged tree agree.
//
// File organization:
//   - discovery.go: Discoverer, Overrides and the two discovery modes
//   - lister.go: the Lister seam and its doublestar-backed implementation
//   - errors.go: fatal discovery errors
package discovery
