// SPDX-License-Identifier: MPL-2.0

// Package transpile converts generated aggregation source and handler source
// trees into the configured JavaScript target.
//
// TextTransformer and TreeTransformer are the seams used by the emitter and the
// build pipeline. ESBuild is the production implementation; it lowers syntax
// and converts module formats through esbuild's Transform API and copies every
// file it does not transpile byte for byte.
package transpile
