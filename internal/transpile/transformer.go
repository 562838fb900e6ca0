// SPDX-License-Identifier: MPL-2.0

package transpile

import "context"

type (
	// TextTransformer transpiles a single in-memory source text.
	TextTransformer interface {
		// TransformText returns source converted to the configured output.
		// filename selects the loader and appears in diagnostics.
		TransformText(ctx context.Context, filename, source string) (string, error)
	}

	// TreeTransformer mirrors a source tree into a destination tree,
	// transpiling what it can.
	TreeTransformer interface {
		TransformTree(ctx context.Context, src, dest string, opts TreeOptions) error
	}

	// Transformer is implemented by transpilers that serve both roles.
	Transformer interface {
		TextTransformer
		TreeTransformer
	}

	// TreeOptions adjusts a single TransformTree call. All paths are
	// slash-separated and relative to the tree roots.
	TreeOptions struct {
		// Debug enables per-file debug logging.
		Debug bool
		// Exclude lists destination paths that must not be written, typically
		// files the emitter already produced.
		Exclude []string
		// Relocate maps a source path to the destination path it is written to.
		Relocate map[string]string
		// Ignore holds doublestar patterns for source paths to skip entirely.
		Ignore []string
	}
)
