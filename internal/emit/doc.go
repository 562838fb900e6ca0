// SPDX-License-Identifier: MPL-2.0

// Package emit renders a finalized handler manifest into the aggregation
// source file and writes it, raw and transformed, into the destination tree.
//
// Render is pure and deterministic: the same manifest, source directory and
// options always produce byte-identical text. Emitter adds the disk writes and
// the text transform.
package emit
