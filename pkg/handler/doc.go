// SPDX-License-Identifier: MPL-2.0

// Package handler models a handler directory: its merged configuration, the
// handle modules discovered beneath it, and the finalized manifest that the
// emitter renders.
//
// Configuration is merged from three tiers, each replacing top-level keys of
// the previous one: built-in defaults, an optional cached record, and the
// handler's config.json. Finalize is pure and resolves the active module.
package handler
