// SPDX-License-Identifier: MPL-2.0

// Package config loads handlerpack's own settings using Viper with CUE as the
// file format.
//
// Settings are read from the file given with --config, else from
// {ConfigDir}/config.cue (XDG on Linux, ~/Library/Application Support on
// macOS, %APPDATA% on Windows), else from ./handlerpack.cue, else defaults
// apply. Files are validated against the embedded config_schema.cue and
// HANDLERPACK_<SECTION>_<KEY> environment variables override file values.
//
// The settings describe conventions only (handler layout, output names,
// transform target, logging). Handler configuration itself lives in each
// handler's config.json and is handled by pkg/handler.
package config
