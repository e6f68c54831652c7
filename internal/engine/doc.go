// Package engine embeds a goja JavaScript runtime driven by a goja_nodejs
// event loop and links ES modules supplied by the loader.
//
// goja evaluates scripts only, so every script module is lowered to a
// CommonJS wrapper with esbuild before evaluation. The graph builder issues
// one Load per distinct specifier, waits for all completions on the event
// loop, and evaluates nothing if any load fails. JSON modules export their
// parsed value and custom-typed modules (for example "text") export the raw
// source string.
package engine
