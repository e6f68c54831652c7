// Package loader coordinates module loads for the engine.
//
// The engine calls Resolve synchronously while walking its module graph and
// Load once per distinct specifier. Load returns immediately; a goroutine
// walks the state machine (classify, cache lookup, fetch, transpile, cache
// write) and hands the finished record, or the first error, to a single-use
// Completion. Remote results are cached on disk and served from there on
// later loads without touching the network.
package loader
