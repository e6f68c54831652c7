// Package cache defines the disk-backed store for remote module sources.
// Each entry lives at <dir>/<hex md5 of the specifier>.js and holds the
// already transpiled JavaScript with no header or metadata. The store exposes
// read/write primitives with safe semantics (temp file + rename) and creates
// its directory lazily on the first write. Entries never expire; the loader
// treats a present file as authoritative.
package cache
