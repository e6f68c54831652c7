// Package transpile decides whether a module needs TypeScript stripping and
// performs it.
//
// The decision is made from the file extension for local modules and from
// the response content type for remote ones. Two backends strip types without
// checking them: esbuild (default) and the TypeScript compiler running inside
// goja. Output stays an ES module; the engine lowers it when linking.
package transpile
