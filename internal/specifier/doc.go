// Package specifier classifies raw import strings into module categories.
//
// A raw specifier is joined against its referrer with URL semantics, matched
// against the scheme registry and, for local paths, checked on disk. Directory
// imports are expanded into their index file before the category is returned,
// so every successful classification names a concrete file or URL.
package specifier
