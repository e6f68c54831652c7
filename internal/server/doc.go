// Package server hosts the Fiber diagnostics service started by `tanxium -serve`.
// NewApp builds the application with panic recovery, request ids and access
// logging; the routes subpackage attaches the /-/ endpoints that expose the
// scheme registry, the module cache, specifier resolution, transpilation and
// Prometheus metrics. Keep exports narrow and accept explicit dependencies so
// tests can assemble an app without a running engine.
package server
