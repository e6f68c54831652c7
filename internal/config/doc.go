// Package config loads the runtime configuration from an optional TOML file,
// environment variables (TANXIUM_*) and built-in defaults, then validates it.
package config
