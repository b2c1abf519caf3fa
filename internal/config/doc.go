// Package config owns the TOML configuration for inline-resize.
//
// Load resolves the file (explicit path, ./inline-resize.toml, then
// ~/.config/inline-resize/config.toml), layers it over Default, normalizes
// paths and extensions, and validates the result. CreateSample writes an
// annotated starting point.
package config
