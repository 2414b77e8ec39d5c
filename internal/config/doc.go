// Package config loads, normalizes, and validates Clipforge configuration.
//
// Configuration comes from a TOML file (default ~/.config/clipforge/config.toml,
// or ./clipforge.toml for project-local setups) merged over built-in defaults,
// with environment-variable overrides for secrets. All path fields are expanded
// to absolute paths before the config is handed to other packages, so consumers
// never deal with "~" or relative segments.
package config
