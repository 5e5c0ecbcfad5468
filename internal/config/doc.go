// Package config defines the settings of a bundling run and loads them from
// defaults, an optional YAML file, OSX_BUNDLER_* environment variables and
// command-line flags.
//
// Validate fills optional fields and rejects unsupported interpreter
// versions, unknown log levels and missing icon files.
package config
