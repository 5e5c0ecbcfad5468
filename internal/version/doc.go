// Package version exposes build metadata for the bundler.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags. Short and Full render the version for CLI output and build
// receipts; UserAgent identifies the tool to download servers.
package version
