// Package bundle describes the fixed on-disk layout of a macOS application
// bundle and the artefacts derived from it.
//
// A Bundle is only a path; every helper computes locations inside it so that
// the manifest, the launcher and the archiver agree on the same layout.
package bundle
