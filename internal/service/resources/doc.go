// Package resources fills Contents/Resources of a bundle: the environment
// contents, filtered by exclude patterns after the copy, and the icon.
//
// Exclude patterns are relative to Contents/Resources and use slashes.
// Besides the usual *, ? and [...] they accept ** for any number of folders,
// e.g. "lib/**/tests".
package resources
