// Package receipt stores a YAML summary of the last build of each application
// in the build path, so repeated builds can report what changed.
package receipt
