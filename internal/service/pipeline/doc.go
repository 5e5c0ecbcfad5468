// Package pipeline runs the bundling steps in order: bundle folders, runtime,
// environment, resources, icon, manifest, launcher, signature and disk image.
//
// It also hosts the two alternate actions of the CLI: building a disk image
// from an existing bundle and removing everything a build produced.
package pipeline
