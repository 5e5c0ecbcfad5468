// Package integration runs whole bundling scenarios against real processes.
//
// The external programs are replaced by small bash scripts: a fake Miniconda
// installer served over HTTP lays down a conda script, which in turn creates
// python and pip scripts inside the environment.
package integration
