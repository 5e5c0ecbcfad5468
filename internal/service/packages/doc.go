// Package packages creates the per-application conda environment and installs
// the application into it with pip.
package packages
