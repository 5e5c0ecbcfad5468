// Package bundle creates the empty <name>.app skeleton in the distribution path.
package bundle
