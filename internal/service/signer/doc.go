// Package signer applies a code signature to the finished bundle with codesign.
// Signing problems never fail the build.
package signer
