// Package toolchain wraps the external programs the bundler drives: the
// Miniconda installer, conda and pip, codesign and hdiutil.
//
// Each capability is a narrow interface returning a Result with the exit
// status and captured output. A non-nil error means the program could not be
// started at all; a nonzero exit is reported through Result so callers can
// decide whether it is fatal. Exec is the implementation used in production,
// tests substitute deterministic stubs.
package toolchain
