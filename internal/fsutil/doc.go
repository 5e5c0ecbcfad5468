// Package fsutil provides file system helpers shared by the pipeline steps:
// path expansion, existence checks, and copies that keep symbolic links as
// links instead of following them.
package fsutil
