// Package launcher writes Contents/MacOS/<name>, the bash entry point macOS
// runs when the bundle is opened. It starts the bundled interpreter on the
// application's console script.
package launcher
