// Package metadata renders Contents/Info.plist from a template with literal
// {{ token }} substitution. The default template is compiled into the binary.
package metadata
