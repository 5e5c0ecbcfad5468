// Package prompt provides yes/no confirmation policies.
//
// Services never read standard input directly: they receive a Policy, which
// is either Yes (no-confirm mode and tests) or a Terminal prompt.
package prompt
