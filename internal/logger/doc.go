// Package logger wraps zap for the bundler.
//
// Services take a context and log through it; WithName and WithKV decorate
// the logger a context carries, and contexts without one fall back to a
// global console logger on stderr whose level follows --log-level.
package logger
