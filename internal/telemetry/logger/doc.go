// Package logger provides structured logging for zakopane.
//
// It wraps log/slog behind a small Logger interface:
//
//   - logger.go: configuration, construction and the process-wide default
//   - attrs.go: attribute rewriting applied by every handler
//   - context.go: context propagation of the logger and the run ID
//
// Commands log to stderr so that stdout stays reserved for results.
package logger
