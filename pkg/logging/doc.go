// Package logging provides structured logging utilities for k8r.
//
// It wraps the standard library slog package with k8r defaults: JSON output
// to stderr, environment-based log level configuration (LOG_LEVEL), module
// and version context injection, and source location tracking for debug
// logs. Logging to stderr keeps stdout free for manifest output, which must
// stay parseable when --show-yaml is used.
//
// Typical setup in main:
//
//	logging.SetDefaultStructuredLogger("k8r", version)
//	slog.Info("job created", "name", name, "namespace", ns)
//
// Supported levels (case-insensitive): DEBUG, INFO (default), WARN, ERROR.
package logging
