package logging

import "log/slog"

// EnableTrace turns on per-tag and per-field logs that are too noisy for DEBUG.
var EnableTrace = false

// Trace logs at DEBUG level, but only if EnableTrace is true.
func Trace(logger *slog.Logger, msg string, args ...any) {
	if EnableTrace {
		logger.Debug(msg, args...)
	}
}
