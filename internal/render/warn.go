package render

import (
	"context"
	"log/slog"
)

// Warn reports a construct that was dropped from the generated SQL.
// A nil logger falls back to slog.Default().
func Warn(logger *slog.Logger, msg string, args ...any) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Log(context.Background(), slog.LevelWarn, msg, args...)
}
