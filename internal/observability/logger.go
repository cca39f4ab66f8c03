package observability

import (
	"context"
	"io"
	"log/slog"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// NewLoggerTo builds a text logger writing to w, for tools whose stdout is
// their output. The level is resolved by the shared service logger, so both
// accept the same LOG_LEVEL values. The result becomes the slog default.
func NewLoggerTo(w io.Writer, level string) *slog.Logger {
	shared := sharedobs.NewLogger(level, "text")
	lvl := slog.LevelError
	for _, l := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn} {
		if shared.Enabled(context.Background(), l) {
			lvl = l
			break
		}
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}
