package logger

import (
	"io"
	"log/slog"
	"os"
)

// InitJSONLogger configures and sets the default slog logger to use JSON format.
// Debug mode lowers the level to DEBUG so SQL and request details are visible.
func InitJSONLogger(debug bool) {
	slog.SetDefault(slog.New(newJSONHandler(os.Stdout, debug)))
}

func newJSONHandler(w io.Writer, debug bool) slog.Handler {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
}
