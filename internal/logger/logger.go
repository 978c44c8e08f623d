package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns a JSON logger in production and a debug-level text logger
// everywhere else.
func New(env string) *slog.Logger {
	return newLogger(os.Stdout, env)
}

func newLogger(w io.Writer, env string) *slog.Logger {
	var h slog.Handler
	switch env {
	case "prod", "production":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(h).With("app", "hatsusound")
}
