package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup installs a JSON logger on stdout at INFO and returns its handler so
// it can be combined with other sinks later.
func Setup() slog.Handler {
	handler := newJSONHandler(os.Stdout)
	slog.SetDefault(slog.New(handler))
	return handler
}

func newJSONHandler(w io.Writer) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
}
