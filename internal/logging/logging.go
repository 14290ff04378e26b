// Package logging provides structured logging setup for devmate.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup initializes the default slog logger on stderr, leaving stdout to
// command output.
func Setup(devMode bool) {
	slog.SetDefault(slog.New(NewHandler(os.Stderr, devMode)))
}

// NewHandler returns the handler Setup installs, writing to w.
// Dev mode uses human-readable text at debug level; prod uses JSON at info.
func NewHandler(w io.Writer, devMode bool) slog.Handler {
	if devMode {
		return slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
}
