// Package logger builds the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
)

// New returns a logger for env writing to w.
//
//	prod     JSON, INFO and above
//	staging  JSON, DEBUG and above
//	dev      text, DEBUG and above (also used for unknown values)
func New(env string, w io.Writer) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case "staging":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
