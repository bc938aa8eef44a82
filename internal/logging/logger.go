// Package logging builds the application's slog.Logger.
package logging

import (
	"io"
	"log/slog"
	"net/http"
	"os"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// New returns a logger writing to stdout at the given level ("debug",
// "info", "warn", "error") in the given format ("text" or "json").
// Unknown values fall back to info and text; config.Load rejects them first.
func New(level, format string) *slog.Logger {
	return NewWithWriter(os.Stdout, level, format)
}

// NewWithWriter is New with a custom destination.
func NewWithWriter(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FromRequest returns logger tagged with the request ID that chi's RequestID
// middleware assigned, so every line about one request can be grepped
// together. Without a request ID the logger is returned unchanged.
func FromRequest(logger *slog.Logger, r *http.Request) *slog.Logger {
	if id := chimiddleware.GetReqID(r.Context()); id != "" {
		return logger.With(slog.String("requestID", id))
	}
	return logger
}
