// Package logging builds the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
)

// Common attribute keys.
const (
	FieldComponent = "component"
	FieldError     = "error"
)

// New returns a JSON logger when format is "json" and a text logger otherwise.
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

// Component returns logger tagged with the component attribute.
func Component(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}

	return logger.With(FieldComponent, name)
}
