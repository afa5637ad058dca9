package config

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger returns a slog.Logger for the configured environment.
// Production uses the JSON handler, everything else the text handler.
// LogLevel may be debug, info, warn or error; anything else means info.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Environment == "production" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
