package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a logger writing to stdout that tags every record with the
// service name and host. format is "json" or "text"; level is one of debug,
// info, warn, error.
func New(service, level, format string) *slog.Logger {
	return NewWithWriter(os.Stdout, service, level, format)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, service, level, format string) *slog.Logger {
	hostname, _ := os.Hostname()
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var h slog.Handler
	if strings.EqualFold(format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h).With(
		slog.String("service", service),
		slog.String("hostname", hostname),
	)
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
