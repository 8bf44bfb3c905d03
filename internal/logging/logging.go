// Package logging configures the process-wide structured logger shared by
// every binary in the simulation.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger with a JSON handler, renaming the
// default keys to match common observability conventions.
func Init(logLevel, component string) {
	level := parseLevel(logLevel)

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				a.Key = "timestamp"
			case slog.LevelKey:
				a.Key = "level"
			case slog.MessageKey:
				a.Key = "message"
			}
			return a
		},
	})

	logger := slog.New(handler).With(slog.String("component", component))
	slog.SetDefault(logger)
}

func parseLevel(logLevel string) slog.Level {
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
