package app

import (
	"fmt"
	"io"
	"log/slog"
)

// parseLogLevel maps a configuration level name to a slog.Level. An
// empty name means info. NewConfig calls this during validation so a
// bad level is rejected before a run starts.
func parseLogLevel(name string) (slog.Level, error) {
	switch name {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", name)
	}
}

// newLogger creates and configures a new slog.Logger instance. It does
// not set the global logger, allowing for isolated logger instances.
func newLogger(level slog.Level, formatStr string, outW io.Writer) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler

	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}

	return slog.New(handler)
}
