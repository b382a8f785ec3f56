package logging

import (
	"io"
	"log/slog"
	"strings"
)

// ParseLevel maps a LOG_LEVEL value such as "debug" or "WARN" to a slog
// level. Empty or unknown values give info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewJSONHandler writes records at or above level to w as JSON lines.
func NewJSONHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}

// Setup installs a JSON logger on w as the slog default.
func Setup(w io.Writer, level slog.Level) {
	slog.SetDefault(slog.New(NewJSONHandler(w, level)))
}
