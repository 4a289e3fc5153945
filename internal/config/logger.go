package config

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger は LOG_LEVEL と LOG_FORMAT に従った slog.Logger を生成するのだ。
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// SetupLogger は設定からロガーを生成し、デフォルトに登録するのだ。
func SetupLogger(w io.Writer, cfg *Config) {
	slog.SetDefault(NewLogger(w, cfg.LogLevel, cfg.LogFormat))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
