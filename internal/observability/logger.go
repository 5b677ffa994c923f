package observability

import (
	"log/slog"
	"os"
	"time"

	"github.com/hygrolab/humidity-service/internal/config"
	"github.com/lmittmann/tint"
)

const serviceName = "humidity-service"

// NewLogger builds the service logger from config. LOG_FORMAT=text selects
// a tint handler for local development; anything else logs JSON.
func NewLogger(cfg *config.Config) *slog.Logger {
	level := parseLevel(cfg.LogLevel)

	if cfg.LogFormat == "text" {
		h := tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			AddSource:  true,
			TimeFormat: time.Kitchen,
		})
		return slog.New(h).With("service", serviceName)
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("service", serviceName)
}

// parseLevel maps a config string onto a slog level, defaulting to info.
func parseLevel(s string) slog.Level {
	switch s {
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
