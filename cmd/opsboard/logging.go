package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"opsboard/internal/config"
)

const logLevelEnvKey = "OPSBOARD_LOG_LEVEL"

// configureLogger installs the default slog logger. The env var wins
// over the config file; an invalid level falls back to the default with
// a warning rather than failing startup.
func configureLogger(configLevel string) string {
	raw := strings.TrimSpace(os.Getenv(logLevelEnvKey))
	source := "env"
	if raw == "" {
		raw = strings.TrimSpace(configLevel)
		source = "config"
	}

	level, err := parseLogLevel(raw)
	if err != nil {
		level, _ = parseLogLevel(config.DefaultLogLevel)
		slog.SetDefault(newLogger(level))
		if source == "env" {
			return fmt.Sprintf("warning: invalid %s=%q; defaulting to %s", logLevelEnvKey, raw, config.DefaultLogLevel)
		}
		return fmt.Sprintf("warning: invalid log_level=%q; defaulting to %s", raw, config.DefaultLogLevel)
	}

	slog.SetDefault(newLogger(level))
	return ""
}

func parseLogLevel(raw string) (slog.Level, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		value = config.DefaultLogLevel
	}
	if strings.EqualFold(value, "warning") {
		value = "warn"
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
