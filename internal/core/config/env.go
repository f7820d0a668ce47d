package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: JSDEPS_[KEY] (e.g., JSDEPS_WORKERS).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Paths.ProjectRoot, "JSDEPS_ROOT")
	setEnvInt(&cfg.Scan.Workers, "JSDEPS_WORKERS")

	setEnvString(&cfg.Output.GraphJSON, "JSDEPS_GRAPH_JSON")
	setEnvString(&cfg.Output.DOT, "JSDEPS_DOT")

	setEnvBool(&cfg.DB.Enabled, "JSDEPS_DB_ENABLED")
	setEnvString(&cfg.DB.Path, "JSDEPS_DB_PATH")
	setEnvString(&cfg.DB.ProjectKey, "JSDEPS_DB_PROJECT_KEY")
	setEnvInt(&cfg.DB.Keep, "JSDEPS_DB_KEEP")

	setEnvDuration(&cfg.Watch.Debounce, "JSDEPS_WATCH_DEBOUNCE")

	setEnvBool(&cfg.Observability.Enabled, "JSDEPS_METRICS_ENABLED")
	setEnvString(&cfg.Observability.Address, "JSDEPS_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "JSDEPS_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.EnableTracing, "JSDEPS_TRACING_ENABLED")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(val)))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(val)); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
