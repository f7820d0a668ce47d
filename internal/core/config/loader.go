package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads path, falling back to DefaultConfig when the file does
// not exist and missingOK is set.
func LoadOrDefault(path string, missingOK bool) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if missingOK && errors.Is(err, fs.ErrNotExist) {
		slog.Debug("config file not found, using defaults", "path", path)
		cfg = DefaultConfig()
		ApplyEnvOverrides(cfg)
		if err := Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return nil, err
}

// LoadDotEnv loads KEY=VALUE pairs from a .env file into the process
// environment without overriding variables that are already set.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	slog.Debug("loaded environment file", "path", path)
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.Paths.ProjectRoot) == "" {
		cfg.Paths.ProjectRoot = "."
	}

	if cfg.Scan.ExcludeDirs == nil {
		cfg.Scan.ExcludeDirs = []string{"node_modules", ".git", "dist", "build", "coverage"}
	}
	if cfg.Scan.ExcludeFiles == nil {
		cfg.Scan.ExcludeFiles = []string{"*.min.js"}
	}
	if cfg.Scan.MaxFileBytes <= 0 {
		cfg.Scan.MaxFileBytes = 4 << 20
	}
	if cfg.Scan.MaxNesting <= 0 {
		cfg.Scan.MaxNesting = 512
	}

	if len(cfg.Languages.Extensions) == 0 {
		cfg.Languages.Extensions = []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs", ".mts", ".cts"}
	}
	if cfg.Languages.JSXExtensions == nil {
		cfg.Languages.JSXExtensions = []string{".js", ".jsx", ".tsx", ".mjs", ".cjs"}
	}

	if len(cfg.Resolver.Extensions) == 0 {
		cfg.Resolver.Extensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".mts", ".cts", ".json"}
	}
	if len(cfg.Resolver.IndexFiles) == 0 {
		cfg.Resolver.IndexFiles = []string{"index.ts", "index.tsx", "index.js", "index.jsx", "index.mjs", "index.cjs"}
	}
	if cfg.Resolver.CacheSize <= 0 {
		cfg.Resolver.CacheSize = 4096
	}

	if strings.TrimSpace(cfg.Output.GraphJSON) == "" {
		cfg.Output.GraphJSON = "jsdeps-graph.json"
	}

	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = "data/jsdeps.db"
	}
	if strings.TrimSpace(cfg.DB.ProjectKey) == "" {
		cfg.DB.ProjectKey = "default"
	}
	if cfg.DB.Keep == 0 {
		cfg.DB.Keep = 20
	}
	if cfg.DB.BusyTimeout <= 0 {
		cfg.DB.BusyTimeout = 5 * time.Second
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MaxRebuildsPerSecond <= 0 {
		cfg.Watch.MaxRebuildsPerSecond = 1
	}

	if strings.TrimSpace(cfg.Observability.Address) == "" {
		cfg.Observability.Address = "127.0.0.1:9464"
	}
	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "jsdeps"
	}
}
