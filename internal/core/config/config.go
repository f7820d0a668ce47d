package config

import (
	"strings"
	"time"
)

const DefaultFile = "jsdeps.toml"

type Config struct {
	Version       int           `toml:"version"`
	Paths         Paths         `toml:"paths"`
	Scan          Scan          `toml:"scan"`
	Languages     Languages     `toml:"languages"`
	Resolver      Resolver      `toml:"resolver"`
	Graph         Graph         `toml:"graph"`
	Output        Output        `toml:"output"`
	DB            Database      `toml:"db"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Paths struct {
	ProjectRoot string `toml:"project_root"`
}

type Scan struct {
	ExcludeDirs  []string `toml:"exclude_dirs"`
	ExcludeFiles []string `toml:"exclude_files"`
	Workers      int      `toml:"workers"`
	MaxFileBytes int64    `toml:"max_file_bytes"`
	MaxNesting   int      `toml:"max_nesting"`
}

type Languages struct {
	Extensions    []string `toml:"extensions"`
	JSXExtensions []string `toml:"jsx_extensions"`
}

type Resolver struct {
	Extensions []string          `toml:"extensions"`
	IndexFiles []string          `toml:"index_files"`
	Aliases    map[string]string `toml:"aliases"`
	CacheSize  int               `toml:"cache_size"`
	Workspaces *bool             `toml:"workspaces"`
}

type Graph struct {
	IncludeTypeOnly *bool `toml:"include_type_only"`
	IncludeDynamic  *bool `toml:"include_dynamic"`
}

type Output struct {
	GraphJSON string `toml:"graph_json"`
	DOT       string `toml:"dot"`
}

type Database struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	ProjectKey  string        `toml:"project_key"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
	Keep        int           `toml:"keep"`
}

type Watch struct {
	Debounce             time.Duration `toml:"debounce"`
	MaxRebuildsPerSecond float64       `toml:"max_rebuilds_per_second"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	Address       string `toml:"address"`
	EnableTracing bool   `toml:"enable_tracing"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	ServiceName   string `toml:"service_name"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// IsSourceFile reports whether a file name carries one of the scanned extensions.
func (c *Config) IsSourceFile(name string) bool {
	return hasAnySuffix(name, c.Languages.Extensions)
}

// JSXEnabled reports whether JSX syntax is permitted for the given file.
func (c *Config) JSXEnabled(name string) bool {
	return hasAnySuffix(name, c.Languages.JSXExtensions)
}

func (c *Config) IncludeTypeOnly() bool {
	return boolOr(c.Graph.IncludeTypeOnly, true)
}

func (c *Config) IncludeDynamic() bool {
	return boolOr(c.Graph.IncludeDynamic, true)
}

func (c *Config) WorkspacesEnabled() bool {
	return boolOr(c.Resolver.Workspaces, true)
}

func hasAnySuffix(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
