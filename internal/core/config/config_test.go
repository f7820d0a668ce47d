package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
version = 1

[paths]
project_root = "web"

[scan]
exclude_dirs = ["node_modules", "vendor/**"]
exclude_files = ["*.gen.ts"]
workers = 3

[resolver]
aliases = { "@/" = "src/" }

[graph]
include_type_only = false

[output]
graph_json = "out/graph.json"
dot = "out/graph.dot"

[watch]
debounce = "1s"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Paths.ProjectRoot != "web" {
		t.Errorf("project root = %q", cfg.Paths.ProjectRoot)
	}
	if cfg.Scan.Workers != 3 {
		t.Errorf("workers = %d", cfg.Scan.Workers)
	}
	if len(cfg.Scan.ExcludeFiles) != 1 || cfg.Scan.ExcludeFiles[0] != "*.gen.ts" {
		t.Errorf("exclude files = %v", cfg.Scan.ExcludeFiles)
	}
	if cfg.Resolver.Aliases["@/"] != "src/" {
		t.Errorf("aliases = %v", cfg.Resolver.Aliases)
	}
	if cfg.IncludeTypeOnly() {
		t.Error("expected include_type_only=false")
	}
	if !cfg.IncludeDynamic() {
		t.Error("expected include_dynamic default true")
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("debounce = %v", cfg.Watch.Debounce)
	}
	if len(cfg.Resolver.Extensions) == 0 || cfg.Resolver.Extensions[0] != ".ts" {
		t.Errorf("resolver extension defaults not applied: %v", cfg.Resolver.Extensions)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad version", "version = 7\n", "unsupported config version"},
		{"negative workers", "[scan]\nworkers = -1\n", "scan.workers"},
		{"bad extension", "[languages]\nextensions = [\"js\"]\n", "must start with '.'"},
		{"relative alias", "[resolver]\naliases = { \"./x\" = \"src\" }\n", "must not be relative"},
		{"bad glob", "[scan]\nexclude_dirs = [\"[abc\"]\n", "invalid exclude pattern"},
		{"index with slash", "[resolver]\nindex_files = [\"lib/index.js\"]\n", "bare file name"},
		{"negative keep", "[db]\nkeep = -1\n", "db.keep"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.toml")

	cfg, err := LoadOrDefault(missing, true)
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if cfg.Output.GraphJSON != "jsdeps-graph.json" {
		t.Errorf("graph json default = %q", cfg.Output.GraphJSON)
	}

	if _, err := LoadOrDefault(missing, false); err == nil {
		t.Fatal("expected error for explicit missing config")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("JSDEPS_WORKERS", "9")
	t.Setenv("JSDEPS_DB_ENABLED", "true")
	t.Setenv("JSDEPS_WATCH_DEBOUNCE", "250ms")
	t.Setenv("JSDEPS_GRAPH_JSON", "custom.json")
	t.Setenv("JSDEPS_DB_KEEP", "3")

	cfg := DefaultConfig()
	ApplyEnvOverrides(cfg)

	if cfg.Scan.Workers != 9 {
		t.Errorf("workers = %d", cfg.Scan.Workers)
	}
	if !cfg.DB.Enabled {
		t.Error("expected db enabled")
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("debounce = %v", cfg.Watch.Debounce)
	}
	if cfg.Output.GraphJSON != "custom.json" {
		t.Errorf("graph json = %q", cfg.Output.GraphJSON)
	}
	if cfg.DB.Keep != 3 {
		t.Errorf("keep = %d", cfg.DB.Keep)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("JSDEPS_TEST_DOTENV_KEY=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("JSDEPS_TEST_DOTENV_KEY") })

	if err := LoadDotEnv(envFile); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("JSDEPS_TEST_DOTENV_KEY"); got != "from-file" {
		t.Errorf("env value = %q", got)
	}
	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing env file should be ignored, got %v", err)
	}
}

func TestFileClassification(t *testing.T) {
	cfg := DefaultConfig()
	cases := []struct {
		name   string
		source bool
		jsx    bool
	}{
		{"src/App.tsx", true, true},
		{"src/util.ts", true, false},
		{"src/legacy.js", true, true},
		{"README.md", false, false},
		{"src/types.MTS", true, false},
	}
	for _, c := range cases {
		if got := cfg.IsSourceFile(c.name); got != c.source {
			t.Errorf("IsSourceFile(%q) = %v", c.name, got)
		}
		if got := cfg.JSXEnabled(c.name); got != c.jsx {
			t.Errorf("JSXEnabled(%q) = %v", c.name, got)
		}
	}
}

func TestResolvePaths(t *testing.T) {
	base := t.TempDir()
	cfg := DefaultConfig()
	cfg.Paths.ProjectRoot = "app"
	cfg.Output.DOT = "graph.dot"

	paths, err := ResolvePaths(cfg, base)
	if err != nil {
		t.Fatalf("ResolvePaths: %v", err)
	}
	root := filepath.Join(base, "app")
	if paths.ProjectRoot != root {
		t.Errorf("project root = %q", paths.ProjectRoot)
	}
	if paths.GraphJSON != filepath.Join(root, "jsdeps-graph.json") {
		t.Errorf("graph json = %q", paths.GraphJSON)
	}
	if paths.DOT != filepath.Join(root, "graph.dot") {
		t.Errorf("dot = %q", paths.DOT)
	}
	if paths.DBPath != filepath.Join(root, "data", "jsdeps.db") {
		t.Errorf("db = %q", paths.DBPath)
	}

	if _, err := ResolvePaths(cfg, " "); err == nil {
		t.Error("expected error for empty base")
	}
}
