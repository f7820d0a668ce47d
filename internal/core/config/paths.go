package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

type ResolvedPaths struct {
	ProjectRoot string
	GraphJSON   string
	DOT         string
	DBPath      string
}

// ResolvePaths anchors the configured paths. The project root is resolved
// against base (normally the config file's directory); outputs against the
// project root.
func ResolvePaths(cfg *Config, base string) (ResolvedPaths, error) {
	if strings.TrimSpace(base) == "" {
		return ResolvedPaths{}, fmt.Errorf("base directory must not be empty")
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return ResolvedPaths{}, err
	}

	root := ResolveRelative(abs, cfg.Paths.ProjectRoot)
	resolved := ResolvedPaths{
		ProjectRoot: root,
		GraphJSON:   ResolveRelative(root, cfg.Output.GraphJSON),
		DBPath:      ResolveRelative(root, cfg.DB.Path),
	}
	if strings.TrimSpace(cfg.Output.DOT) != "" {
		resolved.DOT = ResolveRelative(root, cfg.Output.DOT)
	}
	return resolved, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}
