package resolver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

type packageManifest struct {
	Name       string          `json:"name"`
	Main       string          `json:"main"`
	Module     string          `json:"module"`
	Types      string          `json:"types"`
	Source     string          `json:"source"`
	Workspaces json.RawMessage `json:"workspaces"`
}

type pnpmWorkspace struct {
	Packages []string `yaml:"packages"`
}

// Workspace is one monorepo package found under the project root.
type Workspace struct {
	Name string
	Dir  string
}

// LoadWorkspaces finds the workspace packages declared by the root
// package.json "workspaces" field and by pnpm-workspace.yaml.
func LoadWorkspaces(fsys fs.FS) ([]Workspace, error) {
	patterns, err := workspacePatterns(fsys)
	if err != nil {
		return nil, err
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	var include, exclude []glob.Glob
	for _, p := range patterns {
		negated := strings.HasPrefix(p, "!")
		p = strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(p, "!"), "./"), "/")
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("workspace pattern %q: %w", p, err)
		}
		if negated {
			exclude = append(exclude, g)
		} else {
			include = append(include, g)
		}
	}

	var out []Workspace
	err = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != "." && (d.Name() == "node_modules" || strings.HasPrefix(d.Name(), ".")) {
			return fs.SkipDir
		}
		if p == "." || !matchAny(include, p) || matchAny(exclude, p) {
			return nil
		}
		m, err := readManifest(fsys, path.Join(p, "package.json"))
		if err != nil || m.Name == "" {
			return nil
		}
		out = append(out, Workspace{Name: m.Name, Dir: p})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func workspacePatterns(fsys fs.FS) ([]string, error) {
	var patterns []string

	root, err := readManifest(fsys, "package.json")
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	case len(root.Workspaces) > 0:
		var list []string
		if err := json.Unmarshal(root.Workspaces, &list); err != nil {
			var obj struct {
				Packages []string `json:"packages"`
			}
			if err := json.Unmarshal(root.Workspaces, &obj); err != nil {
				return nil, fmt.Errorf("package.json workspaces: %w", err)
			}
			list = obj.Packages
		}
		patterns = append(patterns, list...)
	}

	data, err := fs.ReadFile(fsys, "pnpm-workspace.yaml")
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		var ws pnpmWorkspace
		if err := yaml.Unmarshal(data, &ws); err != nil {
			return nil, fmt.Errorf("pnpm-workspace.yaml: %w", err)
		}
		patterns = append(patterns, ws.Packages...)
	}

	if len(patterns) > 0 {
		slog.Debug("workspace patterns loaded", "count", len(patterns))
	}
	return patterns, nil
}

func readManifest(fsys fs.FS, name string) (packageManifest, error) {
	var m packageManifest
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("%s: %w", name, err)
	}
	return m, nil
}

func matchAny(globs []glob.Glob, p string) bool {
	for _, g := range globs {
		if g.Match(p) {
			return true
		}
	}
	return false
}
