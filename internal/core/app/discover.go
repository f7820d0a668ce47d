package app

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"

	"jsdeps/internal/core/config"
	"jsdeps/internal/core/ports"
	"jsdeps/internal/shared/observability"
	"jsdeps/internal/shared/util"

	"github.com/gobwas/glob"
)

// Discoverer walks the project root for source files.
type Discoverer struct {
	root         string
	cfg          *config.Config
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
}

func NewDiscoverer(root string, cfg *config.Config) (*Discoverer, error) {
	dirs, err := compileGlobs(cfg.Scan.ExcludeDirs, "exclude dir")
	if err != nil {
		return nil, err
	}
	files, err := compileGlobs(cfg.Scan.ExcludeFiles, "exclude file")
	if err != nil {
		return nil, err
	}
	return &Discoverer{root: root, cfg: cfg, excludeDirs: dirs, excludeFiles: files}, nil
}

func compileGlobs(patterns []string, label string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", label, p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func matchAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// walkError keeps discovery going past unreadable entries. Only a failure
// on the root itself ends the walk.
func (d *Discoverer) walkError(p string, entry fs.DirEntry, err error) error {
	if p == d.root || entry == nil {
		return err
	}
	slog.Warn("skipping unreadable path", "path", p, "error", err)
	if entry.IsDir() {
		return filepath.SkipDir
	}
	return nil
}

// Discover returns every source file under the root sorted by canonical path.
func (d *Discoverer) Discover(ctx context.Context) ([]ports.SourceFile, error) {
	_, span := observability.Tracer.Start(ctx, "app.Discover")
	defer span.End()

	var files []ports.SourceFile
	err := filepath.WalkDir(d.root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return d.walkError(p, entry, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		name := entry.Name()
		if entry.IsDir() {
			if p != d.root && matchAny(d.excludeDirs, name) {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() || !d.cfg.IsSourceFile(name) || matchAny(d.excludeFiles, name) {
			return nil
		}
		key, ok := util.ProjectPath(d.root, p)
		if !ok {
			return nil
		}
		files = append(files, ports.SourceFile{
			Path:       key,
			AbsPath:    p,
			JSXEnabled: d.cfg.JSXEnabled(name),
		})
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("discover %s: %w", d.root, err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
