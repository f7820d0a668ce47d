// Package app wires discovery, extraction, graph building, persistence and
// queries into the operations the CLI exposes.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"jsdeps/internal/core/config"
	"jsdeps/internal/core/ports"
	"jsdeps/internal/data/snapshot"
	"jsdeps/internal/engine/crosscheck"
	"jsdeps/internal/engine/graph"
	"jsdeps/internal/engine/resolver"
)

// Dependencies lets callers replace collaborators. Nil fields get the
// default implementation.
type Dependencies struct {
	Discoverer ports.FileDiscoverer
	Resolver   ports.SpecifierResolver
	Store      ports.SnapshotStore
	Oracle     ports.StatementOracle
}

type App struct {
	Config *config.Config
	Paths  config.ResolvedPaths

	discoverer  ports.FileDiscoverer
	resolver    ports.SpecifierResolver
	ownResolver bool
	store       ports.SnapshotStore
	oracle      ports.StatementOracle

	mu      sync.RWMutex
	current *BuildResult
	started time.Time
}

// New builds an App whose relative paths are anchored at base, normally the
// directory holding the config file.
func New(cfg *config.Config, base string) (*App, error) {
	return NewWithDependencies(cfg, base, Dependencies{})
}

func NewWithDependencies(cfg *config.Config, base string, deps Dependencies) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	paths, err := config.ResolvePaths(cfg, base)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(paths.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", paths.ProjectRoot)
	}

	a := &App{
		Config:     cfg,
		Paths:      paths,
		discoverer: deps.Discoverer,
		resolver:   deps.Resolver,
		store:      deps.Store,
		oracle:     deps.Oracle,
		started:    time.Now(),
	}

	if a.discoverer == nil {
		d, err := NewDiscoverer(paths.ProjectRoot, cfg)
		if err != nil {
			return nil, err
		}
		a.discoverer = d
	}
	if a.resolver == nil {
		r, err := newResolver(paths.ProjectRoot, cfg)
		if err != nil {
			return nil, err
		}
		a.resolver = r
		a.ownResolver = true
	}
	return a, nil
}

func newResolver(root string, cfg *config.Config) (*resolver.Resolver, error) {
	fsys := os.DirFS(root)
	var workspaces []resolver.Workspace
	if cfg.WorkspacesEnabled() {
		ws, err := resolver.LoadWorkspaces(fsys)
		if err != nil {
			slog.Warn("failed to load workspaces", "root", root, "error", err)
		}
		workspaces = ws
		if len(ws) > 0 {
			slog.Debug("workspace packages loaded", "count", len(ws))
		}
	}
	return resolver.New(fsys, resolver.Options{
		Extensions: cfg.Resolver.Extensions,
		IndexFiles: cfg.Resolver.IndexFiles,
		Aliases:    cfg.Resolver.Aliases,
		CacheSize:  cfg.Resolver.CacheSize,
		Workspaces: workspaces,
	})
}

// refreshResolver drops cached resolutions so that added and removed files
// are seen by the next build.
func (a *App) refreshResolver() error {
	if !a.ownResolver {
		return nil
	}
	r, err := newResolver(a.Paths.ProjectRoot, a.Config)
	if err != nil {
		return err
	}
	a.resolver = r
	return nil
}

// Store opens the snapshot store on first use.
func (a *App) Store() (ports.SnapshotStore, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store != nil {
		return a.store, nil
	}
	s, err := snapshot.Open(a.Paths.DBPath, a.Config.DB.BusyTimeout)
	if err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}

func (a *App) checker() ports.StatementOracle {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.oracle == nil {
		a.oracle = crosscheck.New()
	}
	return a.oracle
}

// Current returns the most recent successful build, if any.
func (a *App) Current() *BuildResult {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current
}

func (a *App) setCurrent(res *BuildResult) {
	a.mu.Lock()
	a.current = res
	a.mu.Unlock()
}

func (a *App) buildOptions() graph.BuildOptions {
	return graph.BuildOptions{
		IncludeTypeOnly: a.Config.IncludeTypeOnly(),
		IncludeDynamic:  a.Config.IncludeDynamic(),
	}
}

func (a *App) Close(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}
