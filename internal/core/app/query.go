package app

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	domainerrors "jsdeps/internal/core/errors"
	"jsdeps/internal/engine/graph"
	"jsdeps/internal/shared/observability"
	"jsdeps/internal/shared/util"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Canonical maps a user supplied file name to a graph key. Absolute paths
// are made relative to the project root.
func (a *App) Canonical(p string) string {
	if filepath.IsAbs(p) {
		if key, ok := util.ProjectPath(a.Paths.ProjectRoot, p); ok {
			return key
		}
		return filepath.ToSlash(filepath.Clean(p))
	}
	return util.CleanKey(p)
}

// LoadGraph returns the graph to query. A non-empty snapshotRef ("latest" or
// an id) reads from the SQLite store, otherwise the JSON graph file is read.
func (a *App) LoadGraph(ctx context.Context, snapshotRef string) (graph.Reader, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.LoadGraph")
	defer span.End()

	if snapshotRef != "" {
		store, err := a.Store()
		if err != nil {
			return nil, err
		}
		info, err := store.Resolve(ctx, a.Config.DB.ProjectKey, snapshotRef)
		if err != nil {
			return nil, err
		}
		span.SetAttributes(attribute.String("snapshot_id", info.ID))
		return store.Load(ctx, info.ID)
	}

	f, err := os.Open(a.Paths.GraphJSON)
	if errors.Is(err, fs.ErrNotExist) {
		err = domainerrors.Wrap(err, domainerrors.CodeNotFound, "graph file missing, run with -build first")
		return nil, domainerrors.AddContext(err, "path", a.Paths.GraphJSON)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return graph.ReadJSON(f)
}

// FindPath canonicalizes both ends and runs the shortest path query.
func (a *App) FindPath(ctx context.Context, g graph.Reader, origin, destination string) ([]string, bool) {
	origin, destination = a.Canonical(origin), a.Canonical(destination)
	_, span := observability.Tracer.Start(ctx, "app.FindPath", trace.WithAttributes(
		attribute.String("origin", origin),
		attribute.String("destination", destination),
	))
	defer span.End()

	start := time.Now()
	path, ok := graph.FindPath(g, origin, destination)
	observability.AnalysisDuration.WithLabelValues("query").Observe(time.Since(start).Seconds())
	result := "found"
	if !ok {
		result = "not_found"
	}
	observability.QueriesTotal.WithLabelValues(result).Inc()
	span.SetAttributes(attribute.Bool("found", ok), attribute.Int("hops", max(len(path)-1, 0)))
	return path, ok
}

// Importers lists the files that depend on path directly and transitively.
func (a *App) Importers(g graph.Reader, path string) (string, []string, []string) {
	key := a.Canonical(path)
	direct, transitive := graph.Importers(g, key)
	return key, direct, transitive
}
