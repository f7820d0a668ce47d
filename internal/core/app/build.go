package app

import (
	"context"
	"log/slog"
	"time"

	"jsdeps/internal/engine/graph"
	"jsdeps/internal/shared/observability"
	"jsdeps/internal/shared/util"
	"jsdeps/internal/ui/report"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// BuildResult is the outcome of one full analysis run.
type BuildResult struct {
	RunID       string
	Graph       *graph.DependencyGraph
	Files       []graph.FileResult
	Statements  int
	Diagnostics int
	Cycles      [][]string
	Duration    time.Duration
	Outputs     []string
	SnapshotID  string
}

// Summary converts the result for display.
func (r *BuildResult) Summary() report.BuildSummary {
	return report.BuildSummary{
		RunID:            r.RunID,
		Files:            len(r.Files),
		Statements:       r.Statements,
		Nodes:            r.Graph.NodeCount(),
		Edges:            r.Graph.EdgeCount(),
		ExternalPackages: r.Graph.ExternalPackages(),
		Dangling:         r.Graph.Dangling(),
		Unresolvable:     len(r.Graph.Unresolvable()),
		Diagnostics:      r.Diagnostics,
		Cycles:           r.Cycles,
		Duration:         r.Duration,
		Outputs:          r.Outputs,
	}
}

// Build discovers, extracts and assembles the project graph. It does not
// write outputs.
func (a *App) Build(ctx context.Context) (*BuildResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	ctx, span := observability.Tracer.Start(ctx, "app.Build")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", runID))

	files, err := a.discoverer.Discover(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	observability.AnalysisDuration.WithLabelValues("discover").Observe(time.Since(start).Seconds())

	extractStart := time.Now()
	results, err := a.ExtractAll(ctx, files)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	observability.AnalysisDuration.WithLabelValues("extract").Observe(time.Since(extractStart).Seconds())

	buildStart := time.Now()
	g := graph.Build(ctx, results, a.resolver, a.buildOptions())
	observability.AnalysisDuration.WithLabelValues("build").Observe(time.Since(buildStart).Seconds())

	res := &BuildResult{
		RunID:    runID,
		Graph:    g,
		Files:    results,
		Cycles:   graph.DetectCycles(g),
		Duration: time.Since(start),
	}
	for _, f := range results {
		res.Statements += len(f.Result.Statements)
		res.Diagnostics += len(f.Result.Diagnostics)
	}
	a.setCurrent(res)

	slog.Info("build complete",
		"run_id", runID,
		"files", len(results),
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"cycles", len(res.Cycles),
		"duration", res.Duration,
		"heap_mb", util.HeapAllocMB(),
	)
	return res, nil
}
