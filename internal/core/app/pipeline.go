package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	domainerrors "jsdeps/internal/core/errors"
	"jsdeps/internal/core/ports"
	"jsdeps/internal/engine/extract"
	"jsdeps/internal/engine/graph"
	"jsdeps/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var statementSeries sync.Once

// initStatementSeries exports a zero count for every statement kind, so
// kinds never seen in a project still appear on /metrics.
func initStatementSeries() {
	statementSeries.Do(func() {
		for _, k := range extract.Kinds() {
			observability.StatementsTotal.WithLabelValues(k.String())
		}
	})
}

func (a *App) workers() int {
	if n := a.Config.Scan.Workers; n > 0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}

// ExtractAll reads and extracts every file on a bounded worker pool. The
// output has one entry per readable file, ordered like files. Unreadable and
// oversized files are logged and skipped.
func (a *App) ExtractAll(ctx context.Context, files []ports.SourceFile) ([]graph.FileResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.ExtractAll",
		trace.WithAttributes(attribute.Int("files", len(files))))
	defer span.End()
	initStatementSeries()

	results := make([]*graph.FileResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())

	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := a.extractFile(f)
			if err != nil {
				slog.Warn("skipping file", "path", f.Path, "error", err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	out := make([]graph.FileResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (a *App) extractFile(f ports.SourceFile) (*graph.FileResult, error) {
	info, err := os.Stat(f.AbsPath)
	if err != nil {
		return nil, err
	}
	if limit := a.Config.Scan.MaxFileBytes; limit > 0 && info.Size() > limit {
		return nil, fmt.Errorf("file is %d bytes, limit is %d", info.Size(), limit)
	}
	src, err := os.ReadFile(f.AbsPath)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res := extract.Extract(f.Path, string(src), extract.Options{
		JSX:        f.JSXEnabled,
		MaxNesting: a.Config.Scan.MaxNesting,
	})
	observability.ExtractDuration.Observe(time.Since(start).Seconds())
	observability.FilesScannedTotal.Inc()

	for _, st := range res.Statements {
		observability.StatementsTotal.WithLabelValues(st.Kind.String()).Inc()
	}
	for _, d := range res.Diagnostics {
		observability.DiagnosticsTotal.WithLabelValues(string(d.Code)).Inc()
		logDiagnostic(d)
	}
	return &graph.FileResult{Path: f.Path, Result: res}, nil
}

func logDiagnostic(d extract.Diagnostic) {
	attrs := []any{"path", d.File, "line", d.Line, "column", d.Column, "code", d.Code, "message", d.Message}
	switch d.Code {
	case domainerrors.CodeLexRecoverable, domainerrors.CodeExtractSkipped:
		slog.Debug("recoverable extraction problem", attrs...)
	default:
		slog.Info("extraction diagnostic", attrs...)
	}
}
