package app

import (
	"context"
	"log/slog"
	"os"
	"sort"

	"jsdeps/internal/engine/crosscheck"
	"jsdeps/internal/shared/observability"
)

// CrossCheck re-parses every discovered file with the tree-sitter oracle and
// returns the specifiers on which it and the extractor disagree.
func (a *App) CrossCheck(ctx context.Context) (int, []crosscheck.Mismatch, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.CrossCheck")
	defer span.End()

	files, err := a.discoverer.Discover(ctx)
	if err != nil {
		return 0, nil, err
	}
	results, err := a.ExtractAll(ctx, files)
	if err != nil {
		return 0, nil, err
	}
	abs := make(map[string]string, len(files))
	for _, f := range files {
		abs[f.Path] = f.AbsPath
	}

	oracle := a.checker()
	var mismatches []crosscheck.Mismatch
	checked := 0
	for _, r := range results {
		if err := ctx.Err(); err != nil {
			return checked, nil, err
		}
		src, err := os.ReadFile(abs[r.Path])
		if err != nil {
			slog.Warn("crosscheck read failed", "path", r.Path, "error", err)
			continue
		}
		found, err := oracle.Compare(r.Path, src, r.Result.Statements)
		if err != nil {
			slog.Warn("crosscheck parse failed", "path", r.Path, "error", err)
			continue
		}
		checked++
		mismatches = append(mismatches, found...)
	}
	sort.SliceStable(mismatches, func(i, j int) bool { return mismatches[i].File < mismatches[j].File })
	return checked, mismatches, nil
}
