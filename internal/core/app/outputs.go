package app

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"jsdeps/internal/engine/graph"
	"jsdeps/internal/shared/observability"
	"jsdeps/internal/shared/util"
	"jsdeps/internal/ui/report"
)

// WriteOutputs writes the JSON graph, the DOT rendering when configured and
// a SQLite snapshot when the store is enabled. Written locations are
// appended to res.Outputs.
func (a *App) WriteOutputs(ctx context.Context, res *BuildResult) error {
	_, span := observability.Tracer.Start(ctx, "app.WriteOutputs")
	defer span.End()

	var buf bytes.Buffer
	if err := graph.WriteJSON(&buf, res.Graph); err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	if err := util.WriteFileAtomic(a.Paths.GraphJSON, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write graph %s: %w", a.Paths.GraphJSON, err)
	}
	res.Outputs = append(res.Outputs, a.Paths.GraphJSON)

	if a.Paths.DOT != "" {
		buf.Reset()
		if err := report.WriteDOT(&buf, res.Graph, res.Cycles, res.Graph.Externals()); err != nil {
			return fmt.Errorf("render dot: %w", err)
		}
		if err := util.WriteFileAtomic(a.Paths.DOT, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write dot %s: %w", a.Paths.DOT, err)
		}
		res.Outputs = append(res.Outputs, a.Paths.DOT)
	}

	if a.Config.DB.Enabled {
		store, err := a.Store()
		if err != nil {
			return err
		}
		info, err := store.Save(ctx, a.Config.DB.ProjectKey, a.Paths.ProjectRoot, res.Graph)
		if err != nil {
			return err
		}
		res.SnapshotID = info.ID
		if keep := a.Config.DB.Keep; keep > 0 {
			removed, err := store.Prune(ctx, a.Config.DB.ProjectKey, keep)
			if err != nil {
				return fmt.Errorf("prune snapshots: %w", err)
			}
			if removed > 0 {
				slog.Debug("pruned snapshots", "removed", removed, "keep", keep)
			}
		}
		res.Outputs = append(res.Outputs, fmt.Sprintf("%s (snapshot %s)", a.Paths.DBPath, info.ID))
	}

	slog.Debug("outputs written", "count", len(res.Outputs))
	return nil
}
