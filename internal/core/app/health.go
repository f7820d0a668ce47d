package app

import (
	"context"
	"fmt"
	"time"

	"jsdeps/internal/shared/observability"
)

// Health reports the state of the last build for the /health endpoint.
func (a *App) Health(ctx context.Context) observability.HealthStatus {
	status := observability.HealthStatus{
		Status:    "up",
		Timestamp: time.Now().UTC(),
		Details: map[string]string{
			"root":   a.Paths.ProjectRoot,
			"uptime": time.Since(a.started).Round(time.Second).String(),
		},
	}

	cur := a.Current()
	if cur == nil {
		status.Status = "starting"
		status.Details["graph"] = "not built"
	} else {
		status.Details["graph"] = fmt.Sprintf("ok (%d nodes, %d edges)", cur.Graph.NodeCount(), cur.Graph.EdgeCount())
		status.Details["run_id"] = cur.RunID
	}

	if a.Config.DB.Enabled {
		a.mu.RLock()
		open := a.store != nil
		a.mu.RUnlock()
		if open {
			status.Details["snapshot_store"] = "ok"
		} else {
			status.Details["snapshot_store"] = "not opened"
		}
	}
	return status
}
