package app

import (
	"context"
	"log/slog"

	"jsdeps/internal/core/watcher"
	"jsdeps/internal/shared/observability"
	"jsdeps/internal/shared/util"
)

// Rebuild runs a build and writes its outputs.
func (a *App) Rebuild(ctx context.Context) (*BuildResult, error) {
	res, err := a.Build(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.WriteOutputs(ctx, res); err != nil {
		return res, err
	}
	return res, nil
}

// Watch rebuilds once, then again after every debounced batch of changes
// under the project root, at most Watch.MaxRebuildsPerSecond times per
// second. It returns when ctx ends.
func (a *App) Watch(ctx context.Context, onBuild func(*BuildResult, error)) error {
	if onBuild == nil {
		onBuild = func(*BuildResult, error) {}
	}

	changes := make(chan []string, 1)
	w, err := watcher.New(watcher.Options{
		Debounce:     a.Config.Watch.Debounce,
		ExcludeDirs:  a.Config.Scan.ExcludeDirs,
		ExcludeFiles: a.Config.Scan.ExcludeFiles,
		Extensions:   a.Config.Languages.Extensions,
		Filenames:    []string{"package.json", "pnpm-workspace.yaml"},
	}, func(paths []string) {
		select {
		case changes <- paths:
		default:
			// a rebuild is already pending and will see these files
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()

	res, err := a.Rebuild(ctx)
	a.recordRebuild(err)
	onBuild(res, err)

	if err := w.Watch([]string{a.Paths.ProjectRoot}); err != nil {
		return err
	}
	slog.Info("watching for changes", "root", a.Paths.ProjectRoot)

	limiter := util.NewLimiter(a.Config.Watch.MaxRebuildsPerSecond, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-changes:
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
			slog.Info("change detected, rebuilding", "files", len(paths))
			if err := a.refreshResolver(); err != nil {
				a.recordRebuild(err)
				onBuild(nil, err)
				continue
			}
			res, err := a.Rebuild(ctx)
			a.recordRebuild(err)
			onBuild(res, err)
		}
	}
}

func (a *App) recordRebuild(err error) {
	status := "ok"
	if err != nil {
		status = "error"
		slog.Error("rebuild failed", "error", err)
	}
	observability.RebuildsTotal.WithLabelValues(status).Inc()
}
