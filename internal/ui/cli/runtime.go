package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"jsdeps/internal/core/app"
	"jsdeps/internal/core/config"
	domainerrors "jsdeps/internal/core/errors"
	"jsdeps/internal/engine/graph"
	"jsdeps/internal/shared/observability"
	"jsdeps/internal/ui/report"
)

// Run executes the command line and returns the process exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		if domainerrors.IsCode(err, domainerrors.CodeUsage) && !isFlagError(err) {
			fmt.Fprintln(stderr, "error:", err)
		}
		return exitCode(err)
	}
	if opts.version {
		fmt.Fprintf(stdout, "jsdeps v%s\n", versionString)
		return exitOK
	}

	configureLogging(stderr, opts.verbose)

	if err := config.LoadDotEnv(opts.envFile); err != nil {
		slog.Warn("failed to load environment file", "path", opts.envFile, "error", err)
	}
	cfg, base, err := loadConfig(opts.configPath)
	if err != nil {
		slog.Error("failed to load config", "path", opts.configPath, "error", err)
		return exitFailure
	}
	if opts.metricsAddr != "" {
		cfg.Observability.Enabled = true
		cfg.Observability.Address = opts.metricsAddr
	}

	shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Observability.EnableTracing,
		Endpoint:    cfg.Observability.OTLPEndpoint,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		return exitFailure
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}()

	a, err := app.New(cfg, base)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		return exitFailure
	}
	defer a.Close(context.Background())

	if cfg.Observability.Enabled {
		srv := observability.NewServer(cfg.Observability.Address, a.Health)
		if err := srv.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			return exitFailure
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(stopCtx)
		}()
	}

	if err := dispatch(ctx, a, opts, report.NewRenderer(stdout)); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitCode(err)
	}
	return exitOK
}

func isFlagError(err error) bool {
	var de *domainerrors.DomainError
	return errors.As(err, &de) && de.Err != nil
}

func dispatch(ctx context.Context, a *app.App, opts cliOptions, r *report.Renderer) error {
	switch {
	case opts.build:
		res, err := a.Rebuild(ctx)
		if err != nil {
			return err
		}
		r.Summary(res.Summary())
		if opts.top > 0 {
			r.Hotspots(graph.Top(graph.ComputeMetrics(res.Graph), opts.top))
		}
		if len(opts.args) == 2 {
			query(ctx, a, res.Graph, opts.args[0], opts.args[1], r)
		}
		return nil

	case opts.watch:
		return a.Watch(ctx, func(res *app.BuildResult, err error) {
			if err == nil {
				r.Summary(res.Summary())
			}
		})

	case opts.crosscheck:
		checked, mismatches, err := a.CrossCheck(ctx)
		if err != nil {
			return err
		}
		r.Mismatches(checked, mismatches)
		if len(mismatches) > 0 {
			return fmt.Errorf("%d crosscheck disagreement(s)", len(mismatches))
		}
		return nil
	}

	g, err := a.LoadGraph(ctx, opts.snapshot)
	if err != nil {
		return err
	}
	switch {
	case opts.cycles:
		r.Cycles(graph.DetectCycles(g))
	case opts.importers != "":
		key, direct, transitive := a.Importers(g, opts.importers)
		r.Importers(key, direct, transitive)
	default:
		query(ctx, a, g, opts.args[0], opts.args[1], r)
	}
	return nil
}

// query prints the path or the not-found message. Neither outcome is an
// error.
func query(ctx context.Context, a *app.App, g graph.Reader, origin, destination string, r *report.Renderer) {
	path, ok := a.FindPath(ctx, g, origin, destination)
	if ok {
		r.Path(path)
		return
	}
	origin, destination = a.Canonical(origin), a.Canonical(destination)
	slog.Debug("no path", "code", domainerrors.CodeQueryNotFound, "origin", origin, "destination", destination)
	r.NotFound(origin, destination)
}

// loadConfig reads path and returns the directory relative paths are
// anchored at. A missing file is only tolerated at the default location.
func loadConfig(path string) (*config.Config, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.LoadOrDefault(abs, path == config.DefaultFile)
	if err != nil {
		return nil, "", err
	}
	return cfg, filepath.Dir(abs), nil
}

func configureLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
