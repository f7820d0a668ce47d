package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	FilesScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jsdeps_files_scanned_total",
		Help: "Total number of source files scanned.",
	})

	ExtractDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "jsdeps_extract_seconds",
		Help:    "Time spent scanning and extracting statements from a source file.",
		Buckets: prometheus.DefBuckets,
	})

	StatementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jsdeps_statements_total",
		Help: "Dependency statements extracted, by statement kind.",
	}, []string{"kind"})

	DiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jsdeps_diagnostics_total",
		Help: "Recoverable diagnostics recorded, by error code.",
	}, []string{"code"})

	ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jsdeps_resolutions_total",
		Help: "Specifier resolutions, by outcome.",
	}, []string{"outcome"})

	ResolverCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jsdeps_resolver_cache_hits_total",
		Help: "Specifier resolutions answered from the resolver cache.",
	})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "jsdeps_graph_nodes_total",
		Help: "Total number of nodes in the dependency graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "jsdeps_graph_edges_total",
		Help: "Total number of edges in the dependency graph.",
	})

	GraphExternals = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "jsdeps_graph_externals_total",
		Help: "Total number of distinct external package references.",
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jsdeps_analysis_seconds",
		Help:    "Time spent on high-level analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jsdeps_queries_total",
		Help: "Path queries answered, by result.",
	}, []string{"result"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jsdeps_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	RebuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jsdeps_rebuilds_total",
		Help: "Watch-mode rebuilds, by status.",
	}, []string{"status"})

	SnapshotWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jsdeps_snapshot_writes_total",
		Help: "Total number of graph snapshots persisted to the database.",
	})
)
