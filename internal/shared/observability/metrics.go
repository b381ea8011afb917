package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	FilesInspected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inspection_files_total",
		Help: "Total number of files routed through the execution coordinator.",
	}, []string{"kind"})

	FilesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inspection_files_skipped_total",
		Help: "Total number of files skipped (unknown kind, unreadable, no applicable rules).",
	}, []string{"reason"})

	ParseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inspection_parse_seconds",
		Help:    "Time spent parsing a file into its structural representation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	RuleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inspection_rule_seconds",
		Help:    "Time spent in a single rule invocation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"rule"})

	FindingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inspection_findings_total",
		Help: "Total number of findings emitted, by severity.",
	}, []string{"severity"})

	RuleErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inspection_rule_errors_total",
		Help: "Total number of isolated rule execution failures.",
	}, []string{"rule"})

	IndexEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inspection_index_identifiers_total",
		Help: "Number of distinct identifiers recorded in the project index.",
	})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inspection_cache_hits_total",
		Help: "Total number of shared computation cache hits.",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inspection_cache_misses_total",
		Help: "Total number of shared computation cache misses.",
	})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inspection_run_seconds",
		Help:    "Wall-clock duration of a full inspection run.",
		Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inspection_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
