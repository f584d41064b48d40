package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncRuns tracks reconciliation attempts by outcome
	// Labels: status is one of "replaced", "empty_source", "source_error", "store_error"
	SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "board_sync_runs_total",
		Help: "Total number of spreadsheet reconciliation runs",
	}, []string{"status"})

	// SyncDuration measures how long a full reconciliation run takes,
	// fetch and replace included
	SyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "board_sync_duration_seconds",
		Help:    "Duration of reconciliation runs in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// SyncRowsReplaced tracks how many records each full replace wrote
	SyncRowsReplaced = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "board_sync_rows_replaced",
		Help:    "Number of records written per full replace",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
	})

	// SourceFetchDuration measures the spreadsheet fetch alone.
	// Use this to tell slow Google responses apart from slow database writes
	SourceFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "board_source_fetch_duration_seconds",
		Help:    "Duration of external source fetches in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// SourceCacheHits counts fetches served from the snapshot cache
	SourceCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "board_source_cache_hits_total",
		Help: "Total number of snapshot fetches served from cache",
	})

	// BoardRecords tracks the current size of the notice board
	BoardRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "board_records",
		Help: "Current number of change records on the board",
	})
)
