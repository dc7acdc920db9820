package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedPollsTotal tracks feed polls by result (success, error)
	FeedPollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "akashic_feed_polls_total",
			Help: "Total number of feed poll attempts",
		},
		[]string{"result"},
	)

	// FeedRecordsSeen tracks the number of records returned by the last poll
	FeedRecordsSeen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "akashic_feed_records",
			Help: "Number of records returned by the last successful poll",
		},
	)

	// RecordsClassifiedTotal tracks classifier decisions per rule
	RecordsClassifiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "akashic_records_classified_total",
			Help: "Total number of new feed records classified",
		},
		[]string{"decision", "rule"},
	)

	// SeenSetSize tracks the number of dispatched record ids
	SeenSetSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "akashic_seen_set_size",
			Help: "Number of record ids already dispatched",
		},
	)

	// SessionsActive tracks running capture sessions
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "akashic_sessions_active",
			Help: "Number of capture sessions currently running",
		},
	)

	// SessionsFinishedTotal tracks sessions by terminal state
	SessionsFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "akashic_sessions_finished_total",
			Help: "Total number of capture sessions that reached a terminal state",
		},
		[]string{"state"},
	)

	// DownloadAttemptsTotal tracks downloader invocations by outcome
	DownloadAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "akashic_download_attempts_total",
			Help: "Total number of downloader attempts",
		},
		[]string{"outcome"},
	)

	// BackoffSeconds tracks computed backoff waits per duration class
	BackoffSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "akashic_backoff_seconds",
			Help:    "Computed backoff wait in seconds",
			Buckets: []float64{15, 60, 300, 3600, 6 * 3600, 24 * 3600},
		},
		[]string{"unit"},
	)

	// ReconcileTotal tracks secondary live-status lookups by result
	ReconcileTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "akashic_reconcile_total",
			Help: "Total number of live status reconciliations",
		},
		[]string{"status"},
	)

	// DBConnectionPoolUsage tracks journal database pool usage percentage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "akashic_db_connection_pool_usage_percent",
			Help: "Session journal connection pool usage percentage",
		},
	)
)
