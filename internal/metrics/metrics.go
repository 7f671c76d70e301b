package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Poller metrics
var (
	// PollCyclesTotal counts completed poll cycles by outcome
	// (progress, no_progress, queue_empty, first_run).
	PollCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poller_cycles_total",
			Help: "Total poll cycles by outcome",
		},
		[]string{"outcome"},
	)

	PollCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "poller_cycle_duration_seconds",
			Help:    "Poll cycle duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	RecordsFetchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "poller_records_fetched_total",
			Help: "Total records returned by the search API",
		},
	)

	// SearchRequestsTotal tracks search calls by result (ok, throttled, rejected, error)
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_requests_total",
			Help: "Total search API requests by result",
		},
		[]string{"result"},
	)

	SearchRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "search_request_duration_seconds",
			Help:    "Search API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Curator metrics
var (
	// CuratorRecordsTotal counts decoded objects by result
	// (written, dropped_parse, dropped_timestamp, dropped_text, dropped_sentiment, skipped).
	CuratorRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_records_total",
			Help: "Total records handled by the curator by result",
		},
		[]string{"result"},
	)

	CuratorResyncBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "curator_resync_bytes_total",
			Help: "Bytes skipped while resynchronising on malformed batch input",
		},
	)

	SentimentRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sentiment_request_duration_seconds",
			Help:    "Sentiment classification request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Shared infrastructure metrics
var (
	// RetriesTotal counts backoff sleeps by operation and classified action
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retries_total",
			Help: "Total retry attempts by operation and action",
		},
		[]string{"operation", "action"},
	)

	// SinkAppendsTotal tracks appends by sink (raw, curated) and status
	SinkAppendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sink_appends_total",
			Help: "Total stream sink appends by sink and status",
		},
		[]string{"sink", "status"},
	)

	QueueOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_operations_total",
			Help: "Total work queue operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	RedisOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total Redis operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	RedisOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Redis operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)
)
