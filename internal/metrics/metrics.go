package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cycle metrics
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ras_cycles_total",
			Help: "Assessment cycles by outcome",
		},
		[]string{"outcome"}, // completed, page_limit, aborted
	)

	CycleDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ras_cycle_duration_seconds",
			Help:    "Wall time of one RunCycle call",
			Buckets: prometheus.ExponentialBuckets(1, 4, 9), // 1s to ~18h
		},
	)

	SubscribersProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ras_subscribers_processed_total",
			Help: "Subscribers handled by the batch driver by result",
		},
		[]string{"result"}, // assessed, failed
	)

	SubscriberFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ras_subscriber_failures_total",
			Help: "Skipped subscribers by the stage that failed",
		},
		[]string{"stage"},
	)

	QueryDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ras_query_duration_seconds",
			Help:    "Relational query latency by query name",
			Buckets: prometheus.ExponentialBuckets(0.005, 4, 10),
		},
		[]string{"query"},
	)

	// Coordinator metrics
	CoordinatorTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ras_coordinator_access_timeouts_total",
			Help: "Callers that gave up waiting for the coordinator lock",
		},
	)

	EntitiesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ras_entities_created_total",
			Help: "Rows inserted by get-or-create",
		},
		[]string{"entity"},
	)

	EntitiesRevivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ras_entities_revived_total",
			Help: "Soft-deleted rows un-deleted by get-or-create",
		},
		[]string{"entity"},
	)

	// View refresh metrics
	ViewRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ras_view_refresh_total",
			Help: "Materialized view refreshes by outcome",
		},
		[]string{"outcome"}, // ok, failed, rejected
	)

	ViewRefreshInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ras_view_refresh_in_flight",
			Help: "1 while a materialized view refresh is running",
		},
	)

	HistoryImportedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ras_history_rows_total",
			Help: "History CSV rows by import result",
		},
		[]string{"result"}, // inserted, rejected, skipped
	)
)

// ObserveQuery records the latency of a named relational query
func ObserveQuery(name string, start time.Time) {
	QueryDurationSeconds.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

// RecordSubscriberFailure counts a skipped subscriber against the failing stage
func RecordSubscriberFailure(stage string) {
	SubscriberFailuresTotal.WithLabelValues(stage).Inc()
	SubscribersProcessedTotal.WithLabelValues("failed").Inc()
}
