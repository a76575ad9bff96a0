package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statbot_queries_total",
			Help: "Total number of query commands by outcome.",
		},
		[]string{"outcome"},
	)

	stageDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "statbot_stage_duration_seconds",
			Help:    "Pipeline stage latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	rowsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "statbot_rows_returned",
			Help:    "Rows returned per executed query.",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
	)
)

func init() {
	prometheus.MustRegister(queriesTotal, stageDurationSeconds, rowsReturned)
}

// Query outcomes recorded by ObserveQuery.
const (
	OutcomeOK          = "ok"
	OutcomeTranslation = "translation_failed"
	OutcomeUnsafe      = "unsafe_query"
	OutcomeExecution   = "execution_failed"
	OutcomeInternal    = "internal_error"
)

func ObserveQuery(outcome string) {
	queriesTotal.WithLabelValues(outcome).Inc()
}

func ObserveStage(stage string, d time.Duration) {
	stageDurationSeconds.WithLabelValues(stage).Observe(d.Seconds())
}

func ObserveRows(n int) {
	rowsReturned.Observe(float64(n))
}
