package sync

import (
	stdsync "sync"

	"github.com/prometheus/client_golang/prometheus"
)

// syncMetrics tracks ingestion outcomes for the /metrics endpoint.
type syncMetrics struct {
	once stdsync.Once

	runsTotal    *prometheus.CounterVec
	stepFailures *prometheus.CounterVec
	entitiesLast *prometheus.GaugeVec
	runDuration  prometheus.Histogram
}

var metrics syncMetrics

func (m *syncMetrics) init() {
	m.once.Do(func() {
		m.runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "supportsync_runs_total",
			Help: "Sync runs by final state",
		}, []string{"state"})
		m.stepFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "supportsync_step_failures_total",
			Help: "Failed sync steps by name",
		}, []string{"step"})
		m.entitiesLast = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "supportsync_entities_last_run",
			Help: "Entities written by the most recent successful step",
		}, []string{"entity"})
		m.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "supportsync_run_seconds",
			Help:    "Wall-clock duration of a full sync run",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 1800, 3600, 7200},
		})

		prometheus.MustRegister(
			m.runsTotal,
			m.stepFailures,
			m.entitiesLast,
			m.runDuration,
		)
	})
}

func recordRun(state State, seconds float64) {
	metrics.init()
	metrics.runsTotal.WithLabelValues(string(state)).Inc()
	metrics.runDuration.Observe(seconds)
}

func recordStep(step StepName, count int, err error) {
	metrics.init()
	if err != nil {
		metrics.stepFailures.WithLabelValues(string(step)).Inc()
		return
	}
	metrics.entitiesLast.WithLabelValues(string(step)).Set(float64(count))
}
