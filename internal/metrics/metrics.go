package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters for the reconciler.
type Metrics struct {
	pipelineRuns      prometheus.Counter
	operationsFetched prometheus.Counter
	operationsSaved   prometheus.Counter
	recordsSkipped    prometheus.Counter
	clientRetries     prometheus.Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// Init initializes global metrics (idempotent).
func Init() *Metrics {
	once.Do(func() {
		metrics = &Metrics{
			pipelineRuns: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "reconciler_pipeline_runs_total",
				Help: "Total number of completed reconciliation runs",
			}),
			operationsFetched: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "reconciler_operations_fetched_total",
				Help: "Total number of operation candidates fetched from the explorer",
			}),
			operationsSaved: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "reconciler_operations_saved_total",
				Help: "Total number of operations persisted to the store",
			}),
			recordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "reconciler_records_skipped_total",
				Help: "Total number of records dropped by decode or enrichment checks",
			}),
			clientRetries: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "reconciler_client_retries_total",
				Help: "Total number of explorer client retries on nonzero response codes",
			}),
		}
		prometheus.MustRegister(
			metrics.pipelineRuns,
			metrics.operationsFetched,
			metrics.operationsSaved,
			metrics.recordsSkipped,
			metrics.clientRetries,
		)
	})
	return metrics
}

// PipelineRuns increments the completed runs counter.
func (m *Metrics) PipelineRuns() {
	if m != nil {
		m.pipelineRuns.Inc()
	}
}

// OperationsFetched adds to the fetched candidates counter.
func (m *Metrics) OperationsFetched(n int) {
	if m != nil {
		m.operationsFetched.Add(float64(n))
	}
}

// OperationsSaved adds to the persisted operations counter.
func (m *Metrics) OperationsSaved(n int) {
	if m != nil {
		m.operationsSaved.Add(float64(n))
	}
}

// RecordsSkipped adds to the skipped records counter.
func (m *Metrics) RecordsSkipped(n int) {
	if m != nil && n > 0 {
		m.recordsSkipped.Add(float64(n))
	}
}

// ClientRetries increments the explorer retry counter.
func (m *Metrics) ClientRetries() {
	if m != nil {
		m.clientRetries.Inc()
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
