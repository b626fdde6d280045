package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const prefix = "leads_import_"

var batchesWrittenCounter = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: prefix + "batches_written_total",
		Help: "Number of lead batches committed through bulk_insert_leads",
	},
)

var rowsWrittenCounter = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: prefix + "rows_written_total",
		Help: "Number of lead rows committed through bulk_insert_leads",
	},
)

var batchFailuresCounter = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: prefix + "batch_failures_total",
		Help: "Number of lead batches rejected by the store",
	},
)

var batchWriteHist = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    prefix + "batch_write_seconds",
		Help:    "Latency of one bulk_insert_leads call in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	},
)

var jobsCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: prefix + "jobs_total",
		Help: "Number of import jobs finished, by final status",
	},
	[]string{"status"},
)

var jobDurationHist = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    prefix + "job_duration_seconds",
		Help:    "Wall time from claim to final status in seconds",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
	},
)

var pollErrorsCounter = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: prefix + "poll_errors_total",
		Help: "Number of scheduler iterations that ended in an error",
	},
)

var reclaimedJobsCounter = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: prefix + "reclaimed_jobs_total",
		Help: "Number of stale processing jobs reset to pending",
	},
)

// Metrics records worker activity into the process-wide Prometheus registry.
type Metrics struct{}

var m = &Metrics{}

func Get() *Metrics {
	return m
}

func (m *Metrics) RecordBatchWritten(rows int, duration time.Duration) {
	batchesWrittenCounter.Inc()
	rowsWrittenCounter.Add(float64(rows))
	batchWriteHist.Observe(duration.Seconds())
}

func (m *Metrics) RecordBatchFailed(duration time.Duration) {
	batchFailuresCounter.Inc()
	batchWriteHist.Observe(duration.Seconds())
}

func (m *Metrics) RecordJobFinished(status string, duration time.Duration) {
	jobsCounter.WithLabelValues(status).Inc()
	jobDurationHist.Observe(duration.Seconds())
}

func (m *Metrics) RecordPollError() {
	pollErrorsCounter.Inc()
}

func (m *Metrics) RecordReclaimed(n int64) {
	reclaimedJobsCounter.Add(float64(n))
}
