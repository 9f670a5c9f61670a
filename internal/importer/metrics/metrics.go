package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the import reconciler.
type Metrics struct {
	// Record outcomes per batch, by disposition
	RecordsImported prometheus.Counter
	RecordsSkipped  prometheus.Counter

	// Failures by classification code
	RecordsFailed *prometheus.CounterVec

	// End-to-end batch duration
	BatchDuration prometheus.Histogram
}

// New creates a Metrics instance with all import reconciler metrics registered.
func New() *Metrics {
	return &Metrics{
		RecordsImported: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vendorgate_import_records_imported_total",
			Help: "Total external records imported, whether created or merged into an existing vendor",
		}),

		RecordsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vendorgate_import_records_skipped_total",
			Help: "Total external records skipped because of a per-record failure",
		}),

		RecordsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vendorgate_import_records_failed_total",
			Help: "Total external records that failed, by classification code",
		}, []string{"code"}), // code: "duplicate", "validation", "mapping", "permission", "network"

		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vendorgate_import_batch_duration_seconds",
			Help:    "Duration of a full import batch including all record fetches",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// AddImported records successfully imported records, created or merged.
func (m *Metrics) AddImported(n int) {
	if m != nil {
		m.RecordsImported.Add(float64(n))
	}
}

// AddSkipped records per-record failures that were isolated from the batch.
func (m *Metrics) AddSkipped(n int) {
	if m != nil {
		m.RecordsSkipped.Add(float64(n))
	}
}

// IncrementFailed records one failed record under its classification code.
func (m *Metrics) IncrementFailed(code string) {
	if m != nil {
		m.RecordsFailed.WithLabelValues(code).Inc()
	}
}

// ObserveBatchDuration records the total batch duration.
func (m *Metrics) ObserveBatchDuration(d time.Duration) {
	if m != nil {
		m.BatchDuration.Observe(d.Seconds())
	}
}
