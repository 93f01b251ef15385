package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
)

// Run statuses.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusSkipped = "skipped"
)

// Row outcomes.
const (
	OutcomeImported = "imported"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// Bulk fallback reasons, kept low-cardinality.
const (
	ReasonSerializationFailure = "serialization_failure"
	ReasonDeadlock             = "deadlock"
	ReasonLockTimeout          = "lock_timeout"
	ReasonUniqueViolation      = "unique_violation"
	ReasonDataError            = "data_error"
	ReasonDeadlineExceeded     = "deadline_exceeded"
	ReasonUnknown              = "unknown"
)

// ImportMetrics records import runs and background jobs. A nil
// *ImportMetrics is valid and records nothing.
type ImportMetrics struct {
	runs      *prometheus.CounterVec
	rows      *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	jobs      *prometheus.CounterVec
}

// NewImportMetrics registers the import collectors on registerer, or on the
// default registerer when nil.
func NewImportMetrics(registerer prometheus.Registerer) *ImportMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &ImportMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "laundry_import_runs_total",
			Help: "Import runs by source and final status.",
		}, []string{"source", "status"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "laundry_import_rows_total",
			Help: "Import rows by source and outcome.",
		}, []string{"source", "outcome"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "laundry_import_bulk_fallbacks_total",
			Help: "Batches that fell back from the bulk upsert to row-by-row writes.",
		}, []string{"source", "reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "laundry_import_run_duration_seconds",
			Help:    "Wall time of import runs.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600, 1200, 1800},
		}, []string{"source"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "laundry_jobs_total",
			Help: "Background job executions by job and status.",
		}, []string{"job", "status"}),
	}

	registerer.MustRegister(m.runs, m.rows, m.fallbacks, m.duration, m.jobs)
	return m
}

// ObserveRun records a finished run.
func (m *ImportMetrics) ObserveRun(source, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(source, status).Inc()
	m.duration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// AddRows adds n rows with the given outcome.
func (m *ImportMetrics) AddRows(source, outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rows.WithLabelValues(source, outcome).Add(float64(n))
}

// IncBulkFallback counts one batch that left the bulk path because of err.
func (m *ImportMetrics) IncBulkFallback(source string, err error) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(source, ClassifyReason(err)).Inc()
}

// IncJob counts one job execution.
func (m *ImportMetrics) IncJob(job, status string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(job, status).Inc()
}

// ClassifyReason maps a write error onto a fallback reason label.
func ClassifyReason(err error) string {
	if err == nil {
		return ReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonDeadlineExceeded
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return ReasonUnknown
	}
	switch pgErr.Code {
	case "40001":
		return ReasonSerializationFailure
	case "40P01":
		return ReasonDeadlock
	case "55P03":
		return ReasonLockTimeout
	case "23505":
		return ReasonUniqueViolation
	}
	// Class 22 covers data exceptions such as value too long or bad numerics.
	if len(pgErr.Code) == 5 && pgErr.Code[:2] == "22" {
		return ReasonDataError
	}
	return ReasonUnknown
}
