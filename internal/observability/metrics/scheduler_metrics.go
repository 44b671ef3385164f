package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	schedulerErrorTypeDeadlineExceeded = "deadline_exceeded"
	schedulerErrorTypeBusinessRule     = "business_rule"
	schedulerErrorTypeDB               = "db"
)

const (
	SkipReasonCountExhausted = "count_exhausted"
	SkipReasonRunInProgress  = "run_in_progress"
)

// Config carries constant labels stamped on every scheduler metric.
type Config struct {
	ServiceName string
	Environment string
}

// SchedulerMetrics captures recurring-invoice scheduler health signals.
type SchedulerMetrics struct {
	jobRuns            *prometheus.CounterVec
	jobDuration        *prometheus.HistogramVec
	jobTimeouts        *prometheus.CounterVec
	jobErrors          *prometheus.CounterVec
	invoicesGenerated  prometheus.Counter
	definitionsSkipped *prometheus.CounterVec
	autoSendFailures   prometheus.Counter
	runLoopLag         prometheus.Observer
}

var (
	schedulerMetricsOnce sync.Once
	schedulerMetrics     *SchedulerMetrics
)

// Scheduler returns the singleton scheduler metrics registry.
func Scheduler() *SchedulerMetrics {
	return SchedulerWithConfig(Config{})
}

// SchedulerWithConfig returns the singleton scheduler metrics registry using config labels.
func SchedulerWithConfig(cfg Config) *SchedulerMetrics {
	schedulerMetricsOnce.Do(func() {
		schedulerMetrics = NewSchedulerMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return schedulerMetrics
}

// ResetSchedulerMetricsForTest resets the scheduler metrics singleton for tests.
func ResetSchedulerMetricsForTest() {
	schedulerMetricsOnce = sync.Once{}
	schedulerMetrics = nil
}

// NewSchedulerMetrics builds scheduler metrics on the given registerer. Tests
// pass a private registry to avoid cross-test pollution.
func NewSchedulerMetrics(registerer prometheus.Registerer, cfg Config) *SchedulerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "invoicerr"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	jobRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "invoicerr_scheduler_job_runs_total",
		Help:        "Scheduler job runs by name.",
		ConstLabels: constLabels,
	}, []string{"job"})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "invoicerr_scheduler_job_duration_seconds",
		Help:        "Scheduler job latency.",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		ConstLabels: constLabels,
	}, []string{"job"})
	jobTimeouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "invoicerr_scheduler_job_timeouts_total",
		Help:        "Scheduler jobs that hit their deadline.",
		ConstLabels: constLabels,
	}, []string{"job"})
	jobErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "invoicerr_scheduler_job_errors_total",
		Help:        "Scheduler job errors by type.",
		ConstLabels: constLabels,
	}, []string{"job", "error_type"})
	invoicesGenerated := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "invoicerr_recurring_invoices_generated_total",
		Help:        "Invoices materialized from recurring definitions.",
		ConstLabels: constLabels,
	})
	definitionsSkipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "invoicerr_recurring_definitions_skipped_total",
		Help:        "Due definitions skipped by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"reason"})
	autoSendFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "invoicerr_recurring_auto_send_failures_total",
		Help:        "Auto-send delivery failures, which never block generation.",
		ConstLabels: constLabels,
	})
	runLoopLag := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "invoicerr_scheduler_runloop_lag_seconds",
		Help:        "Scheduler run loop lag beyond the configured fire time.",
		Buckets:     []float64{0.01, 0.1, 0.5, 1, 5, 30, 60, 300, 1800},
		ConstLabels: constLabels,
	})

	registerer.MustRegister(
		jobRuns,
		jobDuration,
		jobTimeouts,
		jobErrors,
		invoicesGenerated,
		definitionsSkipped,
		autoSendFailures,
		runLoopLag,
	)

	return &SchedulerMetrics{
		jobRuns:            jobRuns,
		jobDuration:        jobDuration,
		jobTimeouts:        jobTimeouts,
		jobErrors:          jobErrors,
		invoicesGenerated:  invoicesGenerated,
		definitionsSkipped: definitionsSkipped,
		autoSendFailures:   autoSendFailures,
		runLoopLag:         runLoopLag,
	}
}

// IncJobRun increments the run counter for a scheduler job.
func (m *SchedulerMetrics) IncJobRun(job string) {
	if m == nil || m.jobRuns == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

// ObserveJobDuration records scheduler job latency in seconds.
func (m *SchedulerMetrics) ObserveJobDuration(job string, duration time.Duration) {
	if m == nil || m.jobDuration == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// IncJobTimeout increments the timeout counter for the scheduler job.
func (m *SchedulerMetrics) IncJobTimeout(job string) {
	if m == nil || m.jobTimeouts == nil {
		return
	}
	m.jobTimeouts.WithLabelValues(job).Inc()
}

// IncJobError increments the scheduler job error counter with classification.
func (m *SchedulerMetrics) IncJobError(job string, err error) {
	if m == nil || m.jobErrors == nil || err == nil {
		return
	}
	m.jobErrors.WithLabelValues(job, ClassifySchedulerErrorType(err)).Inc()
}

// IncInvoiceGenerated counts one materialized recurring invoice.
func (m *SchedulerMetrics) IncInvoiceGenerated() {
	if m == nil || m.invoicesGenerated == nil {
		return
	}
	m.invoicesGenerated.Inc()
}

// IncDefinitionSkipped counts a due definition skipped for the given reason.
func (m *SchedulerMetrics) IncDefinitionSkipped(reason string) {
	if m == nil || m.definitionsSkipped == nil {
		return
	}
	m.definitionsSkipped.WithLabelValues(reason).Inc()
}

// IncAutoSendFailure counts a swallowed auto-send delivery failure.
func (m *SchedulerMetrics) IncAutoSendFailure() {
	if m == nil || m.autoSendFailures == nil {
		return
	}
	m.autoSendFailures.Inc()
}

// ObserveRunLoopLag records lag between the scheduled fire time and actual run start.
func (m *SchedulerMetrics) ObserveRunLoopLag(duration time.Duration) {
	if m == nil || m.runLoopLag == nil {
		return
	}
	lag := duration
	if lag < 0 {
		lag = 0
	}
	m.runLoopLag.Observe(lag.Seconds())
}

// ClassifySchedulerErrorType returns a low-cardinality error type for logging.
func ClassifySchedulerErrorType(err error) string {
	if err == nil {
		return schedulerErrorTypeBusinessRule
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return schedulerErrorTypeDeadlineExceeded
	}
	if isDBError(err) {
		return schedulerErrorTypeDB
	}
	return schedulerErrorTypeBusinessRule
}

// IsSchedulerErrorRetryable reports whether the scheduler error should be retried.
func IsSchedulerErrorRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	return isDBError(err)
}

func isDBError(err error) bool {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}
	if errors.Is(err, gorm.ErrInvalidDB) ||
		errors.Is(err, gorm.ErrInvalidTransaction) ||
		errors.Is(err, gorm.ErrMissingWhereClause) ||
		errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr)
}
