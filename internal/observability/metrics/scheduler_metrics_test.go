package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNewSchedulerMetricsStampsConstLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewSchedulerMetrics(registry, Config{ServiceName: "invoicerr-api", Environment: "test"})

	m.IncJobRun("generate_recurring")
	m.IncJobError("generate_recurring", gorm.ErrDuplicatedKey)
	m.IncDefinitionSkipped(SkipReasonCountExhausted)
	m.IncInvoiceGenerated()
	m.IncAutoSendFailure()
	m.ObserveJobDuration("generate_recurring", 250*time.Millisecond)
	m.ObserveRunLoopLag(-time.Second)

	families, err := registry.Gather()
	require.NoError(t, err)

	byName := make(map[string]bool, len(families))
	for _, family := range families {
		byName[family.GetName()] = true
		for _, metric := range family.GetMetric() {
			labels := make(map[string]string)
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			assert.Equal(t, "invoicerr-api", labels["service"])
			assert.Equal(t, "test", labels["env"])
		}
	}
	assert.True(t, byName["invoicerr_scheduler_job_runs_total"])
	assert.True(t, byName["invoicerr_scheduler_job_errors_total"])
	assert.True(t, byName["invoicerr_recurring_definitions_skipped_total"])
	assert.True(t, byName["invoicerr_recurring_invoices_generated_total"])
	assert.True(t, byName["invoicerr_recurring_auto_send_failures_total"])
	assert.True(t, byName["invoicerr_scheduler_job_duration_seconds"])
	assert.True(t, byName["invoicerr_scheduler_runloop_lag_seconds"])
}

func TestNewSchedulerMetricsDefaultsEmptyConfig(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewSchedulerMetrics(registry, Config{})
	m.IncJobRun("generate_recurring")

	families, err := registry.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)

	labels := make(map[string]string)
	for _, pair := range families[0].GetMetric()[0].GetLabel() {
		labels[pair.GetName()] = pair.GetValue()
	}
	assert.Equal(t, "invoicerr", labels["service"])
	assert.Equal(t, "unknown", labels["env"])
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *SchedulerMetrics
	m.IncJobRun("generate_recurring")
	m.IncJobError("generate_recurring", errors.New("boom"))
	m.IncJobTimeout("generate_recurring")
	m.IncInvoiceGenerated()
	m.IncDefinitionSkipped(SkipReasonRunInProgress)
	m.IncAutoSendFailure()
	m.ObserveJobDuration("generate_recurring", time.Second)
	m.ObserveRunLoopLag(time.Second)
}

func TestClassifySchedulerErrorType(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, schedulerErrorTypeBusinessRule},
		{"deadline", context.DeadlineExceeded, schedulerErrorTypeDeadlineExceeded},
		{"wrapped_canceled", fmt.Errorf("run: %w", context.Canceled), schedulerErrorTypeDeadlineExceeded},
		{"duplicate_key", gorm.ErrDuplicatedKey, schedulerErrorTypeDB},
		{"pg_error", &pgconn.PgError{Code: "40001"}, schedulerErrorTypeDB},
		{"record_not_found", gorm.ErrRecordNotFound, schedulerErrorTypeBusinessRule},
		{"business", errors.New("definition_not_due"), schedulerErrorTypeBusinessRule},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifySchedulerErrorType(tc.err))
		})
	}
}

func TestIsSchedulerErrorRetryable(t *testing.T) {
	assert.False(t, IsSchedulerErrorRetryable(nil))
	assert.False(t, IsSchedulerErrorRetryable(errors.New("invalid_client")))
	assert.False(t, IsSchedulerErrorRetryable(gorm.ErrRecordNotFound))
	assert.True(t, IsSchedulerErrorRetryable(context.DeadlineExceeded))
	assert.True(t, IsSchedulerErrorRetryable(fmt.Errorf("tx: %w", gorm.ErrInvalidTransaction)))
	assert.True(t, IsSchedulerErrorRetryable(&pgconn.PgError{Code: "57014"}))
}
