package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	clientdomain "github.com/lucanori/invoicerr/internal/client/domain"
	"github.com/lucanori/invoicerr/internal/clock"
	"github.com/lucanori/invoicerr/internal/companyctx"
	invoicedomain "github.com/lucanori/invoicerr/internal/invoice/domain"
	invoiceservice "github.com/lucanori/invoicerr/internal/invoice/service"
	obsmetrics "github.com/lucanori/invoicerr/internal/observability/metrics"
	recurringdomain "github.com/lucanori/invoicerr/internal/recurringinvoice/domain"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func swapPrometheusRegistry(t *testing.T) *prometheus.Registry {
	t.Helper()

	registry := prometheus.NewRegistry()
	origRegisterer := prometheus.DefaultRegisterer
	origGatherer := prometheus.DefaultGatherer
	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
	obsmetrics.ResetSchedulerMetricsForTest()

	t.Cleanup(func() {
		prometheus.DefaultRegisterer = origRegisterer
		prometheus.DefaultGatherer = origGatherer
		obsmetrics.ResetSchedulerMetricsForTest()
	})
	return registry
}

func getCounterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if labelsMatch(metric.GetLabel(), labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(have []*dto.LabelPair, want map[string]string) bool {
	for key, value := range want {
		found := false
		for _, pair := range have {
			if pair.GetName() == key && pair.GetValue() == value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type fakeInvoiceService struct {
	mu        sync.Mutex
	node      *snowflake.Node
	created   []invoicedomain.CreateInvoiceRequest
	companies []snowflake.ID
	sent      []string
	createErr func(invoicedomain.CreateInvoiceRequest) error
	sendErr   error

	// Set to observe and stall Create from a concurrency test.
	started chan struct{}
	block   chan struct{}
}

func (f *fakeInvoiceService) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		if err := f.createErr(req); err != nil {
			return invoicedomain.Invoice{}, err
		}
	}
	companyID, _ := companyctx.CompanyIDFromContext(ctx)
	f.companies = append(f.companies, companyID)
	f.created = append(f.created, req)
	return invoicedomain.Invoice{
		ID:     f.node.Generate(),
		Number: fmt.Sprintf("INV-2026-%04d", len(f.created)),
		Status: invoicedomain.InvoiceStatusDraft,
	}, nil
}

func (f *fakeInvoiceService) SendByEmail(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return invoicedomain.Invoice{}, f.sendErr
	}
	f.sent = append(f.sent, id)
	return invoicedomain.Invoice{Status: invoicedomain.InvoiceStatusSent}, nil
}

func (f *fakeInvoiceService) Update(context.Context, invoicedomain.UpdateInvoiceRequest) (invoicedomain.Invoice, error) {
	return invoicedomain.Invoice{}, nil
}

func (f *fakeInvoiceService) Delete(context.Context, string) error { return nil }

func (f *fakeInvoiceService) MarkAsPaid(context.Context, string) (invoicedomain.Invoice, error) {
	return invoicedomain.Invoice{}, nil
}

func (f *fakeInvoiceService) MarkAsSent(context.Context, string) (invoicedomain.Invoice, error) {
	return invoicedomain.Invoice{}, nil
}

func (f *fakeInvoiceService) CreateFromQuote(context.Context, string) (invoicedomain.Invoice, error) {
	return invoicedomain.Invoice{}, nil
}

func (f *fakeInvoiceService) List(context.Context, invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	return invoicedomain.ListInvoiceResponse{}, nil
}

func (f *fakeInvoiceService) GetByID(context.Context, string) (invoicedomain.Invoice, error) {
	return invoicedomain.Invoice{}, nil
}

func (f *fakeInvoiceService) createdRequests() []invoicedomain.CreateInvoiceRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]invoicedomain.CreateInvoiceRequest(nil), f.created...)
}

type schedulerEnv struct {
	db    *gorm.DB
	sched *Scheduler
	fake  *fakeInvoiceService
	clock *clock.FakeClock
	node  *snowflake.Node
}

func newSchedulerEnv(t *testing.T) *schedulerEnv {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.AutoMigrate(
		&recurringdomain.RecurringInvoice{},
		&recurringdomain.RecurringInvoiceItem{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fakeClock := clock.NewFakeClock(time.Date(2026, time.April, 1, 12, 0, 0, 0, time.UTC))
	fake := &fakeInvoiceService{node: node}

	sched, err := New(Params{
		DB:         conn,
		Log:        zap.NewNop(),
		InvoiceSvc: fake,
		GenID:      node,
		Clock:      fakeClock,
		Config: Config{
			RunAt:      9,
			Timezone:   "UTC",
			BatchSize:  10,
			JobTimeout: time.Minute,
			LockTTL:    time.Minute,
		},
	})
	require.NoError(t, err)

	return &schedulerEnv{db: conn, sched: sched, fake: fake, clock: fakeClock, node: node}
}

func (e *schedulerEnv) today() time.Time {
	now := e.clock.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (e *schedulerEnv) seedDefinition(t *testing.T, mutate func(*recurringdomain.RecurringInvoice)) recurringdomain.RecurringInvoice {
	t.Helper()

	def := recurringdomain.RecurringInvoice{
		ID:              e.node.Generate(),
		CompanyID:       e.node.Generate(),
		ClientID:        e.node.Generate(),
		Frequency:       recurringdomain.FrequencyMonthly,
		NextInvoiceDate: e.today(),
		Currency:        "EUR",
		IsActive:        true,
		CreatedAt:       e.clock.Now(),
		UpdatedAt:       e.clock.Now(),
	}
	if mutate != nil {
		mutate(&def)
	}
	require.NoError(t, e.db.Create(&def).Error)
	require.NoError(t, e.db.Create(&recurringdomain.RecurringInvoiceItem{
		ID:                 e.node.Generate(),
		RecurringInvoiceID: def.ID,
		Description:        "Monthly retainer",
		Quantity:           1,
		UnitPrice:          100,
		VATRate:            20,
		CreatedAt:          e.clock.Now(),
	}).Error)
	return def
}

func (e *schedulerEnv) reloadDefinition(t *testing.T, id snowflake.ID) recurringdomain.RecurringInvoice {
	t.Helper()
	var def recurringdomain.RecurringInvoice
	require.NoError(t, e.db.First(&def, "id = ?", id).Error)
	return def
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Params{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRunOnceGeneratesDueDefinitions(t *testing.T) {
	registry := swapPrometheusRegistry(t)
	env := newSchedulerEnv(t)

	due := env.seedDefinition(t, nil)
	future := env.seedDefinition(t, func(def *recurringdomain.RecurringInvoice) {
		def.NextInvoiceDate = env.today().AddDate(0, 0, 5)
	})

	require.NoError(t, env.sched.RunOnce(context.Background()))

	created := env.fake.createdRequests()
	require.Len(t, created, 1)
	assert.Equal(t, due.ID.String(), created[0].RecurringInvoiceID)
	assert.Equal(t, due.ClientID.String(), created[0].ClientID)
	assert.Equal(t, "EUR", created[0].Currency)
	require.Len(t, created[0].Items, 1)
	assert.Equal(t, "Monthly retainer", created[0].Items[0].Description)
	assert.Equal(t, []snowflake.ID{due.CompanyID}, env.fake.companies)

	advanced := env.reloadDefinition(t, due.ID)
	assert.True(t, advanced.NextInvoiceDate.Equal(time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)))
	require.NotNil(t, advanced.LastInvoiceDate)
	assert.True(t, advanced.LastInvoiceDate.Equal(env.today()))

	untouched := env.reloadDefinition(t, future.ID)
	assert.True(t, untouched.NextInvoiceDate.Equal(future.NextInvoiceDate))
	assert.Nil(t, untouched.LastInvoiceDate)

	assert.Equal(t, 1.0, getCounterValue(t, registry, "invoicerr_recurring_invoices_generated_total", nil))
	assert.Equal(t, 1.0, getCounterValue(t, registry, "invoicerr_scheduler_job_runs_total", map[string]string{"job": "generate_recurring"}))
}

func TestRunOnceSkipsExpiredAndInactiveDefinitions(t *testing.T) {
	swapPrometheusRegistry(t)
	env := newSchedulerEnv(t)

	yesterday := env.today().AddDate(0, 0, -1)
	env.seedDefinition(t, func(def *recurringdomain.RecurringInvoice) {
		def.Until = &yesterday
	})
	env.seedDefinition(t, func(def *recurringdomain.RecurringInvoice) {
		def.IsActive = false
	})

	require.NoError(t, env.sched.RunOnce(context.Background()))
	assert.Empty(t, env.fake.createdRequests())
}

func TestRunOnceHonorsLifetimeCap(t *testing.T) {
	registry := swapPrometheusRegistry(t)
	env := newSchedulerEnv(t)

	count := 2
	def := env.seedDefinition(t, func(def *recurringdomain.RecurringInvoice) {
		def.Count = &count
	})

	// Two prior generations, one of them soft-deleted. Both count.
	for i, active := range []bool{true, false} {
		defID := def.ID
		require.NoError(t, env.db.Create(&invoicedomain.Invoice{
			ID:                 env.node.Generate(),
			CompanyID:          def.CompanyID,
			ClientID:           def.ClientID,
			RecurringInvoiceID: &defID,
			Number:             fmt.Sprintf("INV-2026-%04d", i+1),
			Status:             invoicedomain.InvoiceStatusDraft,
			Currency:           "EUR",
			IsActive:           active,
			DueAt:              env.clock.Now(),
			Metadata:           datatypes.JSONMap{},
			CreatedAt:          env.clock.Now(),
			UpdatedAt:          env.clock.Now(),
		}).Error)
	}

	require.NoError(t, env.sched.RunOnce(context.Background()))

	assert.Empty(t, env.fake.createdRequests())
	untouched := env.reloadDefinition(t, def.ID)
	assert.True(t, untouched.NextInvoiceDate.Equal(env.today()))
	assert.Equal(t, 1.0, getCounterValue(t, registry, "invoicerr_recurring_definitions_skipped_total", map[string]string{"reason": obsmetrics.SkipReasonCountExhausted}))
}

func TestRunOnceIsolatesFailingDefinitions(t *testing.T) {
	swapPrometheusRegistry(t)
	env := newSchedulerEnv(t)

	first := env.seedDefinition(t, nil)
	failing := env.seedDefinition(t, nil)
	last := env.seedDefinition(t, nil)

	env.fake.createErr = func(req invoicedomain.CreateInvoiceRequest) error {
		if req.RecurringInvoiceID == failing.ID.String() {
			return errors.New("client gone")
		}
		return nil
	}

	err := env.sched.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client gone")

	created := env.fake.createdRequests()
	require.Len(t, created, 2)
	assert.Equal(t, first.ID.String(), created[0].RecurringInvoiceID)
	assert.Equal(t, last.ID.String(), created[1].RecurringInvoiceID)

	// The failing definition stays due and is retried next run.
	stuck := env.reloadDefinition(t, failing.ID)
	assert.True(t, stuck.NextInvoiceDate.Equal(env.today()))
	assert.Nil(t, stuck.LastInvoiceDate)

	for _, id := range []snowflake.ID{first.ID, last.ID} {
		advanced := env.reloadDefinition(t, id)
		assert.True(t, advanced.NextInvoiceDate.After(env.today()))
	}
}

func TestRunOnceAutoSendFailureDoesNotBlockGeneration(t *testing.T) {
	registry := swapPrometheusRegistry(t)
	env := newSchedulerEnv(t)

	def := env.seedDefinition(t, func(def *recurringdomain.RecurringInvoice) {
		def.AutoSend = true
	})
	env.fake.sendErr = errors.New("smtp down")

	require.NoError(t, env.sched.RunOnce(context.Background()))

	assert.Len(t, env.fake.createdRequests(), 1)
	advanced := env.reloadDefinition(t, def.ID)
	assert.True(t, advanced.NextInvoiceDate.After(env.today()))

	assert.Equal(t, 1.0, getCounterValue(t, registry, "invoicerr_recurring_auto_send_failures_total", nil))
	assert.Equal(t, 1.0, getCounterValue(t, registry, "invoicerr_recurring_invoices_generated_total", nil))
}

func TestRunOnceAutoSendDeliversWhenSenderHealthy(t *testing.T) {
	swapPrometheusRegistry(t)
	env := newSchedulerEnv(t)

	env.seedDefinition(t, func(def *recurringdomain.RecurringInvoice) {
		def.AutoSend = true
	})

	require.NoError(t, env.sched.RunOnce(context.Background()))
	assert.Len(t, env.fake.sent, 1)
}

func TestRunOnceRejectsConcurrentRuns(t *testing.T) {
	registry := swapPrometheusRegistry(t)
	env := newSchedulerEnv(t)

	env.seedDefinition(t, nil)
	env.fake.started = make(chan struct{})
	env.fake.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- env.sched.RunOnce(context.Background())
	}()

	<-env.fake.started
	assert.ErrorIs(t, env.sched.RunOnce(context.Background()), ErrRunInProgress)

	close(env.fake.block)
	require.NoError(t, <-done)

	assert.Equal(t, 1.0, getCounterValue(t, registry, "invoicerr_recurring_definitions_skipped_total", map[string]string{"reason": obsmetrics.SkipReasonRunInProgress}))
}

func TestRunOnceTimeoutIsSoft(t *testing.T) {
	registry := swapPrometheusRegistry(t)
	env := newSchedulerEnv(t)
	env.sched.cfg.JobTimeout = time.Nanosecond

	env.seedDefinition(t, nil)

	require.NoError(t, env.sched.RunOnce(context.Background()))
	assert.Empty(t, env.fake.createdRequests())
	assert.Equal(t, 1.0, getCounterValue(t, registry, "invoicerr_scheduler_job_timeouts_total", map[string]string{"job": "generate_recurring"}))
}

// End-to-end run against the real invoice service: the generated invoice gets
// a real number and the definition is no longer due on the next pass.
func TestRunOnceEndToEnd(t *testing.T) {
	swapPrometheusRegistry(t)
	env := newSchedulerEnv(t)

	require.NoError(t, env.db.AutoMigrate(&clientdomain.Client{}))
	svc := invoiceservice.NewService(invoiceservice.ServiceParam{
		DB:    env.db,
		Log:   zap.NewNop(),
		GenID: env.node,
		Clock: env.clock,
	})
	env.sched.invoiceSvc = svc

	def := env.seedDefinition(t, nil)
	require.NoError(t, env.db.Create(&clientdomain.Client{
		ID:        def.ClientID,
		CompanyID: def.CompanyID,
		Name:      "ACME",
		Email:     "billing@acme.test",
		Currency:  "EUR",
		IsActive:  true,
		Metadata:  datatypes.JSONMap{},
	}).Error)

	require.NoError(t, env.sched.RunOnce(context.Background()))

	var invoices []invoicedomain.Invoice
	require.NoError(t, env.db.Find(&invoices, "recurring_invoice_id = ?", def.ID).Error)
	require.Len(t, invoices, 1)
	assert.Equal(t, "INV-2026-0001", invoices[0].Number)
	assert.Equal(t, invoicedomain.InvoiceStatusDraft, invoices[0].Status)
	assert.InDelta(t, 100.0, invoices[0].TotalHT, 1e-9)
	assert.InDelta(t, 120.0, invoices[0].TotalTTC, 1e-9)

	// Advanced a month out, so the same day never double-bills.
	require.NoError(t, env.sched.RunOnce(context.Background()))
	require.NoError(t, env.db.Find(&invoices, "recurring_invoice_id = ?", def.ID).Error)
	assert.Len(t, invoices, 1)
}
