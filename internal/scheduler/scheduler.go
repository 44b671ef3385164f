package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lucanori/invoicerr/internal/clock"
	"github.com/lucanori/invoicerr/internal/companyctx"
	invoicedomain "github.com/lucanori/invoicerr/internal/invoice/domain"
	obsmetrics "github.com/lucanori/invoicerr/internal/observability/metrics"
	recurringdomain "github.com/lucanori/invoicerr/internal/recurringinvoice/domain"
	"github.com/lucanori/invoicerr/internal/scheduler/guard"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const generateLockKey = "invoicerr:scheduler:generate_recurring"

var (
	ErrInvalidConfig = errors.New("scheduler_invalid_config")
	ErrRunInProgress = errors.New("scheduler_run_in_progress")
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	InvoiceSvc invoicedomain.Service
	GenID      *snowflake.Node
	Clock      clock.Clock
	Config     Config  `optional:"true"`
	Locker     *Locker `optional:"true"`
}

type Scheduler struct {
	db         *gorm.DB
	log        *zap.Logger
	cfg        Config
	genID      *snowflake.Node
	clock      clock.Clock
	invoiceSvc invoicedomain.Service
	locker     *Locker

	running atomic.Bool
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.InvoiceSvc == nil || p.GenID == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	cfg := p.Config.withDefaults()
	return &Scheduler{
		db:         p.DB,
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:        cfg,
		genID:      p.GenID,
		clock:      p.Clock,
		invoiceSvc: p.InvoiceSvc,
		locker:     p.Locker,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	batchSize int,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name, batchSize)
	if owner {
		s.logJobStart(run)
	}
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, time.Since(start))
	if owner {
		if err != nil && run != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(run)
	}
	if err == nil {
		return nil
	}

	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce executes one generation pass. Concurrent callers are rejected with
// ErrRunInProgress: an in-process guard covers the manual-trigger-vs-timer
// race, the redis lock covers multi-node deployments.
func (s *Scheduler) RunOnce(parent context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		obsmetrics.Scheduler().IncDefinitionSkipped(obsmetrics.SkipReasonRunInProgress)
		return ErrRunInProgress
	}
	defer s.running.Store(false)

	if s.locker != nil {
		token, ok, err := s.locker.TryLock(parent, generateLockKey, s.cfg.LockTTL)
		if err != nil {
			s.log.Warn("scheduler lock unavailable, proceeding single-node", zap.Error(err))
		} else if !ok {
			obsmetrics.Scheduler().IncDefinitionSkipped(obsmetrics.SkipReasonRunInProgress)
			return ErrRunInProgress
		} else {
			defer func() {
				if err := s.locker.Release(parent, generateLockKey, token); err != nil {
					s.log.Warn("scheduler lock release failed", zap.Error(err))
				}
			}()
		}
	}

	return s.runJob(parent, "generate_recurring", s.cfg.BatchSize, s.cfg.JobTimeout, s.GenerateRecurringJob)
}

// RunForever fires the generation run once per day at cfg.RunAt in
// cfg.Timezone until the context is canceled.
func (s *Scheduler) RunForever(ctx context.Context) {
	loc, err := time.LoadLocation(s.cfg.Timezone)
	if err != nil {
		s.log.Warn("invalid scheduler timezone, falling back to UTC",
			zap.String("timezone", s.cfg.Timezone),
			zap.Error(err),
		)
		loc = time.UTC
	}
	schedMetrics := obsmetrics.Scheduler()

	for {
		now := s.clock.Now().In(loc)
		next := time.Date(now.Year(), now.Month(), now.Day(), s.cfg.RunAt, 0, 0, 0, loc)
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if lag := time.Since(next); lag > 0 {
			schedMetrics.ObserveRunLoopLag(lag)
		}
		if err := s.RunOnce(ctx); err != nil {
			if errors.Is(err, ErrRunInProgress) {
				s.log.Info("scheduler run skipped, previous run still active")
				continue
			}
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
	}
}

// GenerateRecurringJob materializes invoices from every due definition. A
// failing definition is logged and joined into the returned error, never
// aborting the rest of the batch. Only a failing fetch aborts the run.
func (s *Scheduler) GenerateRecurringJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, "generate_recurring", s.cfg.BatchSize)
	if owner {
		s.logJobStart(run)
		defer s.logJobFinish(run)
	}

	today := s.today()
	var jobErr error
	afterID := snowflake.ID(0)

	for {
		if ctx.Err() != nil {
			return errors.Join(jobErr, ctx.Err())
		}

		definitions, err := s.fetchDueDefinitions(ctx, today, afterID, s.cfg.BatchSize)
		if err != nil {
			s.logSchedulerError(run, "scheduler.definition.fetch.failed", "generate_recurring", 0, err)
			return errors.Join(jobErr, err)
		}
		if len(definitions) == 0 {
			break
		}

		for _, def := range definitions {
			afterID = def.ID
			if ctx.Err() != nil {
				jobErr = errors.Join(jobErr, ctx.Err())
				break
			}

			s.logDefinitionClaimed("generate_recurring", def)
			generated, err := s.processDefinition(ctx, def, today)
			if err != nil {
				jobErr = errors.Join(jobErr, err)
				s.logSchedulerError(run, "scheduler.definition.process.failed", "generate_recurring", def.CompanyID, err,
					zap.String("definition_id", idString(def.ID)),
				)
				continue
			}
			if generated {
				run.AddProcessed(1)
			}
		}
	}

	return jobErr
}

// processDefinition generates one invoice for a due definition, then
// advances its schedule. Auto-send failures are swallowed: the invoice stays
// DRAFT and the schedule still advances.
func (s *Scheduler) processDefinition(ctx context.Context, def workDefinition, today time.Time) (bool, error) {
	schedMetrics := obsmetrics.Scheduler()

	if err := guard.EnsureDefinitionCanGenerate(def.NextInvoiceDate, def.Until, today); err != nil {
		return false, err
	}

	if def.Count != nil {
		generated, err := s.countGeneratedInvoices(ctx, def.ID)
		if err != nil {
			return false, err
		}
		if generated >= int64(*def.Count) {
			schedMetrics.IncDefinitionSkipped(obsmetrics.SkipReasonCountExhausted)
			s.log.Debug("definition reached its lifetime cap",
				zap.String("definition_id", idString(def.ID)),
				zap.Int("count", *def.Count),
			)
			return false, nil
		}
	}

	items, err := s.loadDefinitionItems(ctx, def.ID)
	if err != nil {
		return false, err
	}
	inputs := make([]invoicedomain.ItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, invoicedomain.ItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			VATRate:     item.VATRate,
			Position:    item.Position,
		})
	}

	ctx = companyctx.WithCompanyID(ctx, def.CompanyID)
	invoice, err := s.invoiceSvc.Create(ctx, invoicedomain.CreateInvoiceRequest{
		ClientID:           def.ClientID.String(),
		RecurringInvoiceID: def.ID.String(),
		Currency:           def.Currency,
		Notes:              def.Notes,
		PaymentMethod:      def.PaymentMethod,
		PaymentDetails:     def.PaymentDetails,
		Items:              inputs,
	})
	if err != nil {
		return false, err
	}
	schedMetrics.IncInvoiceGenerated()
	s.logInvoiceGenerated(def, invoice.ID, invoice.Number)

	if def.AutoSend {
		if _, err := s.invoiceSvc.SendByEmail(ctx, invoice.ID.String()); err != nil {
			schedMetrics.IncAutoSendFailure()
			s.log.Warn("auto-send failed, invoice left unsent",
				zap.String("definition_id", idString(def.ID)),
				zap.String("invoice_id", idString(invoice.ID)),
				zap.Error(err),
			)
		}
	}

	from := def.NextInvoiceDate
	if from.IsZero() {
		from = today
	}
	next := recurringdomain.NextOccurrence(from, def.Frequency)
	if err := s.advanceSchedule(ctx, def.ID, next, today); err != nil {
		return false, err
	}

	return true, nil
}

// today is midnight UTC of the current date in the scheduler timezone.
func (s *Scheduler) today() time.Time {
	loc, err := time.LoadLocation(s.cfg.Timezone)
	if err != nil {
		loc = time.UTC
	}
	now := s.clock.Now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
