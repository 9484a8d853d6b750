package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	payrollDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/payroll"
	"github.com/frahmantamala/payroll-engine/internal/disbursement"
)

type DueLister interface {
	Due(ctx context.Context) ([]payrollDatamodel.Payroll, error)
}

type Processor interface {
	Process(ctx context.Context, companyID, payrollID int64) (*disbursement.Result, error)
}

// Summary counts the outcome of one tick.
type Summary struct {
	Due       int
	Processed int
	Skipped   int
}

// Scheduler runs due pending payrolls on a cron spec. A tick that fires while
// the previous one is still running is skipped.
type Scheduler struct {
	spec      string
	due       DueLister
	processor Processor
	logger    *slog.Logger
	cron      *cron.Cron
	mu        sync.Mutex
}

func New(spec string, due DueLister, processor Processor, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		spec:      spec,
		due:       due,
		processor: processor,
		logger:    logger,
	}
}

// Start registers the job and starts the cron loop. Ticks run with ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{s.logger})))
	_, err := c.AddFunc(s.spec, func() {
		if _, err := s.RunDue(ctx); err != nil {
			s.logger.Error("scheduled payroll run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid scheduler spec %q: %w", s.spec, err)
	}
	s.cron = c
	c.Start()
	s.logger.Info("payroll scheduler started", "spec", s.spec)
	return nil
}

// Stop stops scheduling and returns a context that is done once a running
// tick has finished.
func (s *Scheduler) Stop() context.Context {
	if s.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return s.cron.Stop()
}

// RunDue processes every pending payroll whose next run has passed. One
// payroll failing does not stop the others.
func (s *Scheduler) RunDue(ctx context.Context) (Summary, error) {
	if !s.mu.TryLock() {
		s.logger.Warn("previous payroll run still in progress, skipping tick")
		return Summary{}, nil
	}
	defer s.mu.Unlock()

	batches, err := s.due.Due(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list due payrolls: %w", err)
	}

	summary := Summary{Due: len(batches)}
	for _, p := range batches {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result, err := s.processor.Process(ctx, p.CompanyID, p.ID)
		if err != nil {
			summary.Skipped++
			s.logger.Warn("scheduled payroll not processed",
				"payroll_id", p.ID,
				"company_id", p.CompanyID,
				"error", err)
			continue
		}
		summary.Processed++
		s.logger.Info("scheduled payroll processed",
			"payroll_id", p.ID,
			"status", result.Status,
			"successful", result.Successful,
			"failed", result.Failed)
	}

	s.logger.Info("scheduled payroll run finished",
		"due", summary.Due,
		"processed", summary.Processed,
		"skipped", summary.Skipped)
	return summary, nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
