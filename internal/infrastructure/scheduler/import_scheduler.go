package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/bibbank/origination/internal/application/dto"
)

// ImportScheduling queues an import job. *usecase.ScheduleImportUseCase implements it.
type ImportScheduling interface {
	Execute(ctx context.Context, req dto.ScheduleImportRequest) (dto.ImportJobResponse, error)
}

// ImportScheduler queues the same import on a cron schedule.
type ImportScheduler struct {
	cron     *cron.Cron
	schedule ImportScheduling
	req      dto.ScheduleImportRequest
	logger   *slog.Logger
}

// NewImportScheduler validates expr (standard five fields or descriptors such as "@daily").
func NewImportScheduler(expr string, schedule ImportScheduling, req dto.ScheduleImportRequest, logger *slog.Logger) (*ImportScheduler, error) {
	s := &ImportScheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		schedule: schedule,
		req:      req,
		logger:   logger,
	}
	if _, err := s.cron.AddFunc(expr, func() { s.Trigger(context.Background()) }); err != nil {
		return nil, fmt.Errorf("parse import schedule %q: %w", expr, err)
	}
	return s, nil
}

// Trigger queues one import now. Failures are logged; the next tick retries.
func (s *ImportScheduler) Trigger(ctx context.Context) {
	job, err := s.schedule.Execute(ctx, s.req)
	if err != nil {
		s.logger.ErrorContext(ctx, "scheduled import not queued", "error", err)
		return
	}
	s.logger.InfoContext(ctx, "scheduled import queued", "job_id", job.JobID, "kind", job.Kind)
}

// Run starts the schedule and blocks until ctx is done and any running trigger returns.
func (s *ImportScheduler) Run(ctx context.Context) {
	s.cron.Start()
	s.logger.Info("import scheduler started", "next", s.cron.Entries()[0].Next)
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("import scheduler stopped")
}
