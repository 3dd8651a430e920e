package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/bibbank/origination/internal/application/dto"
	"github.com/bibbank/origination/internal/domain/event"
	"github.com/bibbank/origination/internal/domain/model"
	"github.com/bibbank/origination/internal/domain/port"
	"github.com/bibbank/origination/internal/domain/valueobject"
)

// ErrImportFileMissing is returned when a workbook to import does not exist on the server.
var ErrImportFileMissing = errors.New("import file not found")

// ---------------------------------------------------------------------------
// ScheduleImportUseCase
// ---------------------------------------------------------------------------

// ScheduleImportUseCase records a PENDING import job and hands it to the queue.
type ScheduleImportUseCase struct {
	store port.ImportJobStore
	queue port.ImportQueue
}

// NewScheduleImportUseCase wires dependencies.
func NewScheduleImportUseCase(store port.ImportJobStore, queue port.ImportQueue) *ScheduleImportUseCase {
	return &ScheduleImportUseCase{store: store, queue: queue}
}

// Execute returns as soon as the job is queued; the import itself runs in a worker.
func (uc *ScheduleImportUseCase) Execute(
	ctx context.Context,
	req dto.ScheduleImportRequest,
) (dto.ImportJobResponse, error) {
	kind, err := valueobject.ParseImportKind(req.Kind)
	if err != nil {
		return dto.ImportJobResponse{}, fmt.Errorf("parse kind: %w: %w", model.ErrValidation, err)
	}

	now := time.Now().UTC()
	job, err := model.NewImportJob(kind, req.CustomerFile, req.LoanFile, now)
	if err != nil {
		return dto.ImportJobResponse{}, fmt.Errorf("create import job: %w", err)
	}

	if kind.IncludesCustomers() {
		if err := requireFile(req.CustomerFile); err != nil {
			return dto.ImportJobResponse{}, err
		}
	}
	if kind.IncludesLoans() {
		if err := requireFile(req.LoanFile); err != nil {
			return dto.ImportJobResponse{}, err
		}
	}

	if err := uc.store.Save(ctx, job); err != nil {
		return dto.ImportJobResponse{}, fmt.Errorf("save import job: %w", err)
	}

	if err := uc.queue.Enqueue(ctx, job); err != nil {
		if failed, failErr := job.Fail(err, model.ImportStats{}, now); failErr == nil {
			_ = uc.store.Save(ctx, failed) //nolint:errcheck // best effort, the enqueue error is what matters
		}
		return dto.ImportJobResponse{}, fmt.Errorf("enqueue import job: %w", err)
	}

	return toImportJobResponse(job), nil
}

func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return fmt.Errorf("%w: %s", ErrImportFileMissing, path)
	}
	return nil
}

// ---------------------------------------------------------------------------
// GetImportJobUseCase
// ---------------------------------------------------------------------------

// GetImportJobUseCase retrieves an import job by ID.
type GetImportJobUseCase struct {
	store port.ImportJobStore
}

// NewGetImportJobUseCase wires dependencies.
func NewGetImportJobUseCase(store port.ImportJobStore) *GetImportJobUseCase {
	return &GetImportJobUseCase{store: store}
}

// Execute returns the job's current status and counters.
func (uc *GetImportJobUseCase) Execute(ctx context.Context, req dto.GetImportJobRequest) (dto.ImportJobResponse, error) {
	job, err := uc.store.FindByID(ctx, req.JobID)
	if err != nil {
		return dto.ImportJobResponse{}, fmt.Errorf("find import job: %w", err)
	}
	return toImportJobResponse(job), nil
}

// ---------------------------------------------------------------------------
// RunImportUseCase
// ---------------------------------------------------------------------------

// RunImportUseCase is executed by the import worker for every queued job.
type RunImportUseCase struct {
	store     port.ImportJobStore
	customers *IngestCustomersUseCase
	loans     *IngestLoansUseCase
	publisher port.EventPublisher
	metrics   port.Metrics
	logger    *slog.Logger
}

// NewRunImportUseCase wires dependencies.
func NewRunImportUseCase(
	store port.ImportJobStore,
	customers *IngestCustomersUseCase,
	loans *IngestLoansUseCase,
	publisher port.EventPublisher,
	metrics port.Metrics,
	logger *slog.Logger,
) *RunImportUseCase {
	return &RunImportUseCase{
		store:     store,
		customers: customers,
		loans:     loans,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Execute ingests customers before loans so that loans of new customers are kept.
// Ingestion failures end the job as FAILED and are not returned as errors;
// only job store failures are. Jobs that are no longer PENDING are left alone,
// which makes redelivered queue messages harmless.
func (uc *RunImportUseCase) Execute(ctx context.Context, req dto.RunImportRequest) (dto.ImportJobResponse, error) {
	job, err := uc.store.FindByID(ctx, req.JobID)
	if err != nil {
		return dto.ImportJobResponse{}, fmt.Errorf("find import job: %w", err)
	}
	if !job.Status().Equal(valueobject.ImportJobStatusPending) {
		uc.logger.InfoContext(ctx, "skipping import job", "job_id", job.ID(), "status", job.Status().String())
		return toImportJobResponse(job), nil
	}

	started := time.Now().UTC()
	job, err = job.Start(started)
	if err != nil {
		return dto.ImportJobResponse{}, fmt.Errorf("start import job: %w", err)
	}
	if err := uc.store.Save(ctx, job); err != nil {
		return dto.ImportJobResponse{}, fmt.Errorf("save import job: %w", err)
	}

	stats, runErr := uc.ingest(ctx, job)

	finished := time.Now().UTC()
	if runErr != nil {
		uc.logger.ErrorContext(ctx, "import job failed", "job_id", job.ID(), "error", runErr)
		job, err = job.Fail(runErr, stats, finished)
	} else {
		job, err = job.Succeed(stats, finished)
	}
	if err != nil {
		return dto.ImportJobResponse{}, fmt.Errorf("finish import job: %w", err)
	}
	if err := uc.store.Save(ctx, job); err != nil {
		return dto.ImportJobResponse{}, fmt.Errorf("save import job: %w", err)
	}

	uc.metrics.RecordImport(ctx, job.Status().String(), stats, finished.Sub(started))

	finishedEvt := event.NewImportFinished(
		job.ID(), job.Status().String(), job.Failure(),
		stats.CustomersCreated, stats.CustomersUpdated, stats.LoansCreated, stats.LoansDeleted,
	)
	if err := uc.publisher.Publish(ctx, finishedEvt); err != nil {
		uc.logger.WarnContext(ctx, "failed to publish import event", "job_id", job.ID(), "error", err)
	}

	return toImportJobResponse(job), nil
}

func (uc *RunImportUseCase) ingest(ctx context.Context, job model.ImportJob) (model.ImportStats, error) {
	var stats model.ImportStats

	if job.Kind().IncludesCustomers() {
		s, err := uc.customers.Execute(ctx, dto.IngestFileRequest{Path: job.CustomerFile()})
		if err != nil {
			return stats, fmt.Errorf("ingest customers: %w", err)
		}
		stats = stats.Add(s)
	}

	if job.Kind().IncludesLoans() {
		s, err := uc.loans.Execute(ctx, dto.IngestFileRequest{Path: job.LoanFile()})
		if err != nil {
			return stats, fmt.Errorf("ingest loans: %w", err)
		}
		stats = stats.Add(s)
	}

	return stats, nil
}

func toImportJobResponse(j model.ImportJob) dto.ImportJobResponse {
	resp := dto.ImportJobResponse{
		JobID:        j.ID(),
		Kind:         string(j.Kind()),
		Status:       j.Status().String(),
		CustomerFile: j.CustomerFile(),
		LoanFile:     j.LoanFile(),
		Stats:        j.Stats(),
		Error:        j.Failure(),
		CreatedAt:    j.CreatedAt(),
	}
	if t := j.StartedAt(); !t.IsZero() {
		resp.StartedAt = &t
	}
	if t := j.FinishedAt(); !t.IsZero() {
		resp.FinishedAt = &t
	}
	return resp
}
