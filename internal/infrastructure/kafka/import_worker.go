package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/bibbank/origination/internal/application/dto"
	"github.com/bibbank/origination/internal/domain/port"
	pkgkafka "github.com/bibbank/origination/pkg/kafka"
)

// ImportRunner executes one queued import. *usecase.RunImportUseCase implements it.
type ImportRunner interface {
	Execute(ctx context.Context, req dto.RunImportRequest) (dto.ImportJobResponse, error)
}

// ImportWorker turns import-queue messages into import runs.
type ImportWorker struct {
	runner ImportRunner
	logger *slog.Logger
}

// NewImportWorker creates a worker.
func NewImportWorker(runner ImportRunner, logger *slog.Logger) *ImportWorker {
	return &ImportWorker{runner: runner, logger: logger}
}

// Handle is a pkgkafka.Handler. Messages that can never succeed (malformed, or
// naming a job that expired from the store) are dropped so the offset advances.
// Any other failure is returned, and the consumer retries the message before
// committing anything after it.
func (w *ImportWorker) Handle(ctx context.Context, msg pkgkafka.Message) error {
	var req dto.RunImportRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil || req.JobID == "" {
		w.logger.WarnContext(ctx, "dropping malformed import message",
			"key", string(msg.Key),
			"error", err,
		)
		return nil
	}

	resp, err := w.runner.Execute(ctx, req)
	if err != nil {
		if errors.Is(err, port.ErrImportJobNotFound) {
			w.logger.WarnContext(ctx, "dropping import message for unknown job", "job_id", req.JobID)
			return nil
		}
		return err
	}

	w.logger.InfoContext(ctx, "import job processed",
		"job_id", resp.JobID,
		"status", resp.Status,
	)
	return nil
}
