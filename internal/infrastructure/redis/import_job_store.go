package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/bibbank/origination/internal/domain/model"
	"github.com/bibbank/origination/internal/domain/port"
	"github.com/bibbank/origination/internal/domain/valueobject"
)

var _ port.ImportJobStore = (*ImportJobStore)(nil)

// DefaultJobTTL is how long finished and unfinished jobs stay queryable.
const DefaultJobTTL = 7 * 24 * time.Hour

const keyPrefix = "origination:import-job:"

// ImportJobStore keeps import jobs as JSON documents with a TTL.
type ImportJobStore struct {
	client goredis.Cmdable
	ttl    time.Duration
}

// NewImportJobStore creates a store; a non-positive ttl means DefaultJobTTL.
func NewImportJobStore(client goredis.Cmdable, ttl time.Duration) *ImportJobStore {
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}
	return &ImportJobStore{client: client, ttl: ttl}
}

type jobRecord struct {
	ID           string            `json:"id"`
	Kind         string            `json:"kind"`
	CustomerFile string            `json:"customer_file,omitempty"`
	LoanFile     string            `json:"loan_file,omitempty"`
	Status       string            `json:"status"`
	Stats        model.ImportStats `json:"stats"`
	Failure      string            `json:"failure,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   time.Time         `json:"finished_at"`
}

// Save writes the job and refreshes its TTL.
func (s *ImportJobStore) Save(ctx context.Context, job model.ImportJob) error {
	payload, err := json.Marshal(jobRecord{
		ID:           job.ID(),
		Kind:         string(job.Kind()),
		CustomerFile: job.CustomerFile(),
		LoanFile:     job.LoanFile(),
		Status:       job.Status().String(),
		Stats:        job.Stats(),
		Failure:      job.Failure(),
		CreatedAt:    job.CreatedAt(),
		StartedAt:    job.StartedAt(),
		FinishedAt:   job.FinishedAt(),
	})
	if err != nil {
		return fmt.Errorf("marshal import job: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+job.ID(), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save import job %s: %w", job.ID(), err)
	}
	return nil
}

// FindByID loads a job, returning port.ErrImportJobNotFound once it has expired.
func (s *ImportJobStore) FindByID(ctx context.Context, id string) (model.ImportJob, error) {
	payload, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, goredis.Nil) {
		return model.ImportJob{}, fmt.Errorf("%w: %s", port.ErrImportJobNotFound, id)
	}
	if err != nil {
		return model.ImportJob{}, fmt.Errorf("load import job %s: %w", id, err)
	}

	var rec jobRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return model.ImportJob{}, fmt.Errorf("decode import job %s: %w", id, err)
	}
	status, err := valueobject.NewImportJobStatus(rec.Status)
	if err != nil {
		return model.ImportJob{}, fmt.Errorf("decode import job %s: %w", id, err)
	}
	kind, err := valueobject.ParseImportKind(rec.Kind)
	if err != nil {
		return model.ImportJob{}, fmt.Errorf("decode import job %s: %w", id, err)
	}

	return model.ReconstructImportJob(
		rec.ID, kind, rec.CustomerFile, rec.LoanFile, status, rec.Stats, rec.Failure,
		rec.CreatedAt, rec.StartedAt, rec.FinishedAt,
	), nil
}
