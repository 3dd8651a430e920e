package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/origination/internal/domain/valueobject"
)

// ImportStats counts what one import run changed.
type ImportStats struct {
	CustomersCreated int `json:"customers_created"`
	CustomersUpdated int `json:"customers_updated"`
	LoansDeleted     int `json:"loans_deleted"`
	LoansCreated     int `json:"loans_created"`
	LoansSkipped     int `json:"loans_skipped"`
	DebtsUpdated     int `json:"debts_updated"`
}

// Add merges other into s.
func (s ImportStats) Add(other ImportStats) ImportStats {
	return ImportStats{
		CustomersCreated: s.CustomersCreated + other.CustomersCreated,
		CustomersUpdated: s.CustomersUpdated + other.CustomersUpdated,
		LoansDeleted:     s.LoansDeleted + other.LoansDeleted,
		LoansCreated:     s.LoansCreated + other.LoansCreated,
		LoansSkipped:     s.LoansSkipped + other.LoansSkipped,
		DebtsUpdated:     s.DebtsUpdated + other.DebtsUpdated,
	}
}

// ---------------------------------------------------------------------------
// ImportJob aggregate
// ---------------------------------------------------------------------------

// ImportJob tracks one background spreadsheet import. Every transition returns a new copy.
type ImportJob struct {
	id           string
	kind         valueobject.ImportKind
	customerFile string
	loanFile     string
	status       valueobject.ImportJobStatus
	stats        ImportStats
	failure      string
	createdAt    time.Time
	startedAt    time.Time
	finishedAt   time.Time
}

// NewImportJob creates a PENDING job for the given workbooks.
func NewImportJob(kind valueobject.ImportKind, customerFile, loanFile string, now time.Time) (ImportJob, error) {
	if kind.IncludesCustomers() && customerFile == "" {
		return ImportJob{}, validationError("customer file is required for %s import", kind)
	}
	if kind.IncludesLoans() && loanFile == "" {
		return ImportJob{}, validationError("loan file is required for %s import", kind)
	}

	return ImportJob{
		id:           uuid.New().String(),
		kind:         kind,
		customerFile: customerFile,
		loanFile:     loanFile,
		status:       valueobject.ImportJobStatusPending,
		createdAt:    now,
	}, nil
}

// ReconstructImportJob rebuilds a job from the job store.
func ReconstructImportJob(
	id string,
	kind valueobject.ImportKind,
	customerFile, loanFile string,
	status valueobject.ImportJobStatus,
	stats ImportStats,
	failure string,
	createdAt, startedAt, finishedAt time.Time,
) ImportJob {
	return ImportJob{
		id:           id,
		kind:         kind,
		customerFile: customerFile,
		loanFile:     loanFile,
		status:       status,
		stats:        stats,
		failure:      failure,
		createdAt:    createdAt,
		startedAt:    startedAt,
		finishedAt:   finishedAt,
	}
}

// Start transitions PENDING -> RUNNING.
func (j ImportJob) Start(now time.Time) (ImportJob, error) {
	if err := j.transition(valueobject.ImportJobStatusRunning); err != nil {
		return ImportJob{}, err
	}
	j.status = valueobject.ImportJobStatusRunning
	j.startedAt = now
	return j, nil
}

// Succeed transitions RUNNING -> SUCCEEDED and records the counters.
func (j ImportJob) Succeed(stats ImportStats, now time.Time) (ImportJob, error) {
	if err := j.transition(valueobject.ImportJobStatusSucceeded); err != nil {
		return ImportJob{}, err
	}
	j.status = valueobject.ImportJobStatusSucceeded
	j.stats = stats
	j.finishedAt = now
	return j, nil
}

// Fail moves a non-terminal job to FAILED, keeping whatever counters were reached.
func (j ImportJob) Fail(cause error, stats ImportStats, now time.Time) (ImportJob, error) {
	if err := j.transition(valueobject.ImportJobStatusFailed); err != nil {
		return ImportJob{}, err
	}
	j.status = valueobject.ImportJobStatusFailed
	j.stats = stats
	if cause != nil {
		j.failure = cause.Error()
	}
	j.finishedAt = now
	return j, nil
}

func (j ImportJob) transition(target valueobject.ImportJobStatus) error {
	if !j.status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", valueobject.ErrInvalidImportTransition, j.status, target)
	}
	return nil
}

// Accessors

func (j ImportJob) ID() string                          { return j.id }
func (j ImportJob) Kind() valueobject.ImportKind        { return j.kind }
func (j ImportJob) CustomerFile() string                { return j.customerFile }
func (j ImportJob) LoanFile() string                    { return j.loanFile }
func (j ImportJob) Status() valueobject.ImportJobStatus { return j.status }
func (j ImportJob) Stats() ImportStats                  { return j.stats }
func (j ImportJob) Failure() string                     { return j.failure }
func (j ImportJob) CreatedAt() time.Time                { return j.createdAt }
func (j ImportJob) StartedAt() time.Time                { return j.startedAt }
func (j ImportJob) FinishedAt() time.Time               { return j.finishedAt }
