package valueobject

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// ImportJobStatus – immutable value object
// ---------------------------------------------------------------------------

// ImportJobStatus is the lifecycle stage of a background spreadsheet import.
type ImportJobStatus struct {
	value string
}

const (
	importStatusPending   = "PENDING"
	importStatusRunning   = "RUNNING"
	importStatusSucceeded = "SUCCEEDED"
	importStatusFailed    = "FAILED"
)

var (
	ImportJobStatusPending   = ImportJobStatus{value: importStatusPending}
	ImportJobStatusRunning   = ImportJobStatus{value: importStatusRunning}
	ImportJobStatusSucceeded = ImportJobStatus{value: importStatusSucceeded}
	ImportJobStatusFailed    = ImportJobStatus{value: importStatusFailed}
)

var validImportJobStatuses = map[string]ImportJobStatus{
	importStatusPending:   ImportJobStatusPending,
	importStatusRunning:   ImportJobStatusRunning,
	importStatusSucceeded: ImportJobStatusSucceeded,
	importStatusFailed:    ImportJobStatusFailed,
}

// allowedImportTransitions defines the valid state machine transitions.
var allowedImportTransitions = map[string][]string{
	importStatusPending: {importStatusRunning, importStatusFailed},
	importStatusRunning: {importStatusSucceeded, importStatusFailed},
}

// ErrInvalidImportTransition is returned when a job is moved out of order.
var ErrInvalidImportTransition = errors.New("invalid import job status transition")

// NewImportJobStatus parses a raw status string.
func NewImportJobStatus(s string) (ImportJobStatus, error) {
	v, ok := validImportJobStatuses[s]
	if !ok {
		return ImportJobStatus{}, fmt.Errorf("invalid import job status: %q", s)
	}
	return v, nil
}

// String returns the string representation of the status.
func (s ImportJobStatus) String() string { return s.value }

// IsZero returns true if the status has not been initialised.
func (s ImportJobStatus) IsZero() bool { return s.value == "" }

// Equal returns true when both statuses carry the same value.
func (s ImportJobStatus) Equal(other ImportJobStatus) bool { return s.value == other.value }

// IsTerminal reports whether no further transitions are possible.
func (s ImportJobStatus) IsTerminal() bool {
	return s.value == importStatusSucceeded || s.value == importStatusFailed
}

// CanTransitionTo checks whether moving to target is allowed.
func (s ImportJobStatus) CanTransitionTo(target ImportJobStatus) bool {
	for _, allowed := range allowedImportTransitions[s.value] {
		if allowed == target.value {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// ImportKind
// ---------------------------------------------------------------------------

// ImportKind selects which workbooks an import job reads.
type ImportKind string

const (
	ImportKindCustomers ImportKind = "customers"
	ImportKindLoans     ImportKind = "loans"
	ImportKindAll       ImportKind = "all"
)

// ParseImportKind validates a kind; an empty string means ImportKindAll.
func ParseImportKind(s string) (ImportKind, error) {
	switch ImportKind(s) {
	case "":
		return ImportKindAll, nil
	case ImportKindCustomers, ImportKindLoans, ImportKindAll:
		return ImportKind(s), nil
	default:
		return "", fmt.Errorf("invalid import kind: %q", s)
	}
}

// IncludesCustomers reports whether the customer workbook is read.
func (k ImportKind) IncludesCustomers() bool {
	return k == ImportKindCustomers || k == ImportKindAll
}

// IncludesLoans reports whether the loan workbook is read.
func (k ImportKind) IncludesLoans() bool {
	return k == ImportKindLoans || k == ImportKindAll
}
