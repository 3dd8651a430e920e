package valueobject

import "fmt"

// ---------------------------------------------------------------------------
// DecisionReason – immutable value object
// ---------------------------------------------------------------------------

// DecisionReason explains the outcome of a credit evaluation. Rejections are
// ordinary outcomes, not errors.
type DecisionReason struct {
	value string
}

const (
	reasonApproved            = "APPROVED"
	reasonRateCorrected       = "RATE_CORRECTED"
	reasonCreditLimitExceeded = "CREDIT_LIMIT_EXCEEDED"
	reasonEMIBurdenExceeded   = "EMI_BURDEN_EXCEEDED"
	reasonCreditScoreTooLow   = "CREDIT_SCORE_TOO_LOW"
)

var (
	DecisionApproved            = DecisionReason{value: reasonApproved}
	DecisionRateCorrected       = DecisionReason{value: reasonRateCorrected}
	DecisionCreditLimitExceeded = DecisionReason{value: reasonCreditLimitExceeded}
	DecisionEMIBurdenExceeded   = DecisionReason{value: reasonEMIBurdenExceeded}
	DecisionCreditScoreTooLow   = DecisionReason{value: reasonCreditScoreTooLow}
)

var validDecisionReasons = map[string]DecisionReason{
	reasonApproved:            DecisionApproved,
	reasonRateCorrected:       DecisionRateCorrected,
	reasonCreditLimitExceeded: DecisionCreditLimitExceeded,
	reasonEMIBurdenExceeded:   DecisionEMIBurdenExceeded,
	reasonCreditScoreTooLow:   DecisionCreditScoreTooLow,
}

// NewDecisionReason parses a reason code.
func NewDecisionReason(s string) (DecisionReason, error) {
	v, ok := validDecisionReasons[s]
	if !ok {
		return DecisionReason{}, fmt.Errorf("invalid decision reason: %q", s)
	}
	return v, nil
}

// String returns the reason code.
func (r DecisionReason) String() string { return r.value }

// IsZero returns true if the reason has not been initialised.
func (r DecisionReason) IsZero() bool { return r.value == "" }

// Equal returns true when both reasons carry the same code.
func (r DecisionReason) Equal(other DecisionReason) bool { return r.value == other.value }

// IsRejection reports whether the reason denies the loan.
func (r DecisionReason) IsRejection() bool {
	switch r.value {
	case reasonCreditLimitExceeded, reasonEMIBurdenExceeded, reasonCreditScoreTooLow:
		return true
	default:
		return false
	}
}

// Description is the human-readable explanation shown by the eligibility check.
func (r DecisionReason) Description() string {
	switch r.value {
	case reasonApproved:
		return "Eligible at requested interest rate"
	case reasonRateCorrected:
		return "Eligible at corrected interest rate"
	case reasonCreditLimitExceeded:
		return "Overutilized credit limit"
	case reasonEMIBurdenExceeded:
		return "Existing EMI burden exceeds 50% of salary"
	case reasonCreditScoreTooLow:
		return "Credit score too low"
	default:
		return ""
	}
}

// LoanMessage is the message returned by loan creation for this outcome.
func (r DecisionReason) LoanMessage() string {
	switch r.value {
	case reasonCreditLimitExceeded:
		return "Loan not approved due to overutilized credit limit"
	case reasonEMIBurdenExceeded:
		return "Loan not approved due to existing EMI burden exceeding 50% of salary"
	case reasonCreditScoreTooLow:
		return "Loan not approved due to low credit score"
	default:
		return "Loan approved and created successfully"
	}
}
