package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/origination/internal/domain/model"
	"github.com/bibbank/origination/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// CreditEvaluator – domain service for loan eligibility
// ---------------------------------------------------------------------------

// Policy thresholds. Scoring weights are tunable, these are not.
var (
	scoreCeiling     = decimal.NewFromInt(100)
	rejectCeiling    = decimal.NewFromInt(10) // score <= 10 is always rejected
	subprimeCeiling  = decimal.NewFromInt(30) // (10, 30] needs at least subprimeRateFloor
	nearPrimeCeiling = decimal.NewFromInt(50) // (30, 50] needs at least nearPrimeRateFloor

	subprimeRateFloor  = decimal.NewFromInt(16)
	nearPrimeRateFloor = decimal.NewFromInt(12)

	maxEMIToIncome = decimal.NewFromFloat(0.5)
)

// ScoringWeights tunes how past loans turn into a 0-100 credit score.
type ScoringWeights struct {
	// OnTime is awarded in full when every installment was paid on time.
	OnTime decimal.Decimal
	// LoanCountCap is the loan count at which the count signal reaches zero.
	LoanCountCap int
	// LoanCountStep is awarded per loan below LoanCountCap.
	LoanCountStep decimal.Decimal
	// RecentActivity is the activity signal with no loans started this year.
	RecentActivity decimal.Decimal
	// RecentActivityPenalty is subtracted per loan started this year.
	RecentActivityPenalty decimal.Decimal
	// Volume is awarded in full when past borrowing is zero relative to the limit.
	Volume decimal.Decimal
	// NoHistoryBaseline is the score of a customer without any loans.
	NoHistoryBaseline decimal.Decimal
}

// DefaultScoringWeights returns the production weights: 40/15/15/30 with a baseline of 50.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		OnTime:                decimal.NewFromInt(40),
		LoanCountCap:          10,
		LoanCountStep:         decimal.NewFromFloat(1.5),
		RecentActivity:        decimal.NewFromInt(15),
		RecentActivityPenalty: decimal.NewFromInt(3),
		Volume:                decimal.NewFromInt(30),
		NoHistoryBaseline:     decimal.NewFromInt(50),
	}
}

// EligibilityResult is the outcome of evaluating one loan application.
type EligibilityResult struct {
	CustomerID         int64
	Approved           bool
	CreditScore        decimal.Decimal
	RequestedRate      decimal.Decimal
	CorrectedRate      decimal.Decimal
	Tenure             int
	LoanAmount         decimal.Decimal // capped to the remaining credit headroom
	MonthlyInstallment decimal.Decimal // zero unless approved
	Reason             valueobject.DecisionReason
}

// AmountCapped reports whether the approved amount is below the requested one.
func (r EligibilityResult) AmountCapped(requested decimal.Decimal) bool {
	return r.LoanAmount.LessThan(requested)
}

// CreditEvaluator applies the scoring signals, hard overrides and tiered rate
// floors. It holds no state besides its weights and never mutates its inputs.
type CreditEvaluator struct {
	weights ScoringWeights
}

// NewCreditEvaluator returns an evaluator using the given weights.
func NewCreditEvaluator(weights ScoringWeights) *CreditEvaluator {
	return &CreditEvaluator{weights: weights}
}

// Score computes the credit score of a customer from their loans as of the given instant.
// The score is forced to zero when active principals exceed the approved limit.
func (e *CreditEvaluator) Score(customer model.Customer, loans []model.Loan, asOf time.Time) decimal.Decimal {
	if activePrincipal(loans, asOf).GreaterThan(customer.ApprovedLimit()) {
		return decimal.Zero
	}
	if len(loans) == 0 {
		return e.weights.NoHistoryBaseline
	}

	var (
		paidOnTime    int64
		totalTenure   int64
		recent        int64
		totalBorrowed = decimal.Zero
	)
	for _, l := range loans {
		paidOnTime += int64(l.EMIsPaidOnTime())
		totalTenure += int64(l.Tenure())
		totalBorrowed = totalBorrowed.Add(l.Principal())
		if l.StartedIn(asOf.Year()) {
			recent++
		}
	}

	onTime := decimal.Zero
	if totalTenure > 0 {
		ratio := clamp(decimal.NewFromInt(paidOnTime).Div(decimal.NewFromInt(totalTenure)), decimal.Zero, decimal.NewFromInt(1))
		onTime = ratio.Mul(e.weights.OnTime)
	}

	count := decimal.Zero
	if remaining := e.weights.LoanCountCap - len(loans); remaining > 0 {
		count = decimal.NewFromInt(int64(remaining)).Mul(e.weights.LoanCountStep)
	}

	activity := decimal.Max(
		decimal.Zero,
		e.weights.RecentActivity.Sub(e.weights.RecentActivityPenalty.Mul(decimal.NewFromInt(recent))),
	)

	volume := decimal.Zero
	if customer.ApprovedLimit().IsPositive() {
		used := totalBorrowed.Div(customer.ApprovedLimit())
		volume = decimal.Max(decimal.Zero, decimal.NewFromInt(1).Sub(used)).Mul(e.weights.Volume)
	}

	total := onTime.Add(count).Add(activity).Add(volume)
	return clamp(total, decimal.Zero, scoreCeiling).Round(2)
}

// Evaluate decides a loan application for the customer holding the given loans.
// It fails only on invalid input; rejections are reported through the result.
func (e *CreditEvaluator) Evaluate(
	customer model.Customer,
	loans []model.Loan,
	app model.LoanApplication,
	asOf time.Time,
) (EligibilityResult, error) {
	if err := app.Validate(); err != nil {
		return EligibilityResult{}, err
	}
	if customer.ID() != 0 && customer.ID() != app.CustomerID {
		return EligibilityResult{}, fmt.Errorf("%w: application for customer %d evaluated against customer %d",
			model.ErrValidation, app.CustomerID, customer.ID())
	}

	score := e.Score(customer, loans, asOf)
	result := EligibilityResult{
		CustomerID:         app.CustomerID,
		CreditScore:        score,
		RequestedRate:      app.InterestRate,
		CorrectedRate:      app.InterestRate,
		Tenure:             app.Tenure,
		LoanAmount:         app.Amount,
		MonthlyInstallment: decimal.Zero,
	}

	active := activePrincipal(loans, asOf)
	if active.GreaterThan(customer.ApprovedLimit()) {
		result.Reason = valueobject.DecisionCreditLimitExceeded
		return result, nil
	}

	rate, eligible := rateFloor(score, app.InterestRate)
	result.CorrectedRate = rate
	// The cap applies only while some headroom is left; an exhausted or zero
	// limit is not an override.
	headroom := customer.ApprovedLimit().Sub(active)
	if headroom.IsPositive() && app.Amount.GreaterThan(headroom) {
		result.LoanAmount = headroom
	}

	installment, err := model.MonthlyInstallment(result.LoanAmount, rate, app.Tenure)
	if err != nil {
		return EligibilityResult{}, fmt.Errorf("compute installment: %w", err)
	}
	burden := existingInstallments(loans, asOf).Add(installment)
	if burden.GreaterThan(customer.MonthlyIncome().Mul(maxEMIToIncome)) {
		result.Reason = valueobject.DecisionEMIBurdenExceeded
		return result, nil
	}

	if !eligible {
		result.Reason = valueobject.DecisionCreditScoreTooLow
		return result, nil
	}

	result.Approved = true
	result.MonthlyInstallment = installment
	result.Reason = valueobject.DecisionApproved
	if !rate.Equal(app.InterestRate) {
		result.Reason = valueobject.DecisionRateCorrected
	}
	return result, nil
}

// rateFloor returns the rate the customer may borrow at and whether the score allows borrowing at all.
func rateFloor(score, requested decimal.Decimal) (decimal.Decimal, bool) {
	switch {
	case score.GreaterThan(nearPrimeCeiling):
		return requested, true
	case score.GreaterThan(subprimeCeiling):
		return decimal.Max(requested, nearPrimeRateFloor), true
	case score.GreaterThan(rejectCeiling):
		return decimal.Max(requested, subprimeRateFloor), true
	default:
		return requested, false
	}
}

func activePrincipal(loans []model.Loan, asOf time.Time) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range loans {
		if l.IsActive(asOf) {
			sum = sum.Add(l.Principal())
		}
	}
	return sum
}

// existingInstallments sums the EMIs of active loans. Loans whose terms cannot
// be amortized fall back to their recorded repayment.
func existingInstallments(loans []model.Loan, asOf time.Time) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range loans {
		if !l.IsActive(asOf) {
			continue
		}
		emi, err := model.MonthlyInstallment(l.Principal(), l.InterestRate(), l.Tenure())
		if err != nil {
			emi = l.MonthlyRepayment()
		}
		sum = sum.Add(emi)
	}
	return sum
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Min(decimal.Max(v, lo), hi)
}
