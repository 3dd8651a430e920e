// Package telemetry records origination business metrics with OpenTelemetry.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/bibbank/origination/internal/domain/model"
	"github.com/bibbank/origination/internal/domain/port"
)

// MeterName is the instrumentation scope of every instrument below.
const MeterName = "github.com/bibbank/origination"

var _ port.Metrics = (*Recorder)(nil)

// Recorder implements port.Metrics.
type Recorder struct {
	evaluations    metric.Int64Counter
	creditScore    metric.Float64Histogram
	loansCreated   metric.Int64Counter
	loanPrincipal  metric.Float64Counter
	imports        metric.Int64Counter
	importDuration metric.Float64Histogram
	importedRows   metric.Int64Counter
}

// NewRecorder creates the instruments on provider.
func NewRecorder(provider metric.MeterProvider) (*Recorder, error) {
	meter := provider.Meter(MeterName)
	r := &Recorder{}
	var err error

	if r.evaluations, err = meter.Int64Counter("origination.eligibility.evaluations",
		metric.WithDescription("Credit evaluations by outcome and reason code."),
	); err != nil {
		return nil, fmt.Errorf("create evaluations counter: %w", err)
	}
	if r.creditScore, err = meter.Float64Histogram("origination.eligibility.credit_score",
		metric.WithDescription("Distribution of computed credit scores."),
		metric.WithExplicitBucketBoundaries(10, 30, 50, 70, 90, 100),
	); err != nil {
		return nil, fmt.Errorf("create credit score histogram: %w", err)
	}
	if r.loansCreated, err = meter.Int64Counter("origination.loans.created",
		metric.WithDescription("Loans created through the API."),
	); err != nil {
		return nil, fmt.Errorf("create loans counter: %w", err)
	}
	if r.loanPrincipal, err = meter.Float64Counter("origination.loans.principal",
		metric.WithDescription("Total principal lent through the API."),
	); err != nil {
		return nil, fmt.Errorf("create principal counter: %w", err)
	}
	if r.imports, err = meter.Int64Counter("origination.imports",
		metric.WithDescription("Finished import jobs by status."),
	); err != nil {
		return nil, fmt.Errorf("create imports counter: %w", err)
	}
	if r.importDuration, err = meter.Float64Histogram("origination.import.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Wall time of import jobs."),
	); err != nil {
		return nil, fmt.Errorf("create import duration histogram: %w", err)
	}
	if r.importedRows, err = meter.Int64Counter("origination.import.rows",
		metric.WithDescription("Rows written by imports, by entity and action."),
	); err != nil {
		return nil, fmt.Errorf("create imported rows counter: %w", err)
	}
	return r, nil
}

// NewNoopRecorder returns a Recorder that drops everything.
func NewNoopRecorder() *Recorder {
	r, _ := NewRecorder(noop.NewMeterProvider()) //nolint:errcheck // noop instruments never fail
	return r
}

func (r *Recorder) RecordEvaluation(ctx context.Context, approved bool, reason string, score decimal.Decimal) {
	r.evaluations.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("approved", approved),
		attribute.String("reason", reason),
	))
	r.creditScore.Record(ctx, score.InexactFloat64())
}

func (r *Recorder) RecordLoanCreated(ctx context.Context, amount decimal.Decimal) {
	r.loansCreated.Add(ctx, 1)
	r.loanPrincipal.Add(ctx, amount.InexactFloat64())
}

func (r *Recorder) RecordImport(ctx context.Context, status string, stats model.ImportStats, elapsed time.Duration) {
	statusAttr := metric.WithAttributes(attribute.String("status", status))
	r.imports.Add(ctx, 1, statusAttr)
	r.importDuration.Record(ctx, elapsed.Seconds(), statusAttr)

	rows := []struct {
		entity, action string
		n              int
	}{
		{"customer", "created", stats.CustomersCreated},
		{"customer", "updated", stats.CustomersUpdated},
		{"loan", "created", stats.LoansCreated},
		{"loan", "deleted", stats.LoansDeleted},
		{"loan", "skipped", stats.LoansSkipped},
	}
	for _, row := range rows {
		if row.n == 0 {
			continue
		}
		r.importedRows.Add(ctx, int64(row.n), metric.WithAttributes(
			attribute.String("entity", row.entity),
			attribute.String("action", row.action),
		))
	}
}
