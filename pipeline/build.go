package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/loan-insights/loan"
	"github.com/warp/loan-insights/source"
)

// =============================================================================
// BASE - Immutable result of one data load
// =============================================================================

// Base is the FactRow table of one data load plus its diagnostics. It is
// never modified after Build returns.
type Base struct {
	ID          string
	Source      string
	BuiltAt     time.Time
	Diagnostics Diagnostics

	facts    []loan.FactRow
	observed loan.DateRange
	controls Controls
}

// Facts returns a copy of the fact rows, sorted by issue month.
func (b *Base) Facts() []loan.FactRow { return slices.Clone(b.facts) }

// Len returns the number of fact rows.
func (b *Base) Len() int { return len(b.facts) }

// Observed returns the min/max issue date, or loan.FallbackRange when empty.
func (b *Base) Observed() loan.DateRange { return b.observed }

// Query filters the base with spec. The base itself is untouched.
func (b *Base) Query(spec FilterSpec) []loan.FactRow { return Filter(b.facts, spec) }

// Range resolves the effective date range of spec over this base.
func (b *Base) Range(spec FilterSpec) loan.DateRange { return spec.Range(b.facts) }

// Controls describes the filter controls for this base.
func (b *Base) Controls() Controls {
	c := b.controls
	c.Reasons = slices.Clone(c.Reasons)
	c.Selected = slices.Clone(c.Selected)
	return c
}

// DefaultFilter selects every reason with open date bounds.
func (b *Base) DefaultFilter() FilterSpec {
	return FilterSpec{Reasons: loan.NewReasonSet(b.controls.Reasons...)}
}

// =============================================================================
// BUILD
// =============================================================================

// BuildOptions configures Build. Zero values use the defaults.
type BuildOptions struct {
	Schema     loan.Schema
	DateLayout string
	Logger     *zap.Logger
}

// Build loads the five tables from src and runs Loader -> Normalizer ->
// FactTableBuilder -> TemporalDeriver. Missing columns and join keys abort
// the build; per-row problems only show up in Diagnostics.
func Build(ctx context.Context, src source.Source, opts BuildOptions) (*Base, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	started := time.Now()

	tables, err := source.NewLoader(src, logger).LoadAll(ctx, opts.Schema)
	if err != nil {
		return nil, err
	}
	base, err := BuildFromTables(tables, opts)
	if err != nil {
		return nil, err
	}
	base.Source = src.Name()

	d := base.Diagnostics
	logger.Info("Built fact table",
		zap.String("load_id", base.ID),
		zap.String("source", base.Source),
		zap.Int("borrowers", d.BorrowerRows),
		zap.Int("loans", d.LoanRows),
		zap.Int("joined", d.Joined),
		zap.Int("orphan_loans", d.OrphanLoans),
		zap.Int("orphan_borrowers", d.OrphanBorrowers),
		zap.Int("emp_length_out_of_domain", d.EmpLengthOutOfDomain),
		zap.Int("invalid_amounts", d.InvalidAmounts),
		zap.Int("unparseable_dates", d.UnparseableDates),
		zap.Int("facts", d.Facts),
		zap.Duration("elapsed", time.Since(started)))
	if len(d.DroppedColumns) > 0 {
		logger.Warn("Dropped duplicate columns after joins", zap.Strings("columns", d.DroppedColumns))
	}
	return base, nil
}

// BuildFromTables runs the pipeline on already loaded tables.
func BuildFromTables(tables *source.Tables, opts BuildOptions) (*Base, error) {
	ft, err := BuildFacts(tables, opts.Schema)
	if err != nil {
		return nil, fmt.Errorf("build facts: %w", err)
	}

	tr := DeriveTemporal(ft.Rows, opts.DateLayout)
	d := ft.Diagnostics
	d.UnparseableDates = tr.Dropped
	for _, e := range tr.Errors {
		d.DateErrors = append(d.DateErrors, e.Error())
	}
	d.Facts = len(tr.Rows)

	return &Base{
		ID:          uuid.NewString(),
		BuiltAt:     time.Now().UTC(),
		Diagnostics: d,
		facts:       tr.Rows,
		observed:    loan.ObservedRange(tr.Rows),
		controls:    ControlsFor(tr.Rows),
	}, nil
}
