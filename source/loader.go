package source

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/warp/loan-insights/frame"
	"github.com/warp/loan-insights/loan"
)

// =============================================================================
// LOADER - Required-column verification
// =============================================================================

// Loader reads declared tables from a Source.
type Loader struct {
	src    Source
	logger *zap.Logger
}

// NewLoader creates a loader over src. A nil logger disables logging.
func NewLoader(src Source, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{src: src, logger: logger}
}

// Load reads one table and verifies that every declared column exists.
func (l *Loader) Load(ctx context.Context, decl loan.TableDecl) (*frame.Table, error) {
	tbl, err := l.src.Open(ctx, decl)
	if err != nil {
		return nil, fmt.Errorf("load %s from %s: %w", decl.Source, l.src.Name(), err)
	}
	if err := CheckColumns(decl, tbl); err != nil {
		return nil, err
	}

	l.logger.Debug("Loaded source table",
		zap.String("source", decl.Source),
		zap.String("from", l.src.Name()),
		zap.Int("rows", tbl.Len()),
		zap.Int("columns", tbl.Width()))
	return tbl, nil
}

// LoadAll reads the five tables of schema, stopping at the first failure.
func (l *Loader) LoadAll(ctx context.Context, schema loan.Schema) (*Tables, error) {
	schema = schema.WithDefaults()

	var out Tables
	targets := []struct {
		decl loan.TableDecl
		dst  **frame.Table
	}{
		{schema.Borrowers(), &out.Borrowers},
		{schema.Loans(), &out.Loans},
		{schema.Reasons(), &out.Reasons},
		{schema.Statuses(), &out.Statuses},
		{schema.Employment(), &out.Employment},
	}
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tbl, err := l.Load(ctx, t.decl)
		if err != nil {
			return nil, err
		}
		*t.dst = tbl
	}
	return &out, nil
}

// CheckColumns returns a MissingColumnError for the first declared column
// absent from tbl.
func CheckColumns(decl loan.TableDecl, tbl *frame.Table) error {
	for _, name := range decl.Required() {
		if !tbl.Has(name) {
			return &loan.MissingColumnError{Source: decl.Source, Column: name}
		}
	}
	return nil
}
