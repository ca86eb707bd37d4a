/*
Package source loads the five input tables of the loan insights engine.

PURPOSE:
  Defines the interface between the pipeline and wherever the datasets
  live. A Source only knows how to hand back a raw table by name; the
  Loader checks that every declared column is present before anything
  downstream sees the table.

KEY TYPES:
  Source: Raw table access (CSV directory, XLSX workbook, SQLite, memory)
  Loader: Required-column verification on top of a Source
  Tables: The five loaded tables, in pipeline order

READ-ONLY CONTRACT:
  No Source writes. The SQLite source opens its database read-only and the
  file sources only read. There is no write path by design of the engine.

TABLE NAMES:
  Source identifiers (loan.SourceBorrowers, ...) are mapped to physical
  names with TableNames. The defaults match the published dataset files:

    borrowers  -> customerdata      (customerdata.csv / sheet / table)
    loans      -> loandata
    reasons    -> loanreason
    statuses   -> loanstatus
    employment -> employmentlength

IMPLEMENTATIONS:
  - csv.go:           Directory of CSV files
  - xlsx.go:          One workbook, one sheet per table
  - sqlite/sqlite.go: One SQLite database, one table per source
  - memory.go:        In-memory tables for tests and the sample dataset

SEE ALSO:
  - loader.go: Loader and MissingColumnError
  - pipeline/build.go: Consumes Tables
*/
package source

import (
	"context"

	"github.com/warp/loan-insights/frame"
	"github.com/warp/loan-insights/loan"
)

// =============================================================================
// SOURCE - Raw table access
// =============================================================================

// Source hands back raw tables. Implementations return an error wrapping
// loan.ErrSourceNotFound when the table does not exist.
type Source interface {
	// Name describes the source for logs, e.g. "csv:/data/loans".
	Name() string

	// Open reads the table declared by decl. Column types come from decl;
	// required columns are not checked here.
	Open(ctx context.Context, decl loan.TableDecl) (*frame.Table, error)
}

// TableNames maps source identifiers to physical table names.
type TableNames map[string]string

// DefaultTableNames returns the names used by the published dataset.
func DefaultTableNames() TableNames {
	return TableNames{
		loan.SourceBorrowers:  "customerdata",
		loan.SourceLoans:      "loandata",
		loan.SourceReasons:    "loanreason",
		loan.SourceStatuses:   "loanstatus",
		loan.SourceEmployment: "employmentlength",
	}
}

// Lookup returns the physical name of source, falling back to the default
// name and then to the identifier itself.
func (n TableNames) Lookup(source string) string {
	if name, ok := n[source]; ok && name != "" {
		return name
	}
	if name, ok := DefaultTableNames()[source]; ok {
		return name
	}
	return source
}

// Merge returns n with overrides applied.
func (n TableNames) Merge(overrides map[string]string) TableNames {
	out := make(TableNames, len(n)+len(overrides))
	for k, v := range n {
		out[k] = v
	}
	for k, v := range overrides {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// =============================================================================
// TABLES - The five loaded inputs
// =============================================================================

// Tables holds the loaded, column-checked source tables.
type Tables struct {
	Borrowers  *frame.Table
	Loans      *frame.Table
	Reasons    *frame.Table
	Statuses   *frame.Table
	Employment *frame.Table
}
