/*
Package pipeline assembles the FactRow table and answers queries over it.

PURPOSE:
  Everything between "five raw tables" and "numbers for a chart" lives
  here, in strict order:

    Normalize        resolve a coded column against a lookup (left join)
    BuildFacts       borrowers x loans + lookups -> []loan.FactRow
    DeriveTemporal   parse issue_date, derive issue_month, drop bad dates
    Build            all of the above once per data load -> *Base
    Filter           date range + reason selection, per query
    aggregates       five pure reductions, per query

LIFECYCLE:
  Build runs once per data load and returns an immutable *Base. Filter and
  the aggregate functions take a slice and return a new one; nothing here
  mutates its input, so a Base can serve any number of concurrent queries
  without locking.

DATA QUALITY:
  Rows are only ever excluded with a counter in Diagnostics: orphaned
  loans/borrowers, emp_length codes above 50, unparseable amounts and
  unparseable issue dates.

SEE ALSO:
  - frame/join.go: The joins Normalize and BuildFacts rely on
  - loan/types.go: FactRow
*/
package pipeline

import (
	"github.com/warp/loan-insights/frame"
)

// =============================================================================
// NORMALIZER - Resolve coded attributes against lookup tables
// =============================================================================

// JoinSpec declares how a lookup attaches to a table: LeftKey is the coded
// column on the left (qualified by source so it survives renaming), RightKey
// is the code column of the lookup.
type JoinSpec struct {
	LeftKey  frame.Ref
	RightKey string
}

// Normalize left-joins lookup onto left. Rows of left are never dropped or
// repeated; codes without a lookup entry get null descriptive columns.
// Colliding column names are suffixed with their source table. Returns a
// *loan.JoinKeyMismatchError if either key is missing.
func Normalize(left, lookup *frame.Table, spec JoinSpec) (*frame.Table, frame.JoinStats, error) {
	return frame.Join(frame.LeftJoin, left, lookup, spec.LeftKey, spec.RightKey)
}
