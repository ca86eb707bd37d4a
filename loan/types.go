/*
Package loan holds the typed domain model of the loan insights engine.

PURPOSE:
  The source datasets are loosely typed, code-keyed tables. Everything
  downstream of the fact-table build works on the explicit FactRow schema
  defined here, so join and filter logic is checked by the compiler instead
  of by runtime column-name lookups.

KEY CONCEPTS IN THIS FILE (types.go):
  - FactRow: one denormalized, successfully joined loan
  - Amount helpers: loan amounts are decimal.NullDecimal, never float64
  - ReasonSet: the caller-selected set of reason labels
  - UnresolvedLabel: display key for a lookup code with no match

DESIGN PRINCIPLES:
  1. Immutability: FactRows are values; stages return new slices
  2. Precision: amounts use decimal.Decimal to avoid float drift in sums
  3. Nullability: descriptive attributes from left joins are pointers, and
     a missing or non-numeric loan_amnt is an invalid NullDecimal

SEE ALSO:
  - schema.go: Column names of the five source tables
  - date.go: Calendar dates and date ranges
  - errors.go: Error taxonomy
*/
package loan

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FACT ROW - The unit of all downstream work
// =============================================================================

// FactRow is one loan joined with its borrower and resolved lookups.
// Reason, Status and EmpLength are nil when the code had no lookup entry.
type FactRow struct {
	LoanID    string
	AddrState string
	Amount    decimal.NullDecimal // Valid is false when loan_amnt was empty or non-numeric

	IssueDateRaw string
	IssueDate    Date
	IssueMonth   int    // year*100 + month
	MonthLabel   string // YYYY-MM

	ReasonCode string
	Reason     *string

	StatusCode string
	Status     *string

	EmpLengthCode string
	EmpLength     *string
}

// ReasonLabel returns the reason label, or UnresolvedLabel for a nil reason.
func (f FactRow) ReasonLabel() string { return LabelOf(f.Reason) }

// StatusLabel returns the status label, or UnresolvedLabel for a nil status.
func (f FactRow) StatusLabel() string { return LabelOf(f.Status) }

// EmpLengthLabel returns the employment-length label, or UnresolvedLabel.
func (f FactRow) EmpLengthLabel() string { return LabelOf(f.EmpLength) }

// UnresolvedLabel is the group key used for a code with no lookup entry.
const UnresolvedLabel = "(unresolved)"

// EscapeLabel keeps a looked-up label distinct from UnresolvedLabel. A label
// that reads as UnresolvedLabel inside zero or more pairs of double quotes
// gains one more pair; every other label is returned as is. No two labels
// map to the same result.
func EscapeLabel(s string) string {
	inner := s
	for len(inner) >= 2 && inner[0] == '"' && inner[len(inner)-1] == '"' {
		inner = inner[1 : len(inner)-1]
	}
	if inner != UnresolvedLabel {
		return s
	}
	return `"` + s + `"`
}

// LabelOf dereferences a nullable label.
func LabelOf(s *string) string {
	if s == nil {
		return UnresolvedLabel
	}
	return *s
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }

// =============================================================================
// AMOUNTS
// =============================================================================

// ParseAmount parses a loan amount cell. An empty or non-numeric cell yields
// an invalid NullDecimal and the parse error, if any.
func ParseAmount(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// MustAmount parses a decimal literal and panics on failure. For tests and
// fixtures.
func MustAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("loan: invalid amount %q: %v", s, err))
	}
	return d
}

// AmountOf is MustAmount wrapped as a present FactRow amount.
func AmountOf(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(MustAmount(s))
}

// SumAmounts adds up the amounts of rows. Rows without an amount are skipped.
func SumAmounts(rows []FactRow) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		if r.Amount.Valid {
			total = total.Add(r.Amount.Decimal)
		}
	}
	return total
}

// =============================================================================
// REASON SET - Caller-selected reason labels
// =============================================================================

// ReasonSet is a set of reason labels. A nil or empty set selects nothing.
type ReasonSet map[string]struct{}

// NewReasonSet builds a set from labels.
func NewReasonSet(labels ...string) ReasonSet {
	s := make(ReasonSet, len(labels))
	for _, l := range labels {
		s[l] = struct{}{}
	}
	return s
}

// Contains reports whether label is selected.
func (s ReasonSet) Contains(label string) bool {
	_, ok := s[label]
	return ok
}

// Labels returns the members in sorted order, UnresolvedLabel last.
func (s ReasonSet) Labels() []string {
	out := make([]string, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	SortLabels(out)
	return out
}

// SortLabels sorts labels ascending, keeping UnresolvedLabel at the end.
func SortLabels(labels []string) {
	sort.Slice(labels, func(i, j int) bool {
		return LabelLess(labels[i], labels[j])
	})
}

// LabelLess orders labels ascending with UnresolvedLabel last.
func LabelLess(a, b string) bool {
	if a == UnresolvedLabel {
		return false
	}
	if b == UnresolvedLabel {
		return true
	}
	return a < b
}

// DistinctReasons returns the set of reason labels present in rows.
func DistinctReasons(rows []FactRow) ReasonSet {
	s := make(ReasonSet)
	for _, r := range rows {
		s[r.ReasonLabel()] = struct{}{}
	}
	return s
}
