package pipeline

import (
	"fmt"
	"strconv"

	"github.com/warp/loan-insights/frame"
	"github.com/warp/loan-insights/loan"
	"github.com/warp/loan-insights/source"
)

// =============================================================================
// DIAGNOSTICS - Every excluded row is counted somewhere
// =============================================================================

// Diagnostics describes what a data load kept and why it dropped the rest.
type Diagnostics struct {
	BorrowerRows int `json:"borrower_rows"`
	LoanRows     int `json:"loan_rows"`
	Joined       int `json:"joined"`

	// inner join borrowers x loans
	OrphanLoans           int `json:"orphan_loans"`
	OrphanBorrowers       int `json:"orphan_borrowers"`
	DuplicateBorrowerKeys int `json:"duplicate_borrower_keys"`
	DuplicateLoanKeys     int `json:"duplicate_loan_keys"`

	// left joins: rows kept with a null descriptive attribute
	UnresolvedReasons    int `json:"unresolved_reasons"`
	UnresolvedStatuses   int `json:"unresolved_statuses"`
	UnresolvedEmployment int `json:"unresolved_employment"`

	// lookup labels that read as loan.UnresolvedLabel and were escaped
	EscapedLabels int `json:"escaped_labels"`

	RenamedColumns []string `json:"renamed_columns,omitempty"`
	DroppedColumns []string `json:"dropped_columns,omitempty"`

	// rows kept without an amount; left out of amount sums, means and
	// distributions only
	InvalidAmounts int `json:"invalid_amounts"`

	// per-row exclusions
	EmpLengthOutOfDomain int      `json:"emp_length_out_of_domain"`
	UnparseableDates     int      `json:"unparseable_dates"`
	DateErrors           []string `json:"date_errors,omitempty"`

	Facts int `json:"facts"`
}

// Excluded returns the number of loans that made it through the inner join
// but not into the fact table.
func (d Diagnostics) Excluded() int {
	return d.EmpLengthOutOfDomain + d.UnparseableDates
}

// =============================================================================
// FACT TABLE BUILDER
// =============================================================================

// FactTable is the output of BuildFacts: joined, projected rows whose issue
// dates have not been parsed yet.
type FactTable struct {
	Rows        []loan.FactRow
	Diagnostics Diagnostics
}

// BuildFacts inner-joins borrowers and loans on loan_id, left-joins the three
// lookups, drops duplicate column names (first wins) and projects the result
// into FactRows. Rows with an emp_length code above loan.MaxEmpLength are
// excluded and counted. Rows with an empty or non-numeric loan_amnt are kept
// with an invalid Amount and counted.
func BuildFacts(t *source.Tables, schema loan.Schema) (*FactTable, error) {
	schema = schema.WithDefaults()
	var d Diagnostics
	d.BorrowerRows = t.Borrowers.Len()
	d.LoanRows = t.Loans.Len()

	var err error
	if d.DuplicateBorrowerKeys, err = duplicateKeys(t.Borrowers, schema.LoanID); err != nil {
		return nil, err
	}

	joined, st, err := frame.Join(frame.InnerJoin, t.Borrowers, t.Loans,
		frame.Ref{Column: schema.LoanID}, schema.LoanID)
	if err != nil {
		return nil, fmt.Errorf("join borrowers and loans: %w", err)
	}
	d.Joined = joined.Len()
	d.OrphanBorrowers = st.LeftUnmatched
	d.OrphanLoans = st.RightUnmatched
	d.DuplicateLoanKeys = st.DuplicateKeys
	d.RenamedColumns = append(d.RenamedColumns, st.Renamed...)

	lookups := []struct {
		name       string
		table      *frame.Table
		spec       JoinSpec
		unresolved *int
	}{
		{
			name:       loan.SourceReasons,
			table:      t.Reasons,
			spec:       JoinSpec{LeftKey: frame.Ref{Column: schema.ReasonCode, Source: loan.SourceLoans}, RightKey: schema.ReasonKey},
			unresolved: &d.UnresolvedReasons,
		},
		{
			name:       loan.SourceEmployment,
			table:      t.Employment,
			spec:       JoinSpec{LeftKey: frame.Ref{Column: schema.EmpLength, Source: loan.SourceBorrowers}, RightKey: schema.EmpLengthKey},
			unresolved: &d.UnresolvedEmployment,
		},
		{
			name:       loan.SourceStatuses,
			table:      t.Statuses,
			spec:       JoinSpec{LeftKey: frame.Ref{Column: schema.StatusCode, Source: loan.SourceLoans}, RightKey: schema.StatusKey},
			unresolved: &d.UnresolvedStatuses,
		},
	}
	for _, l := range lookups {
		joined, st, err = Normalize(joined, l.table, l.spec)
		if err != nil {
			return nil, fmt.Errorf("normalize %s: %w", l.name, err)
		}
		*l.unresolved = st.LeftUnmatched
		d.RenamedColumns = append(d.RenamedColumns, st.Renamed...)
	}

	joined, d.DroppedColumns = joined.DedupColumns()

	p, err := newProjection(joined, schema)
	if err != nil {
		return nil, err
	}
	rows := make([]loan.FactRow, 0, joined.Len())
	for r := 0; r < joined.Len(); r++ {
		if code := joined.Value(r, p.empLength); outOfDomain(code) {
			d.EmpLengthOutOfDomain++
			continue
		}
		amount, _ := loan.ParseAmount(joined.Value(r, p.amount))
		if !amount.Valid {
			d.InvalidAmounts++
		}
		rows = append(rows, loan.FactRow{
			LoanID:        joined.Value(r, p.loanID),
			AddrState:     joined.Value(r, p.addrState),
			Amount:        amount,
			IssueDateRaw:  joined.Value(r, p.issueDate),
			ReasonCode:    joined.Value(r, p.reasonCode),
			Reason:        label(joined, r, p.reason, &d.EscapedLabels),
			StatusCode:    joined.Value(r, p.statusCode),
			Status:        label(joined, r, p.status, &d.EscapedLabels),
			EmpLengthCode: joined.Value(r, p.empLength),
			EmpLength:     label(joined, r, p.empLabel, &d.EscapedLabels),
		})
	}
	d.Facts = len(rows)

	return &FactTable{Rows: rows, Diagnostics: d}, nil
}

// outOfDomain reports whether a numeric emp_length code exceeds the domain
// bound. Empty and non-numeric codes are in domain.
func outOfDomain(code string) bool {
	if code == "" {
		return false
	}
	v, err := strconv.ParseFloat(code, 64)
	if err != nil {
		return false
	}
	return v > loan.MaxEmpLength
}

// label reads a looked-up label; nil when the lookup did not match. A label
// that would read as loan.UnresolvedLabel is escaped and counted.
func label(t *frame.Table, row, col int, escaped *int) *string {
	if t.IsNull(row, col) {
		return nil
	}
	v := t.Value(row, col)
	if e := loan.EscapeLabel(v); e != v {
		*escaped++
		v = e
	}
	return &v
}

func duplicateKeys(t *frame.Table, key string) (int, error) {
	i, ok := t.Index(key)
	if !ok {
		return 0, &loan.JoinKeyMismatchError{Table: t.Name(), Key: key}
	}
	seen := make(map[string]bool, t.Len())
	dups := 0
	for r := 0; r < t.Len(); r++ {
		k := t.Value(r, i)
		if k == "" {
			continue
		}
		if seen[k] {
			dups++
		}
		seen[k] = true
	}
	return dups, nil
}

// =============================================================================
// PROJECTION - Column positions of the FactRow fields
// =============================================================================

type projection struct {
	loanID, addrState, empLength              int
	amount, issueDate, reasonCode, statusCode int
	reason, status, empLabel                  int
}

func newProjection(t *frame.Table, s loan.Schema) (*projection, error) {
	var p projection
	fields := []struct {
		ref frame.Ref
		dst *int
	}{
		{frame.Ref{Column: s.LoanID}, &p.loanID},
		{frame.Ref{Column: s.AddrState, Source: loan.SourceBorrowers}, &p.addrState},
		{frame.Ref{Column: s.EmpLength, Source: loan.SourceBorrowers}, &p.empLength},
		{frame.Ref{Column: s.LoanAmount, Source: loan.SourceLoans}, &p.amount},
		{frame.Ref{Column: s.IssueDate, Source: loan.SourceLoans}, &p.issueDate},
		{frame.Ref{Column: s.ReasonCode, Source: loan.SourceLoans}, &p.reasonCode},
		{frame.Ref{Column: s.StatusCode, Source: loan.SourceLoans}, &p.statusCode},
		{frame.Ref{Column: s.Reason, Source: loan.SourceReasons}, &p.reason},
		{frame.Ref{Column: s.Status, Source: loan.SourceStatuses}, &p.status},
		{frame.Ref{Column: s.EmpLengthLabel, Source: loan.SourceEmployment}, &p.empLabel},
	}
	for _, f := range fields {
		i, ok := t.Resolve(f.ref)
		if !ok {
			return nil, &loan.MissingColumnError{Source: t.Name(), Column: f.ref.String()}
		}
		*f.dst = i
	}
	return &p, nil
}
