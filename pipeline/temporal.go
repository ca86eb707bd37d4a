package pipeline

import (
	"sort"

	"github.com/warp/loan-insights/loan"
)

// =============================================================================
// TEMPORAL DERIVER - issue_date -> calendar date + month bucket
// =============================================================================

// maxDateErrors bounds the per-row errors kept for diagnostics. The count in
// TemporalResult.Dropped is always exact.
const maxDateErrors = 20

// TemporalResult is the outcome of DeriveTemporal.
type TemporalResult struct {
	Rows    []loan.FactRow
	Dropped int
	Errors  []*loan.DateParseError // first maxDateErrors failures
}

// DeriveTemporal parses IssueDateRaw of every row with layout. Rows that fail
// are removed and counted; survivors get IssueDate, IssueMonth (YYYYMM) and
// MonthLabel (YYYY-MM). The result is sorted by IssueMonth, then issue date,
// then loan id. The input slice is not modified.
func DeriveTemporal(rows []loan.FactRow, layout string) TemporalResult {
	if layout == "" {
		layout = loan.DefaultDateLayout
	}

	res := TemporalResult{Rows: make([]loan.FactRow, 0, len(rows))}
	for _, row := range rows {
		d, err := loan.ParseDate(layout, row.IssueDateRaw)
		if err != nil {
			res.Dropped++
			if len(res.Errors) < maxDateErrors {
				res.Errors = append(res.Errors, &loan.DateParseError{
					LoanID: row.LoanID,
					Value:  row.IssueDateRaw,
					Layout: layout,
					Err:    err,
				})
			}
			continue
		}
		row.IssueDate = d
		row.IssueMonth = d.YearMonth()
		row.MonthLabel = d.MonthLabel()
		res.Rows = append(res.Rows, row)
	}

	sort.SliceStable(res.Rows, func(i, j int) bool {
		a, b := res.Rows[i], res.Rows[j]
		if a.IssueMonth != b.IssueMonth {
			return a.IssueMonth < b.IssueMonth
		}
		if !a.IssueDate.Equal(b.IssueDate) {
			return a.IssueDate.Before(b.IssueDate)
		}
		return a.LoanID < b.LoanID
	})
	return res
}
