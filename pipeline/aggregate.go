package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/loan-insights/loan"
)

// =============================================================================
// AGGREGATOR - Five pure reductions over a FactRow set
// =============================================================================
// Every function accepts an empty slice and returns an empty, non-nil result.

// meanPlaces is the rounding of ReasonMean.Mean.
const meanPlaces = 2

// MonthlyCount is the number of loans issued in one month.
type MonthlyCount struct {
	Month int    // YYYYMM
	Label string // YYYY-MM
	Count int
}

// MonthlyCounts groups facts by issue month, ascending.
func MonthlyCounts(facts []loan.FactRow) []MonthlyCount {
	counts := make(map[int]int)
	for _, f := range facts {
		counts[f.IssueMonth]++
	}
	out := make([]MonthlyCount, 0, len(counts))
	for m, n := range counts {
		out = append(out, MonthlyCount{Month: m, Label: monthLabel(m), Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

func monthLabel(yyyymm int) string {
	return fmt.Sprintf("%04d-%02d", yyyymm/100, yyyymm%100)
}

// ReasonMean is the mean loan amount of one reason.
type ReasonMean struct {
	Reason   string // loan.UnresolvedLabel when Resolved is false
	Resolved bool
	Count    int
	Mean     decimal.Decimal
}

// MeanAmountByReason groups facts by reason (a nil reason is its own group)
// and averages the amounts. Rows without an amount are skipped; a reason with
// no amount at all is omitted. Sorted by label, unresolved last.
func MeanAmountByReason(facts []loan.FactRow) []ReasonMean {
	type acc struct {
		sum decimal.Decimal
		n   int
	}
	groups := make(map[string]*acc)
	for _, f := range facts {
		if !f.Amount.Valid {
			continue
		}
		key := f.ReasonLabel()
		g, ok := groups[key]
		if !ok {
			g = &acc{sum: decimal.Zero}
			groups[key] = g
		}
		g.sum = g.sum.Add(f.Amount.Decimal)
		g.n++
	}
	out := make([]ReasonMean, 0, len(groups))
	for label, g := range groups {
		out = append(out, ReasonMean{
			Reason:   label,
			Resolved: label != loan.UnresolvedLabel,
			Count:    g.n,
			Mean:     g.sum.DivRound(decimal.NewFromInt(int64(g.n)), meanPlaces),
		})
	}
	sort.Slice(out, func(i, j int) bool { return loan.LabelLess(out[i].Reason, out[j].Reason) })
	return out
}

// StatusCount is the number of loans in one delinquent status.
type StatusCount struct {
	Status string
	Count  int
}

// DelinquencyCounts counts facts per loan.DelinquentStatuses. Other statuses
// are ignored here only; statuses with no rows are omitted.
func DelinquencyCounts(facts []loan.FactRow) []StatusCount {
	counts := make(map[string]int, len(loan.DelinquentStatuses))
	for _, f := range facts {
		if f.Status != nil {
			counts[*f.Status]++
		}
	}
	out := make([]StatusCount, 0, len(loan.DelinquentStatuses))
	for _, s := range loan.DelinquentStatuses {
		if n := counts[s]; n > 0 {
			out = append(out, StatusCount{Status: s, Count: n})
		}
	}
	return out
}

// AmountDistribution summarizes the amounts of one employment-length bucket
// for a box plot. Quartiles use linear interpolation between order statistics.
type AmountDistribution struct {
	EmpLength string // loan.UnresolvedLabel when Resolved is false
	Resolved  bool
	Count     int
	Min       decimal.Decimal
	Q1        decimal.Decimal
	Median    decimal.Decimal
	Q3        decimal.Decimal
	Max       decimal.Decimal
	Values    []decimal.Decimal // sorted ascending
}

// AmountDistributionByEmployment groups facts by resolved employment-length
// label (unresolved is its own group). Rows without an amount are skipped.
// Sorted by label, unresolved last.
func AmountDistributionByEmployment(facts []loan.FactRow) []AmountDistribution {
	values := make(map[string][]decimal.Decimal)
	for _, f := range facts {
		if !f.Amount.Valid {
			continue
		}
		key := f.EmpLengthLabel()
		values[key] = append(values[key], f.Amount.Decimal)
	}
	out := make([]AmountDistribution, 0, len(values))
	for label, vs := range values {
		sort.Slice(vs, func(i, j int) bool { return vs[i].LessThan(vs[j]) })
		out = append(out, AmountDistribution{
			EmpLength: label,
			Resolved:  label != loan.UnresolvedLabel,
			Count:     len(vs),
			Min:       vs[0],
			Q1:        Quantile(vs, 0.25),
			Median:    Quantile(vs, 0.5),
			Q3:        Quantile(vs, 0.75),
			Max:       vs[len(vs)-1],
			Values:    vs,
		})
	}
	sort.Slice(out, func(i, j int) bool { return loan.LabelLess(out[i].EmpLength, out[j].EmpLength) })
	return out
}

// Quantile returns the q-quantile (0 <= q <= 1) of sorted values using linear
// interpolation. It returns zero for an empty slice.
func Quantile(sorted []decimal.Decimal, q float64) decimal.Decimal {
	if len(sorted) == 0 {
		return decimal.Zero
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := decimal.NewFromFloat(pos - float64(lo))
	return sorted[lo].Add(sorted[lo+1].Sub(sorted[lo]).Mul(frac))
}

// StateTotal is the summed loan amount of one region.
type StateTotal struct {
	State string // two-letter code, upper case; matches GeoJSON feature.id
	Total decimal.Decimal
	Count int // loans, including those without an amount
}

// AmountByState sums amounts per addr_state. Rows without a state are left
// out; rows without an amount count as loans but add nothing to Total.
// Sorted by state code.
func AmountByState(facts []loan.FactRow) []StateTotal {
	totals := make(map[string]*StateTotal)
	for _, f := range facts {
		key := RegionKey(f.AddrState)
		if key == "" {
			continue
		}
		t, ok := totals[key]
		if !ok {
			t = &StateTotal{State: key, Total: decimal.Zero}
			totals[key] = t
		}
		if f.Amount.Valid {
			t.Total = t.Total.Add(f.Amount.Decimal)
		}
		t.Count++
	}
	out := make([]StateTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].State < out[j].State })
	return out
}

// RegionKey normalizes an addr_state value to the boundary key convention.
func RegionKey(state string) string {
	return strings.ToUpper(strings.TrimSpace(state))
}

// =============================================================================
// DASHBOARD - All five views for one query
// =============================================================================

type Dashboard struct {
	Loans       int
	TotalAmount decimal.Decimal
	Monthly     []MonthlyCount
	Reasons     []ReasonMean
	Delinquency []StatusCount
	Employment  []AmountDistribution
	States      []StateTotal
}

// DashboardFor computes every aggregate over facts.
func DashboardFor(facts []loan.FactRow) Dashboard {
	return Dashboard{
		Loans:       len(facts),
		TotalAmount: loan.SumAmounts(facts),
		Monthly:     MonthlyCounts(facts),
		Reasons:     MeanAmountByReason(facts),
		Delinquency: DelinquencyCounts(facts),
		Employment:  AmountDistributionByEmployment(facts),
		States:      AmountByState(facts),
	}
}
