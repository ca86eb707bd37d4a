package pipeline

import (
	"github.com/warp/loan-insights/loan"
)

// =============================================================================
// FILTER ENGINE - Date range + reason selection
// =============================================================================

// FilterSpec selects the active working set. Nil bounds default to the
// observed min/max of the facts being filtered; an empty Reasons set selects
// nothing. A nil reason is matched by loan.UnresolvedLabel.
type FilterSpec struct {
	Start   *loan.Date
	End     *loan.Date
	Reasons loan.ReasonSet
}

// AllReasons returns a spec with open date bounds and every reason present
// in facts selected: the default state of the controls.
func AllReasons(facts []loan.FactRow) FilterSpec {
	return FilterSpec{Reasons: loan.DistinctReasons(facts)}
}

// Range resolves the effective inclusive date range of spec over facts:
// omitted bounds become the observed bounds (or loan.FallbackRange when facts
// is empty), and supplied bounds are clamped into the observed range.
func (s FilterSpec) Range(facts []loan.FactRow) loan.DateRange {
	observed := loan.ObservedRange(facts)
	r := observed
	if s.Start != nil {
		r.Start = *s.Start
	}
	if s.End != nil {
		r.End = *s.End
	}
	if len(facts) == 0 {
		return r
	}
	return r.Clamp(observed)
}

// Filter returns the rows of facts with Start <= issue date <= End and a
// selected reason, in input order. facts is not modified. Filtering the
// result again with the same spec returns the same rows.
func Filter(facts []loan.FactRow, spec FilterSpec) []loan.FactRow {
	out := make([]loan.FactRow, 0)
	if len(facts) == 0 || len(spec.Reasons) == 0 {
		return out
	}
	r := spec.Range(facts)
	if r.Empty() {
		return out
	}
	for _, f := range facts {
		if !r.Contains(f.IssueDate) {
			continue
		}
		if !spec.Reasons.Contains(f.ReasonLabel()) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// =============================================================================
// CONTROLS - What the control surface needs to render
// =============================================================================

// Controls describes the date-range selector and the reason multi-select.
type Controls struct {
	DateBounds loan.DateRange
	Reasons    []string // distinct reason labels, unresolved last
	Selected   []string // default selection: all reasons
}

// ControlsFor returns the controls for facts. Bounds are the observed
// min/max, or loan.FallbackRange when facts is empty.
func ControlsFor(facts []loan.FactRow) Controls {
	reasons := loan.DistinctReasons(facts).Labels()
	return Controls{
		DateBounds: loan.ObservedRange(facts),
		Reasons:    reasons,
		Selected:   append([]string(nil), reasons...),
	}
}
