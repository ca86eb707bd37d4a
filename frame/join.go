package frame

import (
	"github.com/warp/loan-insights/loan"
)

// =============================================================================
// JOINS - Hash joins with deterministic collision renaming
// =============================================================================

type JoinKind int

const (
	// InnerJoin keeps only rows whose key matches on both sides. A key that
	// repeats on the right yields one output row per match.
	InnerJoin JoinKind = iota

	// LeftJoin keeps every left row once. The right side is a lookup: the
	// first right row per key wins and unmatched left rows get null cells.
	LeftJoin
)

func (k JoinKind) String() string {
	if k == LeftJoin {
		return "left"
	}
	return "inner"
}

// JoinStats reports what a join matched and discarded.
type JoinStats struct {
	Matched        int // output rows with a right-side match
	LeftUnmatched  int // left rows with no right-side match
	RightUnmatched int // right rows no left row matched
	DuplicateKeys  int // right rows whose key repeats an earlier right row
	Renamed        []string
}

// Join joins left and right on leftKey = rightKey.
//
// Null keys never match. When the key column carries the same name on both
// sides it appears once in the output; otherwise both key columns are kept.
// Any other column name present on both sides is renamed on both sides to
// <name>_<source>, so a join never overwrites an unrelated column.
func Join(kind JoinKind, left, right *Table, leftKey Ref, rightKey string) (*Table, JoinStats, error) {
	var stats JoinStats

	li, ok := left.Resolve(leftKey)
	if !ok {
		return nil, stats, &loan.JoinKeyMismatchError{Table: left.Name(), Key: leftKey.String()}
	}
	ri, ok := right.Index(rightKey)
	if !ok {
		return nil, stats, &loan.JoinKeyMismatchError{Table: right.Name(), Key: rightKey}
	}

	sharedKey := left.columns[li].Name == right.columns[ri].Name

	// Output column layout.
	rightKeep := make([]int, 0, right.Width())
	for i := range right.columns {
		if sharedKey && i == ri {
			continue
		}
		rightKeep = append(rightKeep, i)
	}

	leftNames := make(map[string]bool, left.Width())
	for i, c := range left.columns {
		if sharedKey && i == li {
			continue
		}
		leftNames[c.Name] = true
	}
	collides := make(map[string]bool)
	for _, i := range rightKeep {
		if name := right.columns[i].Name; leftNames[name] {
			collides[name] = true
		}
	}

	cols := make([]Column, 0, left.Width()+len(rightKeep))
	for _, c := range left.columns {
		if collides[c.Name] {
			stats.Renamed = append(stats.Renamed, c.Name)
			c.Name = c.Name + "_" + c.Source
		}
		cols = append(cols, c)
	}
	for _, i := range rightKeep {
		c := right.columns[i]
		if collides[c.Name] {
			c.Name = c.Name + "_" + c.Source
		}
		cols = append(cols, c)
	}

	// Index the right side.
	index := make(map[string][]int, right.Len())
	for r := 0; r < right.Len(); r++ {
		key := right.rows[r][ri]
		if key == "" {
			continue
		}
		if len(index[key]) > 0 {
			stats.DuplicateKeys++
		}
		index[key] = append(index[key], r)
	}

	used := make([]bool, right.Len())
	rows := make([][]string, 0, left.Len())
	for l := 0; l < left.Len(); l++ {
		lrow := left.rows[l]
		matches := index[lrow[li]]
		if lrow[li] == "" {
			matches = nil
		}
		if len(matches) == 0 {
			stats.LeftUnmatched++
			if kind == LeftJoin {
				rows = append(rows, joinRow(lrow, nil, rightKeep))
			}
			continue
		}
		if kind == LeftJoin {
			matches = matches[:1]
		}
		for _, r := range matches {
			used[r] = true
			rows = append(rows, joinRow(lrow, right.rows[r], rightKeep))
			stats.Matched++
		}
	}
	for r := range used {
		if !used[r] {
			stats.RightUnmatched++
		}
	}

	out := &Table{name: left.Name() + "+" + right.Name(), columns: cols, rows: rows}
	return out, stats, nil
}

func joinRow(left, right []string, rightKeep []int) []string {
	row := make([]string, 0, len(left)+len(rightKeep))
	row = append(row, left...)
	for _, i := range rightKeep {
		if right == nil {
			row = append(row, "")
			continue
		}
		row = append(row, right[i])
	}
	return row
}
