/*
Package frame provides the small, immutable in-memory table used between
loading and fact-table projection.

PURPOSE:
  Source tables arrive as named string columns. Before they are projected
  into typed FactRows they have to be joined, and joins are where column
  names collide. frame keeps track of where every column came from (its
  source table and original name) so collisions can be renamed and
  deduplicated deterministically.

KEY CONCEPTS:
  - Table:  named columns + string cells; an empty cell is null
  - Column: current name, original (base) name, source table, declared type
  - Ref:    a column reference by name, optionally qualified by source

IMMUTABILITY:
  No method mutates a Table. Joins and DedupColumns return new tables that
  share no row slices with their inputs.

SEE ALSO:
  - join.go: Inner/left hash joins with collision renaming
  - source/loader.go: Builds Tables from CSV, XLSX, SQLite
*/
package frame

import (
	"fmt"
	"strings"

	"github.com/warp/loan-insights/loan"
)

// Column describes one column of a Table.
type Column struct {
	Name   string // current name, possibly suffixed after a collision
	Base   string // name in the source table
	Source string // source table identifier
	Type   loan.ColumnType
}

// Table is an immutable set of rows over named columns.
type Table struct {
	name    string
	columns []Column
	rows    [][]string
}

// New builds a table named name. Short rows are padded with nulls and cells
// are trimmed of surrounding whitespace.
func New(name string, columns []Column, rows [][]string) *Table {
	cols := make([]Column, len(columns))
	copy(cols, columns)
	for i := range cols {
		if cols[i].Base == "" {
			cols[i].Base = cols[i].Name
		}
		if cols[i].Source == "" {
			cols[i].Source = name
		}
		if cols[i].Type == "" {
			cols[i].Type = loan.TypeString
		}
	}

	out := make([][]string, len(rows))
	for i, r := range rows {
		row := make([]string, len(cols))
		for j := 0; j < len(cols) && j < len(r); j++ {
			row[j] = strings.TrimSpace(r[j])
		}
		out[i] = row
	}
	return &Table{name: name, columns: cols, rows: out}
}

// FromRecords builds a table from a header row followed by data rows, typing
// columns from decl. This is the shape produced by CSV and XLSX readers.
func FromRecords(decl loan.TableDecl, header []string, records [][]string) *Table {
	cols := make([]Column, len(header))
	for i, h := range header {
		h = CleanHeader(h)
		cols[i] = Column{Name: h, Base: h, Source: decl.Source, Type: decl.TypeOf(h)}
	}
	return New(decl.Source, cols, records)
}

// CleanHeader strips a UTF-8 byte order mark and surrounding whitespace.
func CleanHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.TrimSpace(h)
}

func (t *Table) Name() string { return t.name }
func (t *Table) Len() int     { return len(t.rows) }
func (t *Table) Width() int   { return len(t.columns) }

// Columns returns a copy of the column descriptors.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// ColumnNames returns the current column names in order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of the column currently named name.
func (t *Table) Index(name string) (int, bool) {
	for i, c := range t.columns {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Has reports whether a column is currently named name.
func (t *Table) Has(name string) bool {
	_, ok := t.Index(name)
	return ok
}

// Value returns the cell at row, col.
func (t *Table) Value(row, col int) string { return t.rows[row][col] }

// IsNull reports whether the cell at row, col is empty.
func (t *Table) IsNull(row, col int) bool { return t.rows[row][col] == "" }

// Row returns a copy of row i.
func (t *Table) Row(i int) []string {
	out := make([]string, len(t.rows[i]))
	copy(out, t.rows[i])
	return out
}

func (t *Table) String() string {
	return fmt.Sprintf("%s(%d rows x %d cols)", t.name, t.Len(), t.Width())
}

// =============================================================================
// REFS - Column references that survive collision renaming
// =============================================================================

// Ref names a column by its base name, optionally pinned to a source. After a
// collision, loan_status_code from the loans table is still found by
// Ref{Column: "loan_status_code", Source: "loans"} even though it is now
// called loan_status_code_loans.
type Ref struct {
	Column string
	Source string
}

func (r Ref) String() string {
	if r.Source == "" {
		return r.Column
	}
	return r.Source + "." + r.Column
}

// Resolve finds the column referenced by r.
// Unqualified refs match the current name only. Qualified refs match the
// current name within the source first, then the base name within the source.
func (t *Table) Resolve(r Ref) (int, bool) {
	if r.Source == "" {
		return t.Index(r.Column)
	}
	for i, c := range t.columns {
		if c.Name == r.Column && c.Source == r.Source {
			return i, true
		}
	}
	for i, c := range t.columns {
		if c.Base == r.Column && c.Source == r.Source {
			return i, true
		}
	}
	return -1, false
}

// =============================================================================
// COLUMN DEDUPLICATION - First write wins
// =============================================================================

// DedupColumns drops every column whose name was already used by an earlier
// column and returns the new table with the names that were dropped.
func (t *Table) DedupColumns() (*Table, []string) {
	seen := make(map[string]bool, len(t.columns))
	keep := make([]int, 0, len(t.columns))
	var dropped []string
	for i, c := range t.columns {
		if seen[c.Name] {
			dropped = append(dropped, c.Name)
			continue
		}
		seen[c.Name] = true
		keep = append(keep, i)
	}
	if len(dropped) == 0 {
		return t, nil
	}

	cols := make([]Column, len(keep))
	for j, i := range keep {
		cols[j] = t.columns[i]
	}
	rows := make([][]string, len(t.rows))
	for r, row := range t.rows {
		out := make([]string, len(keep))
		for j, i := range keep {
			out[j] = row[i]
		}
		rows[r] = out
	}
	return &Table{name: t.name, columns: cols, rows: rows}, dropped
}
