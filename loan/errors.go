/*
errors.go - Error taxonomy of the loan insights engine

PURPOSE:
  All error types in one place. Build-time errors abort the pipeline before
  any query runs; per-row errors are recovered by exclusion and counted.

ERROR CATEGORIES:
  1. Build errors - missing columns, join keys absent from a table (fatal)
  2. Row errors - unparseable issue dates (recovered, counted)
  3. Map errors - boundary description missing (fatal for the map only)

USAGE:
  if errors.Is(err, loan.ErrMissingColumn) {
      var mc *loan.MissingColumnError
      errors.As(err, &mc) // mc.Source, mc.Column
  }

SEE ALSO:
  - source/loader.go: Returns MissingColumnError
  - pipeline/normalize.go: Returns JoinKeyMismatchError
  - geo/boundary.go: Returns GeoBoundaryNotFoundError
*/
package loan

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingColumn is returned when a loaded source lacks a required column.
	ErrMissingColumn = errors.New("missing required column")

	// ErrJoinKeyMismatch is returned when a declared join key is absent from
	// one side of a join.
	ErrJoinKeyMismatch = errors.New("join key not found")

	// ErrDateParse marks a per-row issue_date that could not be parsed.
	ErrDateParse = errors.New("unparseable issue date")

	// ErrGeoBoundaryNotFound is returned when the boundary description cannot
	// be found. Only the map path fails on it.
	ErrGeoBoundaryNotFound = errors.New("geo boundary not found")

	// ErrSourceNotFound is returned when a named table does not exist in a source.
	ErrSourceNotFound = errors.New("source table not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MissingColumnError names the source and the absent column.
type MissingColumnError struct {
	Source string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("source %q: missing required column %q", e.Source, e.Column)
}

func (e *MissingColumnError) Unwrap() error { return ErrMissingColumn }

// JoinKeyMismatchError names the table lacking the join key.
type JoinKeyMismatchError struct {
	Table string
	Key   string
}

func (e *JoinKeyMismatchError) Error() string {
	return fmt.Sprintf("table %q: join key %q not found", e.Table, e.Key)
}

func (e *JoinKeyMismatchError) Unwrap() error { return ErrJoinKeyMismatch }

// DateParseError describes one row excluded because of its issue_date.
type DateParseError struct {
	LoanID string
	Value  string
	Layout string
	Err    error
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("loan %s: cannot parse issue_date %q with layout %q", e.LoanID, e.Value, e.Layout)
}

func (e *DateParseError) Unwrap() error { return ErrDateParse }

// GeoBoundaryNotFoundError names the boundary description that was looked for.
type GeoBoundaryNotFoundError struct {
	Path string
	Err  error
}

func (e *GeoBoundaryNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geo boundary %q not found: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("geo boundary %q not found", e.Path)
}

func (e *GeoBoundaryNotFoundError) Unwrap() error { return ErrGeoBoundaryNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsBuildError returns true for errors that abort pipeline construction.
func IsBuildError(err error) bool {
	return errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrJoinKeyMismatch) ||
		errors.Is(err, ErrSourceNotFound)
}

// IsNotFound returns true if the error indicates a missing input.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSourceNotFound) ||
		errors.Is(err, ErrGeoBoundaryNotFound)
}
