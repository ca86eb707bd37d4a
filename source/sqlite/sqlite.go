/*
Package sqlite provides a SQLite-backed implementation of source.Source.

PURPOSE:
  Reads the five input tables from one SQLite database, one SQL table per
  source. Useful when the datasets were imported once with the sqlite3 CLI
  (.import --csv) instead of being shipped as loose CSV files.

READ-ONLY:
  The database is opened with mode=ro. The engine has no write path; this
  source never creates, migrates or modifies anything.

TYPES:
  SQLite is dynamically typed. Every cell is turned into the text a CSV
  export would hold, so codes match across tables whatever their storage
  class: INTEGER 3 and REAL 3.0 both read "3", REAL never uses exponent
  notation, NULL becomes an empty cell. Columns declared DATE, DATETIME or
  TIMESTAMP come back from the driver as times and are written as
  YYYY-MM-DD (RFC 3339 when they carry a time of day). The declared column
  types of loan.TableDecl decide how the pipeline interprets the text later.

USAGE:
  src, err := sqlite.Open("./data/loans.db")
  if err != nil {
      log.Fatal(err)
  }
  defer src.Close()

  loader := source.NewLoader(src, logger)

SEE ALSO:
  - source/source.go: Interface definition and table names
  - source/loader.go: Required-column verification
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/loan-insights/frame"
	"github.com/warp/loan-insights/loan"
	"github.com/warp/loan-insights/source"
)

// Source implements source.Source over a SQLite database.
type Source struct {
	db    *sql.DB
	path  string
	Names source.TableNames
}

// Open opens the database at path read-only.
func Open(path string) (*Source, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return &Source{db: db, path: path, Names: source.DefaultTableNames()}, nil
}

// Close closes the database connection.
func (s *Source) Close() error {
	return s.db.Close()
}

func (s *Source) Name() string { return "sqlite:" + s.path }

// Open reads every row of the table mapped to decl.Source.
func (s *Source) Open(ctx context.Context, decl loan.TableDecl) (*frame.Table, error) {
	table := s.Names.Lookup(decl.Source)
	exists, err := s.tableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("table %q in %s: %w", table, s.path, loan.ErrSourceNotFound)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(table))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}

	var records [][]string
	for rows.Next() {
		cells := make([]any, len(header))
		dest := make([]any, len(header))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		rec := make([]string, len(header))
		for i, c := range cells {
			rec[i] = cellText(c)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}

	return frame.FromRecords(decl, header, records), nil
}

func (s *Source) tableExists(ctx context.Context, table string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type IN ('table', 'view') AND name = ?`, table).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to inspect schema: %w", err)
	}
	return n > 0, nil
}

// cellText renders one driver value the way a CSV export would.
func cellText(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []byte:
		return string(v)
	case string:
		return v
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 && v.Nanosecond() == 0 {
			return v.Format(loan.DefaultDateLayout)
		}
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
