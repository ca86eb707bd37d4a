package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/warp/loan-insights/frame"
	"github.com/warp/loan-insights/loan"
)

// =============================================================================
// CSV SOURCE - One file per table in a directory
// =============================================================================

// CSV reads <dir>/<name>.csv for each table.
type CSV struct {
	Dir   string
	Names TableNames
}

// NewCSV creates a CSV source rooted at dir using the default table names.
func NewCSV(dir string) *CSV {
	return &CSV{Dir: dir, Names: DefaultTableNames()}
}

func (c *CSV) Name() string { return "csv:" + c.Dir }

// Path returns the file read for a source identifier.
func (c *CSV) Path(source string) string {
	return filepath.Join(c.Dir, c.Names.Lookup(source)+".csv")
}

// Open reads the whole file. The first record is the header; a UTF-8 BOM on
// it is stripped. Records may be ragged.
func (c *CSV) Open(_ context.Context, decl loan.TableDecl) (*frame.Table, error) {
	path := c.Path(decl.Source)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, loan.ErrSourceNotFound)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return ReadCSV(decl, f)
}

// ReadCSV parses CSV data from r into a table typed by decl.
func ReadCSV(decl loan.TableDecl, r io.Reader) (*frame.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s csv: %w", decl.Source, err)
	}
	if len(records) == 0 {
		return frame.FromRecords(decl, nil, nil), nil
	}
	return frame.FromRecords(decl, records[0], records[1:]), nil
}
