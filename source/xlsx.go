package source

import (
	"context"
	"fmt"
	"slices"

	"github.com/xuri/excelize/v2"

	"github.com/warp/loan-insights/frame"
	"github.com/warp/loan-insights/loan"
)

// =============================================================================
// XLSX SOURCE - One workbook, one sheet per table
// =============================================================================

// XLSX reads each table from the sheet named by Names. Row 1 is the header.
type XLSX struct {
	Path  string
	Names TableNames
}

// NewXLSX creates a workbook source using the default table names as sheets.
func NewXLSX(path string) *XLSX {
	return &XLSX{Path: path, Names: DefaultTableNames()}
}

func (x *XLSX) Name() string { return "xlsx:" + x.Path }

// Open reads one sheet. The workbook is opened per call so the source holds
// no file handle between loads.
func (x *XLSX) Open(_ context.Context, decl loan.TableDecl) (*frame.Table, error) {
	f, err := excelize.OpenFile(x.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", x.Path, err)
	}
	defer f.Close()

	sheet := x.Names.Lookup(decl.Source)
	if !slices.Contains(f.GetSheetList(), sheet) {
		return nil, fmt.Errorf("sheet %q in %s: %w", sheet, x.Path, loan.ErrSourceNotFound)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return frame.FromRecords(decl, nil, nil), nil
	}
	return frame.FromRecords(decl, rows[0], rows[1:]), nil
}
