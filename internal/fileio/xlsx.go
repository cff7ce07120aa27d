package fileio

import (
	"fmt"
	"io"

	excelize "github.com/xuri/excelize/v2"
)

// XLSXRows streams the rows of one worksheet of an .xlsx workbook.
type XLSXRows struct {
	f    *excelize.File
	rows *excelize.Rows
}

// OpenXLSX opens the named sheet, or the first one when sheet is empty.
func OpenXLSX(r io.Reader, sheet string) (*XLSXRows, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.Rows(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("xlsx: sheet %q: %w", sheet, err)
	}
	return &XLSXRows{f: f, rows: rows}, nil
}

func (x *XLSXRows) ReadRow() ([]string, error) {
	if !x.rows.Next() {
		if err := x.rows.Error(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	cols, err := x.rows.Columns()
	if err != nil {
		return nil, err
	}
	for i, c := range cols {
		cols[i] = normalizeCell(c)
	}
	return cols, nil
}

func (x *XLSXRows) Close() error {
	rerr := x.rows.Close()
	if err := x.f.Close(); err != nil {
		return err
	}
	return rerr
}
