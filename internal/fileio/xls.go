// .xls workbooks: the sheet width is fixed up front, every cell up to it is
// read and trailing empty cells are dropped.
package fileio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	xls "github.com/extrame/xls"
)

// XLSRows iterates the rows of the first sheet of an .xls workbook. The
// format needs random access, so the workbook is read into memory.
type XLSRows struct {
	sheet   *xls.WorkSheet
	maxCols int
	next    int
}

// tried in order; 1C exports are usually cp1251
var xlsCharsets = []string{"windows-1251", "utf-8", "koi8-r"}

func OpenXLS(r io.Reader) (*XLSRows, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var wb *xls.WorkBook
	var lastErr error
	for _, ch := range xlsCharsets {
		wb, err = openWorkBook(b, ch)
		if err == nil && wb != nil {
			lastErr = nil
			break
		}
		lastErr = err
	}
	if wb == nil {
		if lastErr == nil {
			lastErr = errors.New("xls: failed to open workbook")
		}
		return nil, lastErr
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return &XLSRows{}, nil
	}
	return &XLSRows{sheet: sheet, maxCols: computeMaxCols(sheet)}, nil
}

// openWorkBook turns a parser panic on a malformed file into an error.
func openWorkBook(b []byte, charset string) (wb *xls.WorkBook, err error) {
	defer func() {
		if r := recover(); r != nil {
			wb, err = nil, fmt.Errorf("xls: malformed workbook: %v", r)
		}
	}()
	return xls.OpenReader(bytes.NewReader(b), charset)
}

func (x *XLSRows) ReadRow() ([]string, error) {
	if x.sheet == nil || x.next > int(x.sheet.MaxRow) {
		return nil, io.EOF
	}
	row := x.sheet.Row(x.next)
	x.next++

	cols := make([]string, x.maxCols)
	if row != nil {
		for j := 0; j < x.maxCols; j++ {
			cols[j] = normalizeCell(row.Col(j))
		}
	}
	return trimTrailingEmpty(cols), nil
}

// trimTrailingEmpty drops empty cells after the last filled one, so short rows
// read like xlsx rows and missing cells stay absent.
func trimTrailingEmpty(cols []string) []string {
	n := len(cols)
	for n > 0 && cols[n-1] == "" {
		n--
	}
	return cols[:n]
}

func (x *XLSRows) Close() error {
	x.sheet = nil
	return nil
}

// computeMaxCols probes every row for its last non-empty cell; Row.LastCol
// is unreliable for exported workbooks.
func computeMaxCols(sheet *xls.WorkSheet) int {
	const probeMax = 512
	maxCols := 0
	for i := 0; i <= int(sheet.MaxRow); i++ {
		r := sheet.Row(i)
		if r == nil {
			continue
		}
		for j := 0; j < probeMax; j++ {
			if normalizeCell(r.Col(j)) != "" && j+1 > maxCols {
				maxCols = j + 1
			}
		}
	}
	if maxCols == 0 {
		maxCols = 1
	}
	return maxCols
}

// normalizeCell trims ordinary and non-breaking spaces around a cell value.
func normalizeCell(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\u00A0' || r == '\u202F'
	})
}
