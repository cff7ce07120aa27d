package fileio

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Format is the container of an uploaded or named source.
type Format string

const (
	FormatText Format = "text" // delimited lines
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// ErrUnsupportedFile is returned for extensions no reader handles.
var ErrUnsupportedFile = errors.New("unsupported file")

// DetectFormat picks the format from the file extension. A name without an
// extension is treated as delimited text.
func DetectFormat(filename string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case "", ".csv", ".txt", ".dat":
		return FormatText, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFile, filename)
	}
}

// IsSpreadsheet reports formats read row by row instead of line by line.
func (f Format) IsSpreadsheet() bool { return f == FormatXLSX || f == FormatXLS }

// RowSource is the row-by-row view shared by spreadsheet readers.
type RowSource interface {
	ReadRow() ([]string, error)
	Close() error
}

// OpenRows opens a spreadsheet source of the given format.
func OpenRows(r io.Reader, f Format) (RowSource, error) {
	switch f {
	case FormatXLSX:
		rows, err := OpenXLSX(r, "")
		if err != nil {
			return nil, err
		}
		return rows, nil
	case FormatXLS:
		rows, err := OpenXLS(r)
		if err != nil {
			return nil, err
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("format %q has no rows", f)
	}
}
