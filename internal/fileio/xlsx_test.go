package fileio

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	excelize "github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]any) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func TestXLSXRows(t *testing.T) {
	t.Parallel()

	src := workbook(t, [][]any{
		{"id", "nome", "preco"},
		{1, " Tacos ", 25.9},
		{2, "Churros"},
	})
	rows, err := OpenRows(src, FormatXLSX)
	require.NoError(t, err)
	defer rows.Close()

	var got [][]string
	for {
		row, err := rows.ReadRow()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, row)
	}
	require.Equal(t, [][]string{
		{"id", "nome", "preco"},
		{"1", "Tacos", "25.9"},
		{"2", "Churros"},
	}, got)
}

func TestOpenXLSXMissingSheet(t *testing.T) {
	t.Parallel()

	_, err := OpenXLSX(workbook(t, [][]any{{"a"}}), "Nope")
	require.ErrorContains(t, err, `sheet "Nope"`)
}
