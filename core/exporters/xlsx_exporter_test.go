package exporters

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/fbz-tec/dbport/core/db"
)

func openWorkbook(t *testing.T, path string) *excelize.File {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestExportXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	_, n := exportTo(t, FormatXLSX, sampleResult(), ExportOptions{OutputPath: path})
	assert.Equal(t, 2, n)

	f := openWorkbook(t, path)
	assert.Equal(t, []string{"Sheet1"}, f.GetSheetList())

	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"id", "name", "price", "active", "created", "note"}, rows[0])
	assert.Equal(t, "Alice", rows[1][1])
	assert.Equal(t, "9.5", rows[1][2])
	assert.Equal(t, "<x>", rows[2][5])
}

func TestExportXLSXSplitsSheets(t *testing.T) {
	rows := make([][]db.Value, 5)
	for i := range rows {
		rows[i] = []db.Value{db.IntValue(int64(i))}
	}
	rs := db.NewResultSet([]string{"n"}, rows, 5)
	path := filepath.Join(t.TempDir(), "split.xlsx")

	n, err := (&xlsxExporter{}).export(rs, ExportOptions{OutputPath: path, Compression: "none"}, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	f := openWorkbook(t, path)
	assert.Equal(t, []string{"Sheet1", "Sheet2", "Sheet3"}, f.GetSheetList())

	second, err := f.GetRows("Sheet2")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"n"}, {"2"}, {"3"}}, second)
}

func TestExportXLSXNoHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nohdr.xlsx")
	exportTo(t, FormatXLSX, sampleResult(), ExportOptions{OutputPath: path, NoHeader: true})

	rows, err := openWorkbook(t, path).GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0][0])
}
