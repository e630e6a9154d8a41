package exporters

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/fbz-tec/dbport/core/db"
	"github.com/fbz-tec/dbport/core/formatters"
	"github.com/fbz-tec/dbport/core/output"
	"github.com/fbz-tec/dbport/internal/logger"
	"github.com/fbz-tec/dbport/internal/ui"
)

// maxSheetRows is the row limit of an XLSX sheet.
const maxSheetRows = 1_048_576

type xlsxExporter struct{}

// Export writes the rows to an Excel workbook, starting a new sheet whenever
// a sheet reaches the XLSX row limit.
func (e *xlsxExporter) Export(rs *db.ResultSet, options ExportOptions) (int, error) {
	return e.export(rs, options, maxSheetRows)
}

func (e *xlsxExporter) export(rs *db.ResultSet, options ExportOptions, sheetRows int) (int, error) {
	logger.Debug("Preparing XLSX export (compression=%s)", options.Compression)

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Error closing Excel file: %v", err)
		}
	}()

	columns := rs.Columns()

	var headerStyleID int
	if !options.NoHeader {
		styleID, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{
				Bold:  true,
				Color: "000000",
			},
		})
		if err != nil {
			logger.Warn("Failed to create header style: %v", err)
		} else {
			headerStyleID = styleID
		}
	}

	dateStyleID, err := f.NewStyle(&excelize.Style{NumFmt: 22}) // m/d/yy h:mm
	if err != nil {
		return 0, fmt.Errorf("error creating date style: %w", err)
	}

	sheetIndex := 1
	sw, currentRow, err := initSheet(columns, options.NoHeader, headerStyleID, f, sheetIndex)
	if err != nil {
		return 0, err
	}

	formatter := formatters.New(options.TimeFormat, options.TimeZone)
	p := newProgress("XLSX", rs.Len(), options)

	for row := range rs.Rows() {
		if currentRow > sheetRows {
			if err := sw.Flush(); err != nil {
				return p.count, fmt.Errorf("error flushing sheet %d: %w", sheetIndex, err)
			}
			sheetIndex++
			logger.Debug("Created new sheet Sheet%d (row limit reached)", sheetIndex)

			sw, currentRow, err = initSheet(columns, options.NoHeader, headerStyleID, f, sheetIndex)
			if err != nil {
				return p.count, err
			}
		}

		values := row.Values()
		cells := make([]any, len(values))
		for i, v := range values {
			cell := formatter.Spreadsheet(v)
			if v.Kind() == db.KindTime {
				cell = excelize.Cell{Value: cell, StyleID: dateStyleID}
			}
			cells[i] = cell
		}

		cellName, _ := excelize.CoordinatesToCellName(1, currentRow)
		if err := sw.SetRow(cellName, cells); err != nil {
			return p.count, fmt.Errorf("error writing row %d: %w", currentRow, err)
		}
		currentRow++
		p.step()
	}

	if err := sw.Flush(); err != nil {
		return p.count, fmt.Errorf("error flushing stream: %w", err)
	}

	var sp *ui.Spinner
	if options.ProgressBar && !logger.IsQuiet() {
		sp = ui.NewSpinner("Writing workbook")
	}
	defer sp.Stop("")

	writerCloser, err := output.CreateWriter(output.OutputConfig{
		Path:        options.OutputPath,
		Compression: options.Compression,
		Format:      FormatXLSX,
	})
	if err != nil {
		return p.count, err
	}
	defer writerCloser.Close()

	if err := f.Write(writerCloser); err != nil {
		return p.count, fmt.Errorf("error writing Excel file: %w", err)
	}
	if err := writerCloser.Close(); err != nil {
		return p.count, fmt.Errorf("error closing output: %w", err)
	}

	p.done()
	return p.count, nil
}

// initSheet initializes a new Excel sheet with optional headers.
// Returns a stream writer, the starting row number, and an error if initialization fails.
func initSheet(columns []string, noHeader bool, headerStyleID int, f *excelize.File, sheetIndex int) (*excelize.StreamWriter, int, error) {

	sheetName := fmt.Sprintf("Sheet%d", sheetIndex)
	currentRow := 1
	// a new workbook already has Sheet1
	if sheetIndex > 1 {
		if _, err := f.NewSheet(sheetName); err != nil {
			return nil, currentRow, fmt.Errorf("failed to create new sheet: %w", err)
		}
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return nil, currentRow, fmt.Errorf("error creating stream writer: %w", err)
	}

	if !noHeader {
		headerCells := make([]any, len(columns))
		for i, col := range columns {
			headerCells[i] = excelize.Cell{
				Value:   col,
				StyleID: headerStyleID,
			}
		}

		cell, _ := excelize.CoordinatesToCellName(1, currentRow)
		if err := sw.SetRow(cell, headerCells); err != nil {
			return nil, currentRow, fmt.Errorf("error writing headers: %w", err)
		}

		logger.Debug("XLSX headers written: %d columns", len(columns))
		currentRow++
	}

	return sw, currentRow, nil
}

func init() {
	MustRegister(FormatXLSX, func() Exporter {
		return &xlsxExporter{}
	})
}
