package exporters

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/fbz-tec/dbport/core/db"
	"github.com/fbz-tec/dbport/core/formatters"
	"github.com/fbz-tec/dbport/core/output"
	"github.com/fbz-tec/dbport/internal/logger"
)

type csvExporter struct{}

// Export writes the result set as CSV with buffered I/O.
func (e *csvExporter) Export(rs *db.ResultSet, options ExportOptions) (int, error) {
	logger.Debug("Preparing CSV export (delimiter=%q, noHeader=%v, compression=%s)",
		string(options.Delimiter), options.NoHeader, options.Compression)

	writerCloser, err := output.CreateWriter(output.OutputConfig{
		Path:        options.OutputPath,
		Compression: options.Compression,
		Format:      FormatCSV,
	})
	if err != nil {
		return 0, err
	}
	defer writerCloser.Close()

	writer := csv.NewWriter(writerCloser)
	if options.Delimiter != 0 {
		writer.Comma = options.Delimiter
	}

	if !options.NoHeader {
		headers := rs.Columns()
		if err := writer.Write(headers); err != nil {
			return 0, fmt.Errorf("error writing headers: %w", err)
		}
		logger.Debug("CSV headers written: %s", strings.Join(headers, string(writer.Comma)))
	}

	f := formatters.New(options.TimeFormat, options.TimeZone)
	p := newProgress("CSV", rs.Len(), options)
	record := make([]string, rs.ColumnCount())

	for row := range rs.Rows() {
		for i, v := range row.Values() {
			record[i] = f.Text(v)
		}
		if err := writer.Write(record); err != nil {
			return p.count, fmt.Errorf("error writing row %d: %w", p.count+1, err)
		}
		p.step()
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return p.count, fmt.Errorf("error flushing CSV: %w", err)
	}
	if err := writerCloser.Close(); err != nil {
		return p.count, fmt.Errorf("error closing output: %w", err)
	}

	p.done()
	return p.count, nil
}

func init() {
	MustRegister(FormatCSV, func() Exporter { return &csvExporter{} })
}
