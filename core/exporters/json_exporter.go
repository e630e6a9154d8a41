package exporters

import (
	"fmt"

	"github.com/fbz-tec/dbport/core/db"
	"github.com/fbz-tec/dbport/core/encoders"
	"github.com/fbz-tec/dbport/core/output"
	"github.com/fbz-tec/dbport/internal/logger"
)

type jsonExporter struct{}

// Export writes the rows as a JSON array of objects keyed in column order.
func (e *jsonExporter) Export(rs *db.ResultSet, options ExportOptions) (int, error) {
	logger.Debug("Preparing JSON export (indent=2 spaces, compression=%s)", options.Compression)

	writeCloser, err := output.CreateWriter(output.OutputConfig{
		Path:        options.OutputPath,
		Compression: options.Compression,
		Format:      FormatJSON,
	})
	if err != nil {
		return 0, err
	}
	defer writeCloser.Close()

	if _, err := writeCloser.Write([]byte("[\n")); err != nil {
		return 0, fmt.Errorf("error writing start of JSON array: %w", err)
	}

	columns := rs.Columns()
	orderedEncoder := encoders.NewOrderedJsonEncoder(options.TimeFormat, options.TimeZone)
	p := newProgress("JSON", rs.Len(), options)

	for row := range rs.Rows() {
		if p.count > 0 {
			if _, err := writeCloser.Write([]byte(",\n")); err != nil {
				return p.count, fmt.Errorf("error writing comma for row %d: %w", p.count, err)
			}
		}

		jsonBytes, err := orderedEncoder.EncodeRow(encoders.RowMap(columns, row))
		if err != nil {
			return p.count, fmt.Errorf("error encoding JSON for row %d: %w", p.count+1, err)
		}

		if _, err := writeCloser.Write([]byte("  ")); err != nil {
			return p.count, fmt.Errorf("error writing indentation for row %d: %w", p.count+1, err)
		}
		if _, err := writeCloser.Write(jsonBytes); err != nil {
			return p.count, fmt.Errorf("error writing JSON object for row %d: %w", p.count+1, err)
		}
		p.step()
	}

	closing := "\n]\n"
	if p.count == 0 {
		closing = "]\n"
	}
	if _, err := writeCloser.Write([]byte(closing)); err != nil {
		return p.count, fmt.Errorf("error writing end of JSON array: %w", err)
	}
	if err := writeCloser.Close(); err != nil {
		return p.count, fmt.Errorf("error closing output: %w", err)
	}

	p.done()
	return p.count, nil
}

func init() {
	MustRegister(FormatJSON, func() Exporter { return &jsonExporter{} })
}
