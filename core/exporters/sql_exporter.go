package exporters

import (
	"fmt"
	"io"
	"strings"

	"github.com/fbz-tec/dbport/core/db"
	"github.com/fbz-tec/dbport/core/formatters"
	"github.com/fbz-tec/dbport/core/output"
	"github.com/fbz-tec/dbport/internal/logger"
)

type sqlExporter struct{}

// Export writes INSERT statements, options.RowPerStatement rows each.
func (e *sqlExporter) Export(rs *db.ResultSet, options ExportOptions) (int, error) {
	if strings.TrimSpace(options.TableName) == "" {
		return 0, fmt.Errorf("sql export requires a table name")
	}
	batchSize := max(options.RowPerStatement, 1)

	logger.Debug("Preparing SQL export (table=%s, compression=%s, rows-per-statement=%d)",
		options.TableName, options.Compression, batchSize)

	writeCloser, err := output.CreateWriter(output.OutputConfig{
		Path:        options.OutputPath,
		Compression: options.Compression,
		Format:      FormatSQL,
	})
	if err != nil {
		return 0, err
	}
	defer writeCloser.Close()

	var quoteLiteral func(string) string
	quoteName := formatters.QuoteIdent
	if options.Quoter != nil {
		quoteName, quoteLiteral = options.Quoter.QuoteName, options.Quoter.Quote
	}

	columns := rs.Columns()
	for i, c := range columns {
		columns[i] = quoteName(c)
	}
	table := quoteName(options.TableName)

	var statementCount int
	batch := make([][]string, 0, batchSize)
	p := newProgress("SQL", rs.Len(), options)

	for row := range rs.Rows() {
		values := row.Values()
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = formatters.SQLLiteral(v, quoteLiteral)
		}
		batch = append(batch, record)
		p.step()

		if len(batch) == batchSize {
			if err := e.writeBatchInsert(writeCloser, table, columns, batch); err != nil {
				return p.count, fmt.Errorf("error writing batch statement %d: %w", statementCount+1, err)
			}
			statementCount++
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := e.writeBatchInsert(writeCloser, table, columns, batch); err != nil {
			return p.count, fmt.Errorf("error writing final batch statement: %w", err)
		}
		statementCount++
	}
	if err := writeCloser.Close(); err != nil {
		return p.count, fmt.Errorf("error closing output: %w", err)
	}

	logger.Debug("%d INSERT statements written", statementCount)
	p.done()
	return p.count, nil
}

// writeBatchInsert writes a single or multi-row INSERT statement
func (e *sqlExporter) writeBatchInsert(writer io.Writer, table string, columns []string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	var stmt strings.Builder

	fmt.Fprintf(&stmt, "INSERT INTO %s (%s) VALUES\n", table, strings.Join(columns, ", "))

	for i, record := range rows {
		separator := ","
		if i == len(rows)-1 {
			separator = ";"
		}
		fmt.Fprintf(&stmt, "\t(%s)%s\n", strings.Join(record, ", "), separator)
	}

	_, err := io.WriteString(writer, stmt.String())
	return err
}

func init() {
	MustRegister(FormatSQL, func() Exporter { return &sqlExporter{} })
}
