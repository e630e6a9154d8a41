package exporters

import (
	"encoding/xml"
	"fmt"
	"strings"
	"unicode"

	"github.com/fbz-tec/dbport/core/db"
	"github.com/fbz-tec/dbport/core/formatters"
	"github.com/fbz-tec/dbport/core/output"
	"github.com/fbz-tec/dbport/internal/logger"
)

const (
	defaultXmlRoot = "results"
	defaultXmlRow  = "row"
)

type xmlExporter struct{}

// Export writes one element per row with one child element per column.
// NULL columns become empty elements.
func (e *xmlExporter) Export(rs *db.ResultSet, options ExportOptions) (int, error) {
	logger.Debug("Preparing XML export (indent=2 spaces, compression=%s)", options.Compression)

	rootName := options.XmlRootElement
	if rootName == "" {
		rootName = defaultXmlRoot
	}
	rowName := options.XmlRowElement
	if rowName == "" {
		rowName = defaultXmlRow
	}

	writeCloser, err := output.CreateWriter(output.OutputConfig{
		Path:        options.OutputPath,
		Compression: options.Compression,
		Format:      FormatXML,
	})
	if err != nil {
		return 0, err
	}
	defer writeCloser.Close()

	if _, err := writeCloser.Write([]byte(xml.Header)); err != nil {
		return 0, fmt.Errorf("error writing XML header: %w", err)
	}

	encoder := xml.NewEncoder(writeCloser)
	encoder.Indent("", "  ")

	startResults := xml.StartElement{Name: xml.Name{Local: rootName}}
	if err := encoder.EncodeToken(startResults); err != nil {
		return 0, fmt.Errorf("error starting <%s>: %w", rootName, err)
	}

	keys := rs.Columns()
	for i, k := range keys {
		keys[i] = xmlName(k)
	}
	f := formatters.New(options.TimeFormat, options.TimeZone)
	p := newProgress("XML", rs.Len(), options)

	for row := range rs.Rows() {
		startRow := xml.StartElement{Name: xml.Name{Local: rowName}}
		if err := encoder.EncodeToken(startRow); err != nil {
			return p.count, fmt.Errorf("error opening <%s>: %w", rowName, err)
		}

		for i, v := range row.Values() {
			elem := xml.StartElement{Name: xml.Name{Local: keys[i]}}
			if err := encoder.EncodeElement(f.Text(v), elem); err != nil {
				return p.count, fmt.Errorf("error encoding field %s: %w", keys[i], err)
			}
		}

		if err := encoder.EncodeToken(startRow.End()); err != nil {
			return p.count, fmt.Errorf("error closing </%s>: %w", rowName, err)
		}
		p.step()
	}

	if err := encoder.EncodeToken(startResults.End()); err != nil {
		return p.count, fmt.Errorf("error ending </%s>: %w", rootName, err)
	}
	if err := encoder.Flush(); err != nil {
		return p.count, fmt.Errorf("error flushing XML encoder: %w", err)
	}
	if _, err := writeCloser.Write([]byte("\n")); err != nil {
		return p.count, fmt.Errorf("error writing final newline: %w", err)
	}
	if err := writeCloser.Close(); err != nil {
		return p.count, fmt.Errorf("error closing output: %w", err)
	}

	p.done()
	return p.count, nil
}

// xmlName maps a column name to a valid element name.
func xmlName(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (r == '-' || r == '.' || unicode.IsDigit(r)):
		default:
			r = '_'
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

func init() {
	MustRegister(FormatXML, func() Exporter { return &xmlExporter{} })
}
