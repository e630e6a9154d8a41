package exporters

import (
	"github.com/fbz-tec/dbport/core/db"
)

const (
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatXML      = "xml"
	FormatSQL      = "sql"
	FormatYAML     = "yaml"
	FormatXLSX     = "xlsx"
	FormatTemplate = "template"
)

// ExportOptions holds export configuration
type ExportOptions struct {
	Format          string
	OutputPath      string
	Delimiter       rune
	TableName       string
	Compression     string
	TimeFormat      string
	TimeZone        string
	NoHeader        bool
	XmlRootElement  string
	XmlRowElement   string
	RowPerStatement int
	ProgressBar     bool
	// Quoter renders SQL literals and identifiers in the source dialect;
	// ANSI quoting is used when nil.
	Quoter db.Quoter
	// Template mode (dual mode)
	TemplateFile      string // full mode
	TemplateHeader    string // streaming header
	TemplateRow       string // streaming row (required for streaming)
	TemplateFooter    string // streaming footer
	TemplateStreaming bool   // enable streaming mode
}

// Exporter writes a materialized result set and returns the number of rows written.
type Exporter interface {
	Export(rs *db.ResultSet, options ExportOptions) (int, error)
}
