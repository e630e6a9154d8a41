package exporters

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/elliotchance/orderedmap/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fbz-tec/dbport/core/db"
	"github.com/fbz-tec/dbport/core/formatters"
	"github.com/fbz-tec/dbport/core/output"
	"github.com/fbz-tec/dbport/internal/logger"
)

// Template exporter supporting both full and streaming mode.
type templateExporter struct{}

// Export chooses streaming or full mode based on ExportOptions.
func (e *templateExporter) Export(rs *db.ResultSet, options ExportOptions) (int, error) {
	if options.TemplateStreaming {
		return e.exportStreaming(rs, options)
	}
	return e.exportFull(rs, options)
}

// exportFull renders one template with every row available as .Rows.
func (e *templateExporter) exportFull(rs *db.ResultSet, options ExportOptions) (int, error) {
	logger.Debug("Preparing TEMPLATE (full mode) export (compression=%s)", options.Compression)

	tpl, err := loadTemplateIfExists(options.TemplateFile, true, defaultTemplateFuncs())
	if err != nil {
		return 0, err
	}

	keys := rs.Columns()
	f := formatters.New(options.TimeFormat, options.TimeZone)
	allRows := make([]*orderedmap.OrderedMap[string, any], 0, rs.Len())
	for row := range rs.Rows() {
		allRows = append(allRows, buildRow(keys, row, f))
	}

	data := map[string]any{
		"Rows":        allRows,
		"Columns":     keys,
		"Count":       len(allRows),
		"GeneratedAt": time.Now().Format(time.RFC3339),
	}

	err = writeTemplateOutput(options, func(w io.Writer) error {
		if err := tpl.Execute(w, data); err != nil {
			return fmt.Errorf("error executing template: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Debug("TEMPLATE full export completed: %d rows", len(allRows))
	return len(allRows), nil
}

// exportStreaming renders the optional header, the row template once per
// row and the optional footer.
func (e *templateExporter) exportStreaming(rs *db.ResultSet, options ExportOptions) (int, error) {
	logger.Debug("Preparing TEMPLATE (streaming mode) export (compression=%s)", options.Compression)

	funcs := defaultTemplateFuncs()

	tplHeader, err := loadTemplateIfExists(options.TemplateHeader, false, funcs)
	if err != nil {
		return 0, err
	}
	tplRow, err := loadTemplateIfExists(options.TemplateRow, true, funcs)
	if err != nil {
		return 0, err
	}
	tplFooter, err := loadTemplateIfExists(options.TemplateFooter, false, funcs)
	if err != nil {
		return 0, err
	}

	keys := rs.Columns()
	f := formatters.New(options.TimeFormat, options.TimeZone)
	generatedAt := time.Now().Format(time.RFC3339)
	p := newProgress("TEMPLATE", rs.Len(), options)

	err = writeTemplateOutput(options, func(w io.Writer) error {
		if tplHeader != nil {
			headerData := map[string]any{
				"Columns":     keys,
				"GeneratedAt": generatedAt,
			}
			if err := tplHeader.Execute(w, headerData); err != nil {
				return fmt.Errorf("error executing header template: %w", err)
			}
		}

		for row := range rs.Rows() {
			if err := tplRow.Execute(w, buildRow(keys, row, f)); err != nil {
				return fmt.Errorf("error executing row template: %w", err)
			}
			p.step()
		}

		if tplFooter != nil {
			footerData := map[string]any{
				"Columns":     keys,
				"GeneratedAt": generatedAt,
				"Count":       p.count,
			}
			if err := tplFooter.Execute(w, footerData); err != nil {
				return fmt.Errorf("error executing footer template: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return p.count, err
	}

	p.done()
	return p.count, nil
}

func writeTemplateOutput(options ExportOptions, render func(io.Writer) error) error {
	writer, err := output.CreateWriter(output.OutputConfig{
		Path:        options.OutputPath,
		Compression: options.Compression,
		Format:      FormatTemplate,
	})
	if err != nil {
		return err
	}
	defer writer.Close()

	if err := render(writer); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("error closing output: %w", err)
	}
	return nil
}

// utilities for template exporter
func defaultTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"upper":     strings.ToUpper,
		"lower":     strings.ToLower,
		"title":     cases.Title(language.English).String,
		"trim":      strings.TrimSpace,
		"replace":   strings.ReplaceAll,
		"join":      strings.Join,
		"split":     strings.Split,
		"contains":  strings.Contains,
		"hasPrefix": strings.HasPrefix,
		"hasSuffix": strings.HasSuffix,
		"json": func(v any) string {
			b, err := json.Marshal(v)
			if err != nil {
				return fmt.Sprintf("ERROR: %v", err)
			}
			return string(b)
		},
		"jsonPretty": func(v any) string {
			b, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return fmt.Sprintf("ERROR: %v", err)
			}
			return string(b)
		},
		"now": time.Now,
		"formatTime": func(t time.Time, layout string) string {
			return t.Format(formatters.ConvertUserTimeFormat(layout))
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"mul": func(a, b int) int { return a * b },
		"div": func(a, b int) int {
			if b == 0 {
				return 0
			}
			return a / b
		},
		// access orderedmap values in templates
		"get": func(m *orderedmap.OrderedMap[string, any], key string) any {
			val, _ := m.Get(key)
			return val
		},
	}
}

func loadTemplateIfExists(path string, required bool, funcs template.FuncMap) (*template.Template, error) {
	if strings.TrimSpace(path) == "" {
		if required {
			return nil, fmt.Errorf("template file path is empty")
		}
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file %q: %w", path, err)
	}
	tpl, err := template.New(path).Funcs(funcs).Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %q: %w", path, err)
	}
	return tpl, nil
}

// buildRow creates an ordered map preserving column order from the result set
func buildRow(keys []string, row db.Row, f formatters.Formatter) *orderedmap.OrderedMap[string, any] {
	m := orderedmap.NewOrderedMap[string, any]()
	for i, v := range row.Values() {
		m.Set(keys[i], f.Native(v))
	}
	return m
}

func init() {
	MustRegister(FormatTemplate, func() Exporter {
		return &templateExporter{}
	})
}
