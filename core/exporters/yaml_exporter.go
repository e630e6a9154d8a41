package exporters

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/fbz-tec/dbport/core/db"
	"github.com/fbz-tec/dbport/core/encoders"
	"github.com/fbz-tec/dbport/core/output"
	"github.com/fbz-tec/dbport/internal/logger"
)

type yamlExporter struct{}

func (e *yamlExporter) Export(rs *db.ResultSet, options ExportOptions) (int, error) {
	logger.Debug("Preparing YAML export (compression=%s)", options.Compression)

	writeCloser, err := output.CreateWriter(output.OutputConfig{
		Path:        options.OutputPath,
		Compression: options.Compression,
		Format:      FormatYAML,
	})
	if err != nil {
		return 0, err
	}
	defer writeCloser.Close()

	// Root YAML Sequence (the "-" items)
	rootSeq := &yaml.Node{
		Kind: yaml.SequenceNode,
	}

	columns := rs.Columns()
	rowEncoder := encoders.NewOrderedYamlEncoder(options.TimeFormat, options.TimeZone)
	p := newProgress("YAML", rs.Len(), options)

	for row := range rs.Rows() {
		rowNode, err := rowEncoder.EncodeRow(encoders.RowMap(columns, row))
		if err != nil {
			return p.count, fmt.Errorf("error encoding YAML row %d: %w", p.count+1, err)
		}
		rootSeq.Content = append(rootSeq.Content, rowNode)
		p.step()
	}

	if p.count == 0 {
		rootSeq.Style = yaml.FlowStyle
	}

	enc := yaml.NewEncoder(writeCloser)
	enc.SetIndent(2)
	if err := enc.Encode(rootSeq); err != nil {
		return p.count, fmt.Errorf("error writing YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return p.count, fmt.Errorf("error finishing YAML: %w", err)
	}
	if err := writeCloser.Close(); err != nil {
		return p.count, fmt.Errorf("error closing output: %w", err)
	}

	p.done()
	return p.count, nil
}

func init() {
	MustRegister(FormatYAML, func() Exporter { return &yamlExporter{} })
}
