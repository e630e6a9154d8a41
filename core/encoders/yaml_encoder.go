package encoders

import (
	"github.com/elliotchance/orderedmap/v3"
	"gopkg.in/yaml.v3"

	"github.com/fbz-tec/dbport/core/db"
	"github.com/fbz-tec/dbport/core/formatters"
)

type OrderedYamlEncoder struct {
	formatter formatters.Formatter
}

func NewOrderedYamlEncoder(timeFormat, timeZone string) OrderedYamlEncoder {
	return OrderedYamlEncoder{formatter: formatters.New(timeFormat, timeZone)}
}

// EncodeRow builds a YAML mapping node (one record).
func (o OrderedYamlEncoder) EncodeRow(rowData *orderedmap.OrderedMap[string, db.Value]) (*yaml.Node, error) {

	row := &yaml.Node{
		Kind: yaml.MappingNode,
	}

	for k, v := range rowData.AllFromFront() {
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Value: k,
		}

		valueNode := &yaml.Node{}
		if err := valueNode.Encode(o.formatter.Native(v)); err != nil {
			return nil, err
		}

		row.Content = append(row.Content, keyNode, valueNode)
	}

	return row, nil
}

// RowMap collects a row's values keyed by column name, in column order.
func RowMap(columns []string, row db.Row) *orderedmap.OrderedMap[string, db.Value] {
	m := orderedmap.NewOrderedMap[string, db.Value]()
	for i, name := range columns {
		v, _ := row.Value(i)
		m.Set(name, v)
	}
	return m
}
