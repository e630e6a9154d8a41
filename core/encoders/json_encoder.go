package encoders

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/elliotchance/orderedmap/v3"

	"github.com/fbz-tec/dbport/core/db"
	"github.com/fbz-tec/dbport/core/formatters"
)

// OrderedJsonEncoder encodes JSON while preserving column order
type OrderedJsonEncoder struct {
	formatter formatters.Formatter
}

// NewOrderedJsonEncoder creates a new ordered JSON encoder with time formatting options
func NewOrderedJsonEncoder(timeFormat, timeZone string) OrderedJsonEncoder {
	return OrderedJsonEncoder{formatter: formatters.New(timeFormat, timeZone)}
}

// EncodeRow encodes one row as an indented JSON object in column order.
func (o OrderedJsonEncoder) EncodeRow(rowData *orderedmap.OrderedMap[string, db.Value]) ([]byte, error) {

	if rowData.Len() == 0 {
		return []byte("{}"), nil
	}

	var row bytes.Buffer

	// Pre-allocate memory to avoid reallocation
	row.Grow(rowData.Len() * 32)

	row.WriteString("{\n")

	i := 0

	for k, v := range rowData.AllFromFront() {

		if i > 0 {
			row.WriteString(",\n")
		}
		// Add indentation (4 spaces for inner content)
		row.WriteString("    ")

		keyJSON, err := marshalWithoutHTMLEscape(k)
		if err != nil {
			return nil, fmt.Errorf("error marshaling key %q: %w", k, err)
		}
		row.Write(keyJSON)
		row.WriteString(": ")

		valueJSON, err := marshalWithoutHTMLEscape(o.formatter.Native(v))
		if err != nil {
			return nil, fmt.Errorf("error marshaling value for key %q: %w", k, err)
		}

		row.Write(valueJSON)
		i++
	}

	row.WriteString("\n  }")
	return row.Bytes(), nil
}

func marshalWithoutHTMLEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(v); err != nil {
		return nil, err
	}

	result := buf.Bytes()
	return bytes.TrimSuffix(result, []byte("\n")), nil
}
