package encoders

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fbz-tec/dbport/core/db"
)

func sampleRow(t *testing.T) ([]string, db.Row) {
	t.Helper()
	cols := []string{"zeta", "alpha", "when", "note"}
	rs := db.NewResultSet(cols, [][]db.Value{{
		db.IntValue(1),
		db.TextValue("<b>&</b>"),
		db.TimeValue(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)),
		db.Null(),
	}}, 0)
	row, err := rs.Front()
	require.NoError(t, err)
	return cols, row
}

func TestJsonEncoderKeepsOrder(t *testing.T) {
	cols, row := sampleRow(t)
	enc := NewOrderedJsonEncoder("yyyy-MM-dd", "")

	out, err := enc.EncodeRow(RowMap(cols, row))
	require.NoError(t, err)

	want := "{\n" +
		`    "zeta": 1,` + "\n" +
		`    "alpha": "<b>&</b>",` + "\n" +
		`    "when": "2024-01-02",` + "\n" +
		`    "note": null` + "\n  }"
	assert.Equal(t, want, string(out))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Nil(t, decoded["note"])
}

func TestJsonEncoderEmptyRow(t *testing.T) {
	rs := db.NewResultSet(nil, [][]db.Value{{}}, 0)
	row, _ := rs.Front()
	out, err := NewOrderedJsonEncoder("", "").EncodeRow(RowMap(nil, row))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))
}

func TestYamlEncoder(t *testing.T) {
	cols, row := sampleRow(t)
	node, err := NewOrderedYamlEncoder("yyyy", "").EncodeRow(RowMap(cols, row))
	require.NoError(t, err)

	require.Len(t, node.Content, 8)
	assert.Equal(t, "zeta", node.Content[0].Value)
	assert.Equal(t, "alpha", node.Content[2].Value)
	assert.Equal(t, "2024", node.Content[5].Value)

	out, err := yaml.Marshal(node)
	require.NoError(t, err)
	assert.Contains(t, string(out), "note: null")
}
