package catalog

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picklist/internal/model"
)

const arrayJSON = `[
  {"GIFTBOX_A": {"name": "Valentine Box Mapping", "price": 49.99, "components": [
    {"productId": "CANDLE", "name": "Candle", "quantity": 1},
    {"productId": "CARD", "name": "Card", "quantity": 3}
  ]}},
  {"GIFTBOX_B": {"name": "Birthday Box", "price": 39.5, "components": [
    {"productId": "BALLOON", "name": "Balloon", "quantity": 4}
  ]}}
]`

func TestParse_ArrayOfSingleKeyObjects(t *testing.T) {
	m, err := Parse([]byte(arrayJSON), FormatJSON)
	require.NoError(t, err)
	require.Len(t, m, 2)

	a, ok := m.Lookup("GIFTBOX_A")
	require.True(t, ok)
	assert.Equal(t, "Valentine Box Mapping", a.Name)
	assert.True(t, a.Price.Equal(decimal.RequireFromString("49.99")))
	assert.Equal(t, []model.ProductComponent{
		{ProductID: "CANDLE", Name: "Candle", Quantity: 1},
		{ProductID: "CARD", Name: "Card", Quantity: 3},
	}, a.Components)
}

func TestParse_PlainObject(t *testing.T) {
	m, err := Parse([]byte(`{"GIFTBOX_A": {"name": "A", "components": [{"productId": "X", "name": "X", "quantity": 2}]}}`), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 2, m["GIFTBOX_A"].Components[0].Quantity)
}

func TestParse_EmptyAndBroken(t *testing.T) {
	m, err := Parse([]byte("  "), FormatJSON)
	require.NoError(t, err)
	assert.Empty(t, m)

	_, err = Parse([]byte(`[{"GIFTBOX_A": `), FormatJSON)
	assert.Error(t, err)

	_, err = Parse([]byte(`{}`), Format("toml"))
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestParse_YAML(t *testing.T) {
	doc := `
- GIFTBOX_A:
    name: Valentine Box Mapping
    price: "49.99"
    components:
      - productId: CANDLE
        name: Candle
        quantity: 1
      - productId: CARD
        name: Card
        quantity: 3
- GIFTBOX_B:
    name: Birthday Box
    components:
      - productId: BALLOON
        name: Balloon
        quantity: 4
`
	m, err := Parse([]byte(doc), FormatYAML)
	require.NoError(t, err)
	require.Len(t, m, 2)
	assert.True(t, m["GIFTBOX_A"].Price.Equal(decimal.RequireFromString("49.99")))
	assert.True(t, m["GIFTBOX_B"].Price.IsZero())
	assert.Equal(t, "CARD", m["GIFTBOX_A"].Components[1].ProductID)

	obj := "GIFTBOX_C:\n  name: Cozy\n  components:\n    - {productId: BLANKET, name: Blanket, quantity: 1}\n"
	m, err = Parse([]byte(obj), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "Cozy", m["GIFTBOX_C"].Name)

	_, err = Parse([]byte("GIFTBOX_A:\n  price: \"abc\"\n"), FormatYAML)
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "productMappings.json")
	require.NoError(t, os.WriteFile(path, []byte(arrayJSON), 0o644))

	m, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, m, 2)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(dir, "mappings.csv"))
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestValidate(t *testing.T) {
	m, err := Parse([]byte(arrayJSON), FormatJSON)
	require.NoError(t, err)
	assert.NoError(t, Validate(m))

	m["BROKEN"] = model.ProductMapping{Components: []model.ProductComponent{{Name: "nothing", Quantity: 0}}}
	m["EMPTY"] = model.ProductMapping{Name: "Empty Box"}
	err = Validate(m)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "BROKEN: empty name")
	assert.Contains(t, msg, "BROKEN: components[0]: empty productId")
	assert.Contains(t, msg, "BROKEN: components[0]: quantity must be positive, got 0")
	assert.Contains(t, msg, "EMPTY: no components")
}

func TestWriteFile_ReadsBack(t *testing.T) {
	m, err := Parse([]byte(arrayJSON), FormatJSON)
	require.NoError(t, err)
	for _, name := range []string{"catalog.json", "catalog.yaml"} {
		path := filepath.Join(t.TempDir(), name)
		require.NoError(t, WriteFile(m, path))
		got, err := LoadFile(path)
		require.NoError(t, err, name)
		require.Len(t, got, 2, name)
		assert.Equal(t, m["GIFTBOX_A"].Components, got["GIFTBOX_A"].Components, name)
		assert.True(t, got["GIFTBOX_B"].Price.Equal(decimal.RequireFromString("39.5")), name)
	}
	assert.ErrorIs(t, WriteFile(m, filepath.Join(t.TempDir(), "catalog.txt")), ErrUnknownFormat)
}

func TestMarshal_JSONKeepsArrayForm(t *testing.T) {
	data, err := Marshal(model.ProductMappings{
		"B": {Name: "b", Components: []model.ProductComponent{{ProductID: "x", Quantity: 1}}},
		"A": {Name: "a", Components: []model.ProductComponent{{ProductID: "y", Quantity: 1}}},
	}, FormatJSON)
	require.NoError(t, err)
	var entries []map[string]model.ProductMapping
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0], "A")
	assert.Contains(t, entries[1], "B")
}
