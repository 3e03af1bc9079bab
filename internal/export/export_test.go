package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picklist/internal/model"
)

func sampleItems() []model.PickingItem {
	return []model.PickingItem{
		{ProductID: "CANDLE", Name: "Candle", BoxType: "Valentine Box", OrderID: "1001", Quantity: 2},
		{ProductID: "CARD", Name: "Card", BoxType: "Valentine Box", OrderID: "1001", Quantity: 6},
		{ProductID: "BALLOON", Name: "balloon", BoxType: "Birthday Box", OrderID: "1002", Quantity: 4},
	}
}

func TestWriteCSV_Legacy(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleItems()[:2], CSVOptions{}))
	want := "Product ID,Product Name,Box Type,Order ID,Quantity\n" +
		"CANDLE,Candle,Valentine Box,1001,2\n" +
		"CARD,Card,Valentine Box,1001,6"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_LegacyDoesNotEscape(t *testing.T) {
	var buf bytes.Buffer
	items := []model.PickingItem{{ProductID: "MUG", Name: "Mug, large", BoxType: "Cozy Box", OrderID: "1", Quantity: 1}}
	require.NoError(t, WriteCSV(&buf, items, CSVOptions{}))
	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, 2)
	assert.Len(t, strings.Split(lines[1], ","), 6)
}

func TestWriteCSV_Quoted(t *testing.T) {
	var buf bytes.Buffer
	items := []model.PickingItem{{ProductID: "MUG", Name: "Mug, \"large\"", BoxType: "Cozy Box", OrderID: "1", Quantity: 1}}
	require.NoError(t, WriteCSV(&buf, items, CSVOptions{Quote: true}))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, Header, recs[0])
	assert.Equal(t, []string{"MUG", "Mug, \"large\"", "Cozy Box", "1", "1"}, recs[1])
}

func TestWriteCSV_HeaderOnlyWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil, CSVOptions{}))
	assert.Equal(t, "Product ID,Product Name,Box Type,Order ID,Quantity", buf.String())
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "picking-list-2024-01-05.csv", FileName(time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)))
}

func TestSort(t *testing.T) {
	items := sampleItems()

	byQty := Sort(items, SortConfig{Key: SortQuantity, Desc: true})
	assert.Equal(t, []int{6, 4, 2}, []int{byQty[0].Quantity, byQty[1].Quantity, byQty[2].Quantity})

	// plain string order puts upper case first
	byName := Sort(items, SortConfig{Key: SortName})
	assert.Equal(t, "Candle", byName[0].Name)
	assert.Equal(t, "Card", byName[1].Name)
	assert.Equal(t, "balloon", byName[2].Name)

	byBox := Sort(items, SortConfig{Key: SortBoxType})
	assert.Equal(t, "Birthday Box", byBox[0].BoxType)

	byID := Sort(items, SortConfig{Key: SortProductID, Desc: true})
	assert.Equal(t, "CARD", byID[0].ProductID)

	none := Sort(items, SortConfig{})
	assert.Equal(t, items, none)
	none[0].Quantity = 99
	assert.Equal(t, 2, items[0].Quantity, "Sort must return a copy")
}

func TestSort_TextComparesUTF16CodeUnits(t *testing.T) {
	// U+FF21 sorts before U+1F600 by bytes but after it by UTF-16 code unit
	items := []model.PickingItem{
		{ProductID: "\uFF21", Name: "\uFF21 fullwidth", BoxType: "\uFF21"},
		{ProductID: "\U0001F600", Name: "\U0001F600 smile", BoxType: "\U0001F600"},
	}
	for _, key := range []SortKey{SortProductID, SortName, SortBoxType} {
		got := Sort(items, SortConfig{Key: key})
		assert.Equal(t, "\U0001F600", got[0].ProductID, key)
	}
	assert.Equal(t, -1, compareCodeUnits("Card", "Cards"))
	assert.Equal(t, 0, compareCodeUnits("Card", "Card"))
	assert.Equal(t, 1, compareCodeUnits("b", "B"))
}

func TestSort_StableOnTies(t *testing.T) {
	items := []model.PickingItem{
		{ProductID: "A", Quantity: 1},
		{ProductID: "B", Quantity: 1},
		{ProductID: "C", Quantity: 1},
	}
	got := Sort(items, SortConfig{Key: SortQuantity, Desc: true})
	assert.Equal(t, "A", got[0].ProductID)
	assert.Equal(t, "C", got[2].ProductID)
}

func TestParseSortKey(t *testing.T) {
	for _, s := range []string{"", "productId", "name", "boxType", "quantity"} {
		k, err := ParseSortKey(s)
		require.NoError(t, err)
		assert.Equal(t, SortKey(s), k)
	}
	_, err := ParseSortKey("orderId")
	assert.True(t, errors.Is(err, ErrUnknownSortKey))
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sampleItems()[:1]))
	out := buf.String()
	assert.Contains(t, out, "PRODUCT ID")
	assert.Contains(t, out, "CANDLE")
	assert.Contains(t, out, "Valentine Box")
}
