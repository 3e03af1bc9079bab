package picking

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"picklist/internal/model"
)

// Key identifies an aggregated picking row.
type Key struct {
	ProductID string
	BoxType   string
}

// KeyOf returns the aggregation key of it.
func KeyOf(it model.PickingItem) Key {
	return Key{ProductID: it.ProductID, BoxType: it.BoxType}
}

// Aggregate merges items sharing a Key, summing quantities. The first item seen
// for a key supplies name and order id. The result is sorted by name then box
// type using English collation; equal rows keep first-seen order.
func Aggregate(items []model.PickingItem) []model.PickingItem {
	index := make(map[Key]int, len(items))
	out := make([]model.PickingItem, 0, len(items))
	for _, it := range items {
		k := KeyOf(it)
		if i, ok := index[k]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[k] = len(out)
		out = append(out, it)
	}
	sortByNameAndBox(out)
	return out
}

// collate.Collator keeps internal buffers, so each sort gets its own.
func sortByNameAndBox(items []model.PickingItem) {
	c := collate.New(language.English)
	sort.SliceStable(items, func(i, j int) bool {
		if n := c.CompareString(items[i].Name, items[j].Name); n != 0 {
			return n < 0
		}
		return c.CompareString(items[i].BoxType, items[j].BoxType) < 0
	})
}
