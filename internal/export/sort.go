package export

import (
	"errors"
	"fmt"
	"sort"
	"unicode/utf16"

	"picklist/internal/model"
)

// SortKey names the picking list column a review table is sorted by.
type SortKey string

const (
	SortNone      SortKey = ""
	SortProductID SortKey = "productId"
	SortName      SortKey = "name"
	SortBoxType   SortKey = "boxType"
	SortQuantity  SortKey = "quantity"
)

var ErrUnknownSortKey = errors.New("export: unknown sort key")

// SortConfig is the column sort chosen by an operator.
type SortConfig struct {
	Key  SortKey
	Desc bool
}

// ParseSortKey validates a column name; "" means no column sort.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case SortNone, SortProductID, SortName, SortBoxType, SortQuantity:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
	}
}

// Sort returns a copy of items ordered by cfg. Text columns compare by UTF-16
// code unit and quantity numerically. With no key the copy keeps the input
// order.
func Sort(items []model.PickingItem, cfg SortConfig) []model.PickingItem {
	out := make([]model.PickingItem, len(items))
	copy(out, items)
	if cfg.Key == SortNone {
		return out
	}
	less := func(a, b model.PickingItem) bool {
		switch cfg.Key {
		case SortProductID:
			return compareCodeUnits(a.ProductID, b.ProductID) < 0
		case SortName:
			return compareCodeUnits(a.Name, b.Name) < 0
		case SortBoxType:
			return compareCodeUnits(a.BoxType, b.BoxType) < 0
		case SortQuantity:
			return a.Quantity < b.Quantity
		}
		return false
	}
	sort.SliceStable(out, func(i, j int) bool {
		if cfg.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

// compareCodeUnits orders a and b by their UTF-16 code units, the order
// browser string comparison uses. It differs from byte order only between
// supplementary-plane characters and those at U+E000 and above.
func compareCodeUnits(a, b string) int {
	ua, ub := utf16.Encode([]rune(a)), utf16.Encode([]rune(b))
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			if ua[i] < ub[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(ua) < len(ub):
		return -1
	case len(ua) > len(ub):
		return 1
	}
	return 0
}
