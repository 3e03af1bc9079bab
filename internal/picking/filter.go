package picking

import (
	"sort"

	"picklist/internal/model"
)

// FilterByDate returns the orders whose OrderDate equals date exactly, in input
// order.
func FilterByDate(orders []model.Order, date string) []model.Order {
	var out []model.Order
	for _, o := range orders {
		if o.OrderDate == date {
			out = append(out, o)
		}
	}
	return out
}

// AvailableDates returns the distinct order dates, most recent first.
func AvailableDates(orders []model.Order) []string {
	seen := make(map[string]struct{}, len(orders))
	var dates []string
	for _, o := range orders {
		if _, ok := seen[o.OrderDate]; ok {
			continue
		}
		seen[o.OrderDate] = struct{}{}
		dates = append(dates, o.OrderDate)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

// FindOrder returns the order with orderID among the orders of date. An order
// that exists on another date is not found.
func FindOrder(orders []model.Order, date, orderID string) (model.Order, bool) {
	for _, o := range FilterByDate(orders, date) {
		if o.OrderID == orderID {
			return o, true
		}
	}
	return model.Order{}, false
}
