package picking

import (
	"github.com/shopspring/decimal"

	"picklist/internal/model"
)

// Summarize computes order count, total value and raw ordered quantity per line
// item product for the orders of date.
func Summarize(orders []model.Order, date string) model.Summary {
	filtered := FilterByDate(orders, date)
	s := model.Summary{
		TotalOrders:   len(filtered),
		TotalValue:    decimal.Zero,
		GiftBoxCounts: make(map[string]int),
	}
	for _, o := range filtered {
		s.TotalValue = s.TotalValue.Add(o.OrderTotal)
		for _, li := range o.LineItems {
			s.GiftBoxCounts[li.ProductID] += li.Quantity
		}
	}
	return s
}
