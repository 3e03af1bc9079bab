package model

import "github.com/shopspring/decimal"

// ShippingAddress is where an order ships to.
type ShippingAddress struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// LineItem is one product line of a customer order. ProductID may refer to a
// plain product or to a gift box listed in ProductMappings.
type LineItem struct {
	LineItemID  string          `json:"lineItemId"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// Order represents a customer order as loaded from a source. OrderDate is kept
// in its YYYY-MM-DD string form and compared as-is.
type Order struct {
	OrderID         string          `json:"orderId"`
	OrderTotal      decimal.Decimal `json:"orderTotal"`
	OrderDate       string          `json:"orderDate"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	CustomerName    string          `json:"customerName"`
	CustomerEmail   string          `json:"customerEmail"`
	LineItems       []LineItem      `json:"lineItems"`
}

// ProductComponent is one physical item inside a gift box; Quantity is per
// unit of the box.
type ProductComponent struct {
	ProductID string `json:"productId" yaml:"productId"`
	Name      string `json:"name" yaml:"name"`
	Quantity  int    `json:"quantity" yaml:"quantity"`
}

// ProductMapping is the recipe of a gift box.
type ProductMapping struct {
	Name       string             `json:"name" yaml:"name"`
	Price      decimal.Decimal    `json:"price" yaml:"price"`
	Components []ProductComponent `json:"components" yaml:"components"`
}

// ProductMappings indexes recipes by gift box product id.
type ProductMappings map[string]ProductMapping

// Lookup returns the recipe for productID. The second result is false when the
// product has no mapping.
func (m ProductMappings) Lookup(productID string) (ProductMapping, bool) {
	pm, ok := m[productID]
	return pm, ok
}

// PickingItem is one row of a picking list.
type PickingItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	BoxType   string `json:"boxType"`
	OrderID   string `json:"orderId"`
	Quantity  int    `json:"quantity"`
}

// Summary holds the per-date order totals shown next to the picking list.
// GiftBoxCounts is keyed by line item product id and counts ordered units,
// not expanded components.
type Summary struct {
	TotalOrders   int             `json:"totalOrders"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	GiftBoxCounts map[string]int  `json:"giftBoxCounts"`
}

// TotalGiftBoxes sums GiftBoxCounts.
func (s Summary) TotalGiftBoxes() int {
	n := 0
	for _, c := range s.GiftBoxCounts {
		n += c
	}
	return n
}
