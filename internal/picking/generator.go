package picking

import (
	"log/slog"

	"picklist/internal/model"
)

// Observer receives diagnostics raised while expanding orders.
type Observer interface {
	UnmappedProduct(productID string)
}

// Generator turns orders into picking lists. It holds no state between calls;
// the logger and observer only receive diagnostics.
type Generator struct {
	log *slog.Logger
	obs Observer
}

// NewGenerator returns a Generator. A nil logger falls back to slog.Default and
// a nil observer is ignored.
func NewGenerator(log *slog.Logger, obs Observer) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{log: log, obs: obs}
}

// ExpandGiftBox expands quantity units of productID into picking items, one per
// component in recipe order. BoxType is the mapping's own name and OrderID is
// empty; ProcessOrder overwrites both. A product without a mapping yields no
// items.
func (g *Generator) ExpandGiftBox(productID string, quantity int, mappings model.ProductMappings) []model.PickingItem {
	pm, ok := mappings.Lookup(productID)
	if !ok {
		g.log.Warn("no mapping found for product", slog.String("product_id", productID))
		if g.obs != nil {
			g.obs.UnmappedProduct(productID)
		}
		return nil
	}
	items := make([]model.PickingItem, 0, len(pm.Components))
	for _, c := range pm.Components {
		items = append(items, model.PickingItem{
			ProductID: c.ProductID,
			Name:      c.Name,
			BoxType:   pm.Name,
			Quantity:  c.Quantity * quantity,
		})
	}
	return items
}

// ProcessOrder expands every line item of o. Rows are tagged with the line
// item's product name as box type and with the order id.
func (g *Generator) ProcessOrder(o model.Order, mappings model.ProductMappings) []model.PickingItem {
	var out []model.PickingItem
	for _, li := range o.LineItems {
		for _, it := range g.ExpandGiftBox(li.ProductID, li.Quantity, mappings) {
			it.BoxType = li.ProductName
			it.OrderID = o.OrderID
			out = append(out, it)
		}
	}
	return out
}

// GeneratePickingList filters orders to date, expands them and returns the
// aggregated list sorted by name then box type.
func (g *Generator) GeneratePickingList(orders []model.Order, date string, mappings model.ProductMappings) []model.PickingItem {
	var all []model.PickingItem
	for _, o := range FilterByDate(orders, date) {
		all = append(all, g.ProcessOrder(o, mappings)...)
	}
	return Aggregate(all)
}

// ExpandGiftBox is Generator.ExpandGiftBox logging through slog.Default.
func ExpandGiftBox(productID string, quantity int, mappings model.ProductMappings) []model.PickingItem {
	return NewGenerator(nil, nil).ExpandGiftBox(productID, quantity, mappings)
}

// ProcessOrder is Generator.ProcessOrder logging through slog.Default.
func ProcessOrder(o model.Order, mappings model.ProductMappings) []model.PickingItem {
	return NewGenerator(nil, nil).ProcessOrder(o, mappings)
}

// GeneratePickingList is Generator.GeneratePickingList logging through slog.Default.
func GeneratePickingList(orders []model.Order, date string, mappings model.ProductMappings) []model.PickingItem {
	return NewGenerator(nil, nil).GeneratePickingList(orders, date, mappings)
}
