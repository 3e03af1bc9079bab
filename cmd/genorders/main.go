package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"picklist/internal/calendar"
	"picklist/internal/catalog"
	"picklist/internal/model"
)

type box struct {
	id      string
	name    string
	price   string
	recipe  []model.ProductComponent
	display string
}

var boxes = []box{
	{id: "GIFTBOX_A", name: "Valentine Box Mapping", display: "Valentine Box", price: "74.99", recipe: []model.ProductComponent{
		{ProductID: "ROSE_BOUQUET", Name: "Rose Bouquet", Quantity: 1},
		{ProductID: "CHOCOLATE_BOX", Name: "Chocolate Box", Quantity: 1},
		{ProductID: "GREETING_CARD", Name: "Greeting Card", Quantity: 1},
	}},
	{id: "GIFTBOX_B", name: "Birthday Box Mapping", display: "Birthday Box", price: "49.99", recipe: []model.ProductComponent{
		{ProductID: "BALLOON", Name: "Balloon", Quantity: 4},
		{ProductID: "CUPCAKE", Name: "Cupcake", Quantity: 2},
		{ProductID: "GREETING_CARD", Name: "Greeting Card", Quantity: 1},
	}},
	{id: "GIFTBOX_C", name: "Client Gift Box Mapping", display: "Client Gift Box", price: "89.50", recipe: []model.ProductComponent{
		{ProductID: "COFFEE_BEANS", Name: "Coffee Beans", Quantity: 1},
		{ProductID: "MUG", Name: "Mug", Quantity: 2},
		{ProductID: "THANK_YOU_CARD", Name: "Thank You Card", Quantity: 1},
	}},
	{id: "GIFTBOX_D", name: "Éclair Box Mapping", display: "Éclair Box", price: "39.00", recipe: []model.ProductComponent{
		{ProductID: "ECLAIR", Name: "éclair", Quantity: 6},
		{ProductID: "NAPKIN", Name: "Napkin", Quantity: 6},
	}},
}

var customers = []struct{ name, city, province, postal string }{
	{"Ada Lovelace", "Toronto", "ON", "M5H 2N2"},
	{"Grace Hopper", "Montreal", "QC", "H2X 1K4"},
	{"Alan Turing", "Vancouver", "BC", "V6B 1A1"},
	{"Katherine Johnson", "Calgary", "AB", "T2P 1J9"},
	{"Edsger Dijkstra", "Halifax", "NS", "B3H 1A1"},
}

func main() {
	var (
		count       int
		days        int
		start       string
		seed        int64
		ordersOut   string
		mappingsOut string
	)
	flag.IntVar(&count, "count", 50, "number of orders to generate")
	flag.IntVar(&days, "days", 5, "spread orders over this many days")
	flag.StringVar(&start, "start", calendar.FormatDate(time.Now().UTC()), "first order date YYYY-MM-DD")
	flag.Int64Var(&seed, "seed", 1, "random seed")
	flag.StringVar(&ordersOut, "orders", "data/orders.json", "orders output file (.json or .jsonl)")
	flag.StringVar(&mappingsOut, "mappings", "data/productMappings.json", "mappings output file (.json or .yaml)")
	flag.Parse()

	first, err := calendar.ParseDate(start)
	if err != nil {
		log.Fatalf("start: %v", err)
	}
	orders := generateOrders(rand.New(rand.NewSource(seed)), count, days, first)
	if err := writeOrders(ordersOut, orders); err != nil {
		log.Fatalf("write orders: %v", err)
	}
	if err := writeMappings(mappingsOut); err != nil {
		log.Fatalf("write mappings: %v", err)
	}
	log.Printf("generated %d orders to %s and %d mappings to %s", len(orders), ordersOut, len(boxes), mappingsOut)
}

func generateOrders(rng *rand.Rand, count, days int, first time.Time) []model.Order {
	if days < 1 {
		days = 1
	}
	orders := make([]model.Order, 0, count)
	for i := 0; i < count; i++ {
		c := customers[rng.Intn(len(customers))]
		o := model.Order{
			OrderID:   fmt.Sprintf("%d", 1001+i),
			OrderDate: calendar.FormatDate(first.AddDate(0, 0, rng.Intn(days))),
			ShippingAddress: model.ShippingAddress{
				Street:     fmt.Sprintf("%d Main St", 1+rng.Intn(999)),
				City:       c.city,
				Province:   c.province,
				PostalCode: c.postal,
				Country:    "Canada",
			},
			CustomerName:  c.name,
			CustomerEmail: strings.ToLower(strings.ReplaceAll(c.name, " ", ".")) + "@example.com",
		}
		total := decimal.Zero
		for j, k := range rng.Perm(len(boxes))[:1+rng.Intn(2)] {
			b := boxes[k]
			price := decimal.RequireFromString(b.price)
			qty := 1 + rng.Intn(3)
			o.LineItems = append(o.LineItems, model.LineItem{
				LineItemID:  fmt.Sprintf("%s-%d", o.OrderID, j+1),
				ProductID:   b.id,
				ProductName: b.display,
				Price:       price,
				Quantity:    qty,
			})
			total = total.Add(price.Mul(decimal.NewFromInt(int64(qty))))
		}
		o.OrderTotal = total
		orders = append(orders, o)
	}
	return orders
}

func writeOrders(path string, orders []model.Order) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		for i := range orders {
			if err := enc.Encode(&orders[i]); err != nil {
				return fmt.Errorf("encode order %s: %w", orders[i].OrderID, err)
			}
		}
		return nil
	}
	enc.SetIndent("", "  ")
	return enc.Encode(orders)
}

func mappings() model.ProductMappings {
	m := make(model.ProductMappings, len(boxes))
	for _, b := range boxes {
		m[b.id] = model.ProductMapping{Name: b.name, Price: decimal.RequireFromString(b.price), Components: b.recipe}
	}
	return m
}

func writeMappings(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	return catalog.WriteFile(mappings(), path)
}
