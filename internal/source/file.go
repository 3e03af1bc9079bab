package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"picklist/internal/catalog"
	"picklist/internal/model"
)

// OrderFile reads orders from a JSON array file, or one order per line when
// the file ends in .jsonl.
type OrderFile struct {
	Path string
}

func (f OrderFile) LoadOrders(ctx context.Context) ([]model.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open orders: %w", err)
	}
	defer file.Close()
	if strings.EqualFold(filepath.Ext(f.Path), ".jsonl") {
		return DecodeOrderLines(file)
	}
	var orders []model.Order
	if err := json.NewDecoder(file).Decode(&orders); err != nil {
		return nil, fmt.Errorf("decode orders %s: %w", f.Path, err)
	}
	return orders, nil
}

// DecodeOrderLines decodes a stream of JSON orders.
func DecodeOrderLines(r io.Reader) ([]model.Order, error) {
	dec := json.NewDecoder(r)
	var orders []model.Order
	for {
		var o model.Order
		err := dec.Decode(&o)
		if errors.Is(err, io.EOF) {
			return orders, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode order %d: %w", len(orders)+1, err)
		}
		orders = append(orders, o)
	}
}

// MappingFile reads a JSON or YAML recipe catalog.
type MappingFile struct {
	Path string
}

func (f MappingFile) LoadMappings(ctx context.Context) (model.ProductMappings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return catalog.LoadFile(f.Path)
}
