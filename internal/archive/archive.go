package archive

import (
	"context"
	"reflect"
	"sort"
	"sync"

	"picklist/internal/model"
)

// Archive keeps ingested orders so picking lists can be generated without the
// original export files.
type Archive interface {
	// Put stores o keyed by its id. applied is false when an identical copy is
	// already stored, so replaying a feed is harmless.
	Put(o model.Order) (applied bool, err error)
	Get(orderID string) (model.Order, bool)
	OrdersOn(date string) ([]model.Order, error)
	// Dates lists the stored order dates, most recent first.
	Dates() ([]string, error)
	LoadOrders(ctx context.Context) ([]model.Order, error)
}

// InMemoryArchive is a thread-safe map archive that returns orders in
// insertion order.
type InMemoryArchive struct {
	mu    sync.RWMutex
	index map[string]int
	data  []model.Order
}

func NewInMemoryArchive() *InMemoryArchive {
	return &InMemoryArchive{index: make(map[string]int)}
}

func (a *InMemoryArchive) Put(o model.Order) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i, ok := a.index[o.OrderID]; ok {
		if reflect.DeepEqual(a.data[i], o) {
			return false, nil
		}
		a.data[i] = o
		return true, nil
	}
	a.index[o.OrderID] = len(a.data)
	a.data = append(a.data, o)
	return true, nil
}

func (a *InMemoryArchive) Get(orderID string) (model.Order, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	i, ok := a.index[orderID]
	if !ok {
		return model.Order{}, false
	}
	return a.data[i], true
}

func (a *InMemoryArchive) OrdersOn(date string) ([]model.Order, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []model.Order
	for _, o := range a.data {
		if o.OrderDate == date {
			out = append(out, o)
		}
	}
	return out, nil
}

func (a *InMemoryArchive) Dates() ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	seen := make(map[string]struct{})
	var dates []string
	for _, o := range a.data {
		if _, ok := seen[o.OrderDate]; !ok {
			seen[o.OrderDate] = struct{}{}
			dates = append(dates, o.OrderDate)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

func (a *InMemoryArchive) LoadOrders(ctx context.Context) ([]model.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]model.Order, len(a.data))
	copy(out, a.data)
	return out, nil
}
