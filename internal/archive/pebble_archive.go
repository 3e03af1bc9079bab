package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/pebble"

	"picklist/internal/model"
)

// Key layout:
//
//	order/<date>/<orderId> -> order JSON
//	id/<orderId>           -> <date>
const (
	orderPrefix = "order/"
	idPrefix    = "id/"
)

// PebbleArchive implements Archive on PebbleDB. Orders come back ordered by
// date, then order id.
type PebbleArchive struct {
	db *pebble.DB
}

func NewPebbleArchive(dir string) (*PebbleArchive, error) {
	opts := &pebble.Options{
		MemTableSize:             64 << 20,
		MaxConcurrentCompactions: func() int { return 2 },
		L0CompactionThreshold:    4,
		L0StopWritesThreshold:    12,
	}
	d, err := pebble.Open(filepath.Clean(dir), opts)
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &PebbleArchive{db: d}, nil
}

func (p *PebbleArchive) Close() error { return p.db.Close() }

func orderKey(date, orderID string) []byte { return []byte(orderPrefix + date + "/" + orderID) }
func idKey(orderID string) []byte          { return []byte(idPrefix + orderID) }

// upperBound returns the smallest key greater than every key with prefix.
func upperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func (p *PebbleArchive) get(key []byte) ([]byte, bool, error) {
	v, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()
	return append([]byte(nil), v...), true, nil
}

func (p *PebbleArchive) Put(o model.Order) (bool, error) {
	val, err := json.Marshal(o)
	if err != nil {
		return false, fmt.Errorf("encode order %s: %w", o.OrderID, err)
	}
	prevDate, found, err := p.get(idKey(o.OrderID))
	if err != nil {
		return false, fmt.Errorf("read index %s: %w", o.OrderID, err)
	}
	b := p.db.NewBatch()
	defer b.Close()
	if found {
		if string(prevDate) == o.OrderDate {
			cur, ok, err := p.get(orderKey(o.OrderDate, o.OrderID))
			if err != nil {
				return false, fmt.Errorf("read order %s: %w", o.OrderID, err)
			}
			if ok && bytes.Equal(cur, val) {
				return false, nil
			}
		} else if err := b.Delete(orderKey(string(prevDate), o.OrderID), nil); err != nil {
			return false, err
		}
	}
	if err := b.Set(orderKey(o.OrderDate, o.OrderID), val, nil); err != nil {
		return false, err
	}
	if err := b.Set(idKey(o.OrderID), []byte(o.OrderDate), nil); err != nil {
		return false, err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return false, fmt.Errorf("commit order %s: %w", o.OrderID, err)
	}
	return true, nil
}

func (p *PebbleArchive) Get(orderID string) (model.Order, bool) {
	date, ok, err := p.get(idKey(orderID))
	if err != nil || !ok {
		return model.Order{}, false
	}
	val, ok, err := p.get(orderKey(string(date), orderID))
	if err != nil || !ok {
		return model.Order{}, false
	}
	var o model.Order
	if err := json.Unmarshal(val, &o); err != nil {
		return model.Order{}, false
	}
	return o, true
}

func (p *PebbleArchive) scan(prefix []byte, fn func(key, val []byte) error) error {
	it, err := p.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: upperBound(prefix)})
	if err != nil {
		return fmt.Errorf("pebble iter: %w", err)
	}
	defer it.Close()
	for it.First(); it.Valid(); it.Next() {
		if err := fn(it.Key(), it.Value()); err != nil {
			return err
		}
	}
	return it.Error()
}

func (p *PebbleArchive) collect(prefix []byte) ([]model.Order, error) {
	var out []model.Order
	err := p.scan(prefix, func(key, val []byte) error {
		var o model.Order
		if err := json.Unmarshal(val, &o); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		out = append(out, o)
		return nil
	})
	return out, err
}

func (p *PebbleArchive) OrdersOn(date string) ([]model.Order, error) {
	return p.collect([]byte(orderPrefix + date + "/"))
}

func (p *PebbleArchive) Dates() ([]string, error) {
	var dates []string
	err := p.scan([]byte(orderPrefix), func(key, _ []byte) error {
		rest := strings.TrimPrefix(string(key), orderPrefix)
		date, _, ok := strings.Cut(rest, "/")
		if !ok {
			return fmt.Errorf("malformed key %q", key)
		}
		if n := len(dates); n == 0 || dates[n-1] != date {
			dates = append(dates, date)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(dates)-1; i < j; i, j = i+1, j-1 {
		dates[i], dates[j] = dates[j], dates[i]
	}
	return dates, nil
}

func (p *PebbleArchive) LoadOrders(ctx context.Context) ([]model.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.collect([]byte(orderPrefix))
}
