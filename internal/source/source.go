// Package source loads the orders and gift box recipes a picking list is
// built from.
package source

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"picklist/internal/catalog"
	"picklist/internal/model"
)

type OrderSource interface {
	LoadOrders(ctx context.Context) ([]model.Order, error)
}

type MappingSource interface {
	LoadMappings(ctx context.Context) (model.ProductMappings, error)
}

// LoadRecorder is told about sources that failed to load.
type LoadRecorder interface {
	LoadFailed(source string)
}

// Dataset is the read-only input of a review session.
type Dataset struct {
	Orders   []model.Order
	Mappings model.ProductMappings
}

// LoadAll loads orders and mappings concurrently. A source that fails is
// logged and replaced by an empty collection, so callers always get a usable
// Dataset. Cancelling ctx stops both loads. rec may be nil.
func LoadAll(ctx context.Context, log *slog.Logger, rec LoadRecorder, orders OrderSource, mappings MappingSource) Dataset {
	var ds Dataset
	g, gctx := errgroup.WithContext(ctx)
	// a failed source degrades to empty; only cancellation is returned
	g.Go(func() error {
		o, err := orders.LoadOrders(gctx)
		if err != nil {
			log.Error("failed to load orders", slog.Any("error", err))
			if rec != nil {
				rec.LoadFailed("orders")
			}
			return gctx.Err()
		}
		ds.Orders = o
		return nil
	})
	g.Go(func() error {
		m, err := mappings.LoadMappings(gctx)
		if err != nil {
			log.Error("failed to load product mappings", slog.Any("error", err))
			if rec != nil {
				rec.LoadFailed("mappings")
			}
			return gctx.Err()
		}
		ds.Mappings = m
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Warn("data load cancelled", slog.Any("error", err))
	}

	if ds.Orders == nil {
		ds.Orders = []model.Order{}
	}
	if ds.Mappings == nil {
		ds.Mappings = model.ProductMappings{}
	}
	if err := catalog.Validate(ds.Mappings); err != nil {
		log.Warn("product mappings have problems", slog.Any("error", err))
	}
	log.Info("data loaded", slog.Int("orders", len(ds.Orders)), slog.Int("mappings", len(ds.Mappings)))
	return ds
}
