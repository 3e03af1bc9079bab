package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"picklist/internal/model"
)

// Postgres reads orders and recipes from the storefront database. Expected
// tables:
//
//	orders(order_id, order_total numeric, order_date date, street, city,
//	       province, postal_code, country, customer_name, customer_email)
//	order_line_items(order_id, position, line_item_id, product_id,
//	       product_name, price numeric, quantity)
//	product_mappings(product_id, name, price numeric)
//	product_mapping_components(product_id, position, component_product_id,
//	       component_name, quantity)
type Postgres struct {
	pool *pgxpool.Pool
}

const (
	selectOrdersSQL = `
		SELECT order_id, order_total::text, to_char(order_date, 'YYYY-MM-DD'),
			   street, city, province, postal_code, country, customer_name, customer_email
		FROM orders
		ORDER BY order_date, order_id`

	selectLineItemsSQL = `
		SELECT order_id, line_item_id, product_id, product_name, price::text, quantity
		FROM order_line_items
		ORDER BY order_id, position`

	selectMappingsSQL = `
		SELECT m.product_id, m.name, m.price::text,
			   c.component_product_id, c.component_name, c.quantity
		FROM product_mappings m
		LEFT JOIN product_mapping_components c ON c.product_id = m.product_id
		ORDER BY m.product_id, c.position`
)

// NewPostgres connects to url, retrying a few times while the database comes up.
func NewPostgres(ctx context.Context, url string, log *slog.Logger) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MaxConnIdleTime = 5 * time.Minute

	const maxRetries = 5
	var pool *pgxpool.Pool
	for i := 0; i < maxRetries; i++ {
		pool, err = pgxpool.NewWithConfig(ctx, cfg)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = pool.Ping(pingCtx)
			cancel()
			if err == nil {
				break
			}
			pool.Close()
		}
		if i < maxRetries-1 {
			wait := time.Duration(i+1) * 2 * time.Second
			log.Warn("database connection failed, retrying", slog.Duration("wait", wait), slog.Any("error", err))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() { p.pool.Close() }

type lineRow struct {
	orderID string
	item    model.LineItem
}

func (p *Postgres) LoadOrders(ctx context.Context) ([]model.Order, error) {
	rows, err := p.pool.Query(ctx, selectOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Order, error) {
		var o model.Order
		var total string
		a := &o.ShippingAddress
		if err := row.Scan(&o.OrderID, &total, &o.OrderDate, &a.Street, &a.City, &a.Province, &a.PostalCode, &a.Country, &o.CustomerName, &o.CustomerEmail); err != nil {
			return o, err
		}
		d, err := decimal.NewFromString(total)
		if err != nil {
			return o, fmt.Errorf("order %s total %q: %w", o.OrderID, total, err)
		}
		o.OrderTotal = d
		return o, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan orders: %w", err)
	}

	rows, err = p.pool.Query(ctx, selectLineItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("query line items: %w", err)
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (lineRow, error) {
		var l lineRow
		var price string
		if err := row.Scan(&l.orderID, &l.item.LineItemID, &l.item.ProductID, &l.item.ProductName, &price, &l.item.Quantity); err != nil {
			return l, err
		}
		d, err := decimal.NewFromString(price)
		if err != nil {
			return l, fmt.Errorf("line item %s price %q: %w", l.item.LineItemID, price, err)
		}
		l.item.Price = d
		return l, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan line items: %w", err)
	}
	return attachLineItems(orders, lines), nil
}

// attachLineItems appends each line to its order, keeping line order. Lines
// for unknown orders are dropped.
func attachLineItems(orders []model.Order, lines []lineRow) []model.Order {
	idx := make(map[string]int, len(orders))
	for i, o := range orders {
		idx[o.OrderID] = i
	}
	for _, l := range lines {
		if i, ok := idx[l.orderID]; ok {
			orders[i].LineItems = append(orders[i].LineItems, l.item)
		}
	}
	return orders
}

type mappingRow struct {
	productID string
	name      string
	price     string
	component *model.ProductComponent
}

func (p *Postgres) LoadMappings(ctx context.Context) (model.ProductMappings, error) {
	rows, err := p.pool.Query(ctx, selectMappingsSQL)
	if err != nil {
		return nil, fmt.Errorf("query mappings: %w", err)
	}
	mrows, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (mappingRow, error) {
		var r mappingRow
		var cid, cname *string
		var cqty *int
		if err := row.Scan(&r.productID, &r.name, &r.price, &cid, &cname, &cqty); err != nil {
			return r, err
		}
		if cid != nil {
			c := model.ProductComponent{ProductID: *cid}
			if cname != nil {
				c.Name = *cname
			}
			if cqty != nil {
				c.Quantity = *cqty
			}
			r.component = &c
		}
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan mappings: %w", err)
	}
	return buildMappings(mrows)
}

func buildMappings(rows []mappingRow) (model.ProductMappings, error) {
	out := make(model.ProductMappings)
	for _, r := range rows {
		pm, ok := out[r.productID]
		if !ok {
			price, err := decimal.NewFromString(r.price)
			if err != nil {
				return nil, fmt.Errorf("mapping %s price %q: %w", r.productID, r.price, err)
			}
			pm = model.ProductMapping{Name: r.name, Price: price}
		}
		if r.component != nil {
			pm.Components = append(pm.Components, *r.component)
		}
		out[r.productID] = pm
	}
	return out, nil
}
