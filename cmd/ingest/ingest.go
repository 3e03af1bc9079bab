package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"picklist/internal/archive"
	"picklist/internal/calendar"
	"picklist/internal/metrics"
	"picklist/internal/model"
)

type outcome string

const (
	stored    outcome = "stored"
	duplicate outcome = "duplicate"
	invalid   outcome = "invalid"
)

type ingester struct {
	archive archive.Archive
	mreg    *metrics.Registry
	log     *slog.Logger
	counts  map[outcome]int
}

func newIngester(a archive.Archive, mreg *metrics.Registry, log *slog.Logger) *ingester {
	return &ingester{archive: a, mreg: mreg, log: log, counts: make(map[outcome]int)}
}

func validateOrder(o model.Order) error {
	if o.OrderID == "" {
		return errors.New("missing orderId")
	}
	if _, err := calendar.ParseDate(o.OrderDate); err != nil {
		return fmt.Errorf("order %s: %w", o.OrderID, err)
	}
	for i, li := range o.LineItems {
		if li.Quantity <= 0 {
			return fmt.Errorf("order %s: lineItems[%d]: quantity must be positive, got %d", o.OrderID, i, li.Quantity)
		}
	}
	return nil
}

// handle decodes one message. Undecodable or invalid orders are counted and
// skipped; only archive errors are returned.
func (in *ingester) handle(raw []byte) (outcome, error) {
	var o model.Order
	if err := json.Unmarshal(raw, &o); err != nil {
		in.skip(fmt.Errorf("decode: %w", err))
		return invalid, nil
	}
	return in.store(o)
}

func (in *ingester) store(o model.Order) (outcome, error) {
	if err := validateOrder(o); err != nil {
		in.skip(err)
		return invalid, nil
	}
	applied, err := in.archive.Put(o)
	if err != nil {
		return "", fmt.Errorf("archive order %s: %w", o.OrderID, err)
	}
	if !applied {
		in.counts[duplicate]++
		in.mreg.IngestSkipped.Inc()
		in.log.Debug("order already archived", slog.String("order_id", o.OrderID))
		return duplicate, nil
	}
	in.counts[stored]++
	in.mreg.Ingested.Inc()
	in.log.Debug("order archived", slog.String("order_id", o.OrderID), slog.String("date", o.OrderDate))
	return stored, nil
}

func (in *ingester) skip(err error) {
	in.counts[invalid]++
	in.mreg.IngestSkipped.Inc()
	in.log.Warn("skipping order", slog.Any("error", err))
}
