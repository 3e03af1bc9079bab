package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picklist/internal/archive"
	"picklist/internal/metrics"
)

func newTestIngester() (*ingester, *archive.InMemoryArchive, *metrics.Registry) {
	a := archive.NewInMemoryArchive()
	mreg := metrics.NewRegistry()
	return newIngester(a, mreg, slog.New(slog.NewTextHandler(io.Discard, nil))), a, mreg
}

func TestIngester_Handle(t *testing.T) {
	in, a, mreg := newTestIngester()
	msg := []byte(`{"orderId":"1001","orderDate":"2024-01-01","orderTotal":"10.00","lineItems":[{"productId":"GIFTBOX_A","quantity":1}]}`)

	got, err := in.handle(msg)
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	got, err = in.handle(msg)
	require.NoError(t, err)
	assert.Equal(t, duplicate, got)

	o, ok := a.Get("1001")
	require.True(t, ok)
	assert.Equal(t, "2024-01-01", o.OrderDate)

	for _, bad := range []string{
		`not json`,
		`{"orderDate":"2024-01-01"}`,
		`{"orderId":"1002","orderDate":"Jan 1"}`,
		`{"orderId":"1003","orderDate":"2024-01-01","lineItems":[{"quantity":-1}]}`,
		`{"orderId":"1004","orderDate":"2024-01-01","lineItems":[{"productId":"GIFTBOX_A","quantity":0}]}`,
		`{"orderId":"1005","orderDate":"2024-01-01","lineItems":[{"productId":"GIFTBOX_A"}]}`,
	} {
		got, err := in.handle([]byte(bad))
		require.NoError(t, err)
		assert.Equal(t, invalid, got, bad)
	}

	assert.Equal(t, map[outcome]int{stored: 1, duplicate: 1, invalid: 6}, in.counts)
	assert.Equal(t, 1.0, testutil.ToFloat64(mreg.Ingested))
	assert.Equal(t, 7.0, testutil.ToFloat64(mreg.IngestSkipped))
	_, ok = a.Get("1004")
	assert.False(t, ok)
}

func TestReadFlags(t *testing.T) {
	_, err := readFlags(nil)
	assert.Error(t, err)

	cfg, err := readFlags([]string{"-from-file", "orders.json", "-pebble-dir", "/tmp/archive"})
	require.NoError(t, err)
	assert.Equal(t, "orders.json", cfg.FromFile)
	assert.Equal(t, "/tmp/archive", cfg.Source.PebbleDir)
}
