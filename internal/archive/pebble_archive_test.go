package archive

import (
	"bytes"
	"testing"
)

func TestPebbleArchive(t *testing.T) {
	a, err := NewPebbleArchive(t.TempDir())
	if err != nil {
		t.Fatalf("pebble open: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	exerciseArchive(t, a)
}

func TestPebbleArchive_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	a, err := NewPebbleArchive(dir)
	if err != nil {
		t.Fatalf("pebble open: %v", err)
	}
	if _, err := a.Put(testOrder("1001", "2024-01-01", 2)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b, err := NewPebbleArchive(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	o, ok := b.Get("1001")
	if !ok || o.LineItems[0].Quantity != 2 {
		t.Fatalf("after reopen: ok=%v order=%+v", ok, o)
	}
	applied, err := b.Put(testOrder("1001", "2024-01-01", 2))
	if err != nil || applied {
		t.Fatalf("replay after reopen should skip: applied=%v err=%v", applied, err)
	}
}

func TestUpperBound(t *testing.T) {
	if got := upperBound([]byte("order/2024-01-01/")); !bytes.Equal(got, []byte("order/2024-01-010")) {
		t.Fatalf("upperBound: got=%q", got)
	}
	if got := upperBound([]byte{'a', 0xff}); !bytes.Equal(got, []byte{'b'}) {
		t.Fatalf("upperBound carry: got=%q", got)
	}
	if got := upperBound([]byte{0xff}); got != nil {
		t.Fatalf("upperBound overflow: got=%q", got)
	}
}
