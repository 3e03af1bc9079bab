package publish

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/segmentio/kafka-go"

	"picklist/internal/model"
)

func items() []model.PickingItem {
	return []model.PickingItem{
		{ProductID: "CANDLE", Name: "Candle", BoxType: "Valentine Box", OrderID: "1001", Quantity: 2},
		{ProductID: "CARD", Name: "Card", BoxType: "Valentine Box", OrderID: "1001", Quantity: 6},
	}
}

func TestFileWriter_PublishList(t *testing.T) {
	old := NowUnix
	defer func() { NowUnix = old }()
	NowUnix = func() int64 { return 111 }

	dir := t.TempDir()
	w, err := NewFileWriter(dir, "picklist.jsonl")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	n, err := PublishList(w, "run-1", "2024-01-01", items())
	if err != nil || n != 2 {
		t.Fatalf("PublishList: n=%d err=%v", n, err)
	}

	f, err := os.Open(filepath.Join(dir, "picklist.jsonl"))
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	var got []Row
	for s.Scan() {
		var r Row
		if err := json.Unmarshal(s.Bytes(), &r); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		got = append(got, r)
	}
	if err := s.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	want := Row{Key: `["2024-01-01","CARD","Valentine Box"]`, RunID: "run-1", Date: "2024-01-01", ProductID: "CARD", Name: "Card", BoxType: "Valentine Box", Quantity: 6, TS: 111}
	if len(got) != 2 || got[1] != want {
		t.Fatalf("mismatch: %+v", got)
	}
}

// fakeKafkaWriter implements kafkaMessageWriter for tests
type fakeKafkaWriter struct {
	msgs []kafka.Message
	fail bool
}

func (f *fakeKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.fail {
		return errors.New("fail")
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestKafkaWriter_PublishList_Success(t *testing.T) {
	fk := &fakeKafkaWriter{}
	kw := NewKafkaWriterWith(fk)
	n, err := PublishList(kw, "run-1", "2024-01-01", items())
	if err != nil || n != 2 {
		t.Fatalf("publish: n=%d err=%v", n, err)
	}
	if len(fk.msgs) != 2 {
		t.Fatalf("want 2 msgs, got %d", len(fk.msgs))
	}
	if string(fk.msgs[0].Key) != `["2024-01-01","CANDLE","Valentine Box"]` {
		t.Fatalf("bad key: %s", string(fk.msgs[0].Key))
	}
	if err := kw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestKafkaWriter_PublishList_Fail(t *testing.T) {
	kw := NewKafkaWriterWith(&fakeKafkaWriter{fail: true})
	n, err := PublishList(kw, "run-1", "2024-01-01", items())
	if err == nil || n != 0 {
		t.Fatalf("expected error after 0 rows, got n=%d err=%v", n, err)
	}
}

func TestMultiWriter_FansOut(t *testing.T) {
	a, b := &fakeKafkaWriter{}, &fakeKafkaWriter{}
	mw := NewMultiWriter(NewKafkaWriterWith(a), NewKafkaWriterWith(b))
	if _, err := PublishList(mw, "run-1", "2024-01-01", items()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(a.msgs) != 2 || len(b.msgs) != 2 {
		t.Fatalf("fan out: a=%d b=%d", len(a.msgs), len(b.msgs))
	}
}

func TestBrokers(t *testing.T) {
	got := Brokers(" localhost:9092, ,kafka:29092 ")
	if len(got) != 2 || got[0] != "localhost:9092" || got[1] != "kafka:29092" {
		t.Fatalf("Brokers: %v", got)
	}
}

func TestRowKey_SeparatorsInFieldsDoNotCollide(t *testing.T) {
	a := RowKey("2024-01-01", model.PickingItem{ProductID: "CARD#RED", BoxType: "Valentine Box"})
	b := RowKey("2024-01-01", model.PickingItem{ProductID: "CARD", BoxType: "RED#Valentine Box"})
	if a == b {
		t.Fatalf("distinct picking rows share key %s", a)
	}
	c := RowKey("2024-01-01", model.PickingItem{ProductID: `CARD","RED`, BoxType: "Valentine Box"})
	d := RowKey("2024-01-01", model.PickingItem{ProductID: "CARD", BoxType: `RED","Valentine Box`})
	if c == d {
		t.Fatalf("distinct picking rows share key %s", c)
	}
	var fields []string
	if err := json.Unmarshal([]byte(a), &fields); err != nil || len(fields) != 3 || fields[1] != "CARD#RED" {
		t.Fatalf("key %s does not decode to its fields: %v %v", a, fields, err)
	}
}
