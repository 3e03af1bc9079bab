package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"picklist/internal/model"
)

// Row is one published picking list line.
type Row struct {
	Key       string `json:"key"`
	RunID     string `json:"runId"`
	Date      string `json:"date"`
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	BoxType   string `json:"boxType"`
	Quantity  int    `json:"quantity"`
	TS        int64  `json:"ts"`
}

// RowKey returns the message key, the JSON array [date, productId, boxType].
// Consumers of a compacted topic keep the latest quantity per picking row, so
// distinct rows must never share a key whatever characters the fields hold.
func RowKey(date string, it model.PickingItem) string {
	b, _ := json.Marshal([]string{date, it.ProductID, it.BoxType})
	return string(b)
}

// NowUnix returns current time in epoch seconds. Split for testability.
var NowUnix = func() int64 { return time.Now().UTC().Unix() }

type Writer interface {
	Append(r Row) error
}

// PublishList appends one Row per item and returns how many were written.
func PublishList(w Writer, runID, date string, items []model.PickingItem) (int, error) {
	ts := NowUnix()
	for i, it := range items {
		r := Row{
			Key:       RowKey(date, it),
			RunID:     runID,
			Date:      date,
			ProductID: it.ProductID,
			Name:      it.Name,
			BoxType:   it.BoxType,
			Quantity:  it.Quantity,
			TS:        ts,
		}
		if err := w.Append(r); err != nil {
			return i, fmt.Errorf("append %s: %w", r.Key, err)
		}
	}
	return len(items), nil
}

// MultiWriter fans out writes to multiple underlying writers.
type MultiWriter struct {
	writers []Writer
}

func NewMultiWriter(ws ...Writer) *MultiWriter {
	return &MultiWriter{writers: ws}
}

func (m *MultiWriter) Append(r Row) error {
	for _, w := range m.writers {
		if err := w.Append(r); err != nil {
			return err
		}
	}
	return nil
}

// FileWriter appends rows as JSON lines.
type FileWriter struct {
	path string
}

func NewFileWriter(dir string, filename string) (*FileWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	return &FileWriter{path: filepath.Join(dir, filename)}, nil
}

func (w *FileWriter) Path() string { return w.path }

func (w *FileWriter) Append(r Row) error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(&r); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// KafkaWriter publishes rows to a Kafka topic keyed by Row.Key.
type KafkaWriter struct {
	writer kafkaMessageWriter
}

// kafkaMessageWriter abstracts kafka.Writer for testability.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Brokers splits a comma-separated bootstrap list.
func Brokers(bootstrap string) []string {
	var brokers []string
	for _, a := range strings.Split(bootstrap, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			brokers = append(brokers, a)
		}
	}
	return brokers
}

// NewKafkaWriter creates a Kafka writer.
// bootstrap can be a comma-separated list of host:port.
func NewKafkaWriter(bootstrap string, topic string) *KafkaWriter {
	return &KafkaWriter{writer: &kafka.Writer{
		Addr:         kafka.TCP(Brokers(bootstrap)...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}}
}

func (k *KafkaWriter) Append(r Row) error {
	b, err := json.Marshal(&r)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return k.writer.WriteMessages(
		context.Background(),
		kafka.Message{Key: []byte(r.Key), Value: b},
	)
}

// Close releases the underlying writer when it holds connections.
func (k *KafkaWriter) Close() error {
	if c, ok := k.writer.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// NewKafkaWriterWith is only for tests to inject a fake writer.
func NewKafkaWriterWith(w kafkaMessageWriter) *KafkaWriter {
	return &KafkaWriter{writer: w}
}
