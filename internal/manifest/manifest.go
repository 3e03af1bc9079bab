package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/segmentio/kafka-go"

	"picklist/internal/publish"
)

// Manifest points at the most recent picking list snapshot.
type Manifest struct {
	RunID                string `json:"runId"`
	Date                 string `json:"date"`
	Rows                 int    `json:"rows"`
	CreatedAtEpochSecond int64  `json:"createdAt"`
}

const latestFile = "manifest.latest.json"

var ErrNoManifest = errors.New("manifest: none published")

type Publisher interface {
	PublishLatest(runID, date string, rows int) error
}

type Reader interface {
	ReadLatest() (Manifest, error)
}

// MultiPublisherImpl writes to multiple publishers sequentially.
type MultiPublisherImpl struct {
	pubs []Publisher
}

func MultiPublisher(pubs ...Publisher) Publisher {
	return &MultiPublisherImpl{pubs: pubs}
}

func (m *MultiPublisherImpl) PublishLatest(runID, date string, rows int) error {
	for _, p := range m.pubs {
		if err := p.PublishLatest(runID, date, rows); err != nil {
			return err
		}
	}
	return nil
}

func newManifest(runID, date string, rows int) Manifest {
	return Manifest{
		RunID:                runID,
		Date:                 date,
		Rows:                 rows,
		CreatedAtEpochSecond: time.Now().UTC().Unix(),
	}
}

type FilesystemManifest struct {
	baseDir string
}

func NewFilesystemManifest(baseDir string) *FilesystemManifest {
	return &FilesystemManifest{baseDir: baseDir}
}

func (f *FilesystemManifest) PublishLatest(runID, date string, rows int) error {
	if err := os.MkdirAll(f.baseDir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	m := newManifest(runID, date, rows)
	// write then rename so readers never see a half-written manifest
	tmp := filepath.Join(f.baseDir, latestFile+".tmp")
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&m); err != nil {
		out.Close()
		return fmt.Errorf("encode: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(f.baseDir, latestFile)); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func (f *FilesystemManifest) ReadLatest() (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(f.baseDir, latestFile))
	if errors.Is(err, os.ErrNotExist) {
		return Manifest{}, ErrNoManifest
	}
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return m, nil
}

// KafkaManifest publishes manifest.latest as a compacted Kafka record.
type KafkaManifest struct {
	writer kafkaMessageWriter
	key    []byte
}

// kafkaMessageWriter abstracts kafka.Writer for testability.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewKafkaManifest creates a Kafka manifest publisher.
// bootstrap can be comma-separated brokers. key is typically "picklist-manifest-latest".
func NewKafkaManifest(bootstrap string, topic string, key string) *KafkaManifest {
	return &KafkaManifest{writer: &kafka.Writer{
		Addr:         kafka.TCP(publish.Brokers(bootstrap)...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}, key: []byte(key)}
}

func (k *KafkaManifest) PublishLatest(runID, date string, rows int) error {
	m := newManifest(runID, date, rows)
	b, err := json.Marshal(&m)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return k.writer.WriteMessages(context.Background(), kafka.Message{Key: k.key, Value: b})
}

// NewKafkaManifestWith is only for tests to inject a fake writer.
func NewKafkaManifestWith(w kafkaMessageWriter, key string) *KafkaManifest {
	return &KafkaManifest{writer: w, key: []byte(key)}
}

// KafkaReader reads the latest manifest record from a compacted Kafka topic.
type KafkaReader struct {
	brokers []string
	topic   string
	key     []byte
	timeout time.Duration
}

func NewKafkaReader(bootstrap string, topic string, key string) *KafkaReader {
	return &KafkaReader{brokers: publish.Brokers(bootstrap), topic: topic, key: []byte(key), timeout: 10 * time.Second}
}

func (k *KafkaReader) ReadLatest() (Manifest, error) {
	// read from the beginning and keep the last record for the key; fine for a compacted topic
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   k.brokers,
		Topic:     k.topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()

	var last Manifest
	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return Manifest{}, fmt.Errorf("read kafka: %w", err)
		}
		if string(m.Key) != string(k.key) {
			continue
		}
		var man Manifest
		if err := json.Unmarshal(m.Value, &man); err != nil {
			return Manifest{}, fmt.Errorf("unmarshal kafka manifest: %w", err)
		}
		last = man
	}
	if last.RunID == "" {
		return Manifest{}, ErrNoManifest
	}
	return last, nil
}
