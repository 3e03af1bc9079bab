package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"picklist/internal/manifest"
	"picklist/internal/model"
)

// Report is everything shown for one picking list run.
type Report struct {
	RunID       string              `json:"runId"`
	Date        string              `json:"date"`
	GeneratedAt time.Time           `json:"generatedAt"`
	Summary     model.Summary       `json:"summary"`
	Items       []model.PickingItem `json:"items"`
}

var ErrNotFound = errors.New("snapshot: not found")

type Snapshotter interface {
	WriteSnapshot(r Report) error
}

// FilesystemSnapshotter stores each report as <baseDir>/<runID>/report.json.
type FilesystemSnapshotter struct {
	baseDir string
}

func NewFilesystemSnapshotter(baseDir string) *FilesystemSnapshotter {
	return &FilesystemSnapshotter{baseDir: baseDir}
}

func (f *FilesystemSnapshotter) path(runID string) string {
	return filepath.Join(f.baseDir, runID, "report.json")
}

func (f *FilesystemSnapshotter) WriteSnapshot(r Report) error {
	if r.RunID == "" {
		return fmt.Errorf("write snapshot: empty run id")
	}
	if err := os.MkdirAll(filepath.Join(f.baseDir, r.RunID), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	out, err := os.Create(f.path(r.RunID))
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&r); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func (f *FilesystemSnapshotter) ReadSnapshot(runID string) (Report, error) {
	data, err := os.ReadFile(f.path(runID))
	if errors.Is(err, os.ErrNotExist) {
		return Report{}, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return Report{}, fmt.Errorf("read snapshot: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return Report{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return r, nil
}

// LoadLatest resolves the latest manifest and reads the report it names.
func (f *FilesystemSnapshotter) LoadLatest(mr manifest.Reader) (Report, error) {
	m, err := mr.ReadLatest()
	if err != nil {
		return Report{}, fmt.Errorf("read manifest: %w", err)
	}
	r, err := f.ReadSnapshot(m.RunID)
	if err != nil {
		return Report{}, fmt.Errorf("restore snapshot: %w", err)
	}
	return r, nil
}
