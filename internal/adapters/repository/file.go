package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/handicap/internal/domain/model"
	"github.com/okian/handicap/internal/domain/report"
	"github.com/okian/handicap/pkg/metrics"
)

// FileStore writes one JSON file per race under <dir>/<track>/race_<n>_report.json.
type FileStore struct {
	dir string
	cfg settings
	mu  sync.Mutex
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string, opts ...Option) (*FileStore, error) {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	return &FileStore{dir: dir, cfg: cfg}, nil
}

// Path returns the file a report for key is written to.
func (s *FileStore) Path(key model.RaceKey) string {
	return filepath.Join(s.dir, key.Track, fmt.Sprintf("race_%d_report.json", key.Race))
}

// Save implements Store. The file is written to a temporary name and renamed
// into place so readers never see a partial report.
func (s *FileStore) Save(ctx context.Context, r report.Report) error {
	defer observe("save", time.Now())
	key := r.Key()
	if err := validKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if s.cfg.indent != "" {
		data, err = json.MarshalIndent(r, "", s.cfg.indent)
	} else {
		data, err = json.Marshal(r)
	}
	if err != nil {
		return fmt.Errorf("encode report %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.Path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create track dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write report %s: %w", key, err)
	}
	metrics.UpdateReportsStored(len(s.files()))
	return nil
}

// Get implements Store.
func (s *FileStore) Get(_ context.Context, key model.RaceKey) (report.Report, error) {
	defer observe("get", time.Now())
	if err := validKey(key); err != nil {
		return report.Report{}, err
	}
	r, err := readReport(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		metrics.RecordError("repository", "not_found")
		return report.Report{}, ErrNotFound
	}
	return r, err
}

// List implements Store.
func (s *FileStore) List(_ context.Context) ([]report.Report, error) {
	defer observe("list", time.Now())
	files := s.files()
	out := make([]report.Report, 0, len(files))
	for _, path := range files {
		r, err := readReport(path)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	sortReports(out)
	return out, nil
}

// Count implements Store.
func (s *FileStore) Count(_ context.Context) int {
	return len(s.files())
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) files() []string {
	matches, _ := filepath.Glob(filepath.Join(s.dir, "*", "race_*_report.json"))
	return matches
}

func readReport(path string) (report.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return report.Report{}, err
	}
	var r report.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return report.Report{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return r, nil
}
