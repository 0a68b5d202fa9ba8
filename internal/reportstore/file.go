package reportstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"plot-digitizer/internal/report"
	"plot-digitizer/pkg/errors"
)

// FileStore keeps each report as <dir>/<id>.json.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "report directory is empty")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create report dir")
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) reportPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func (s *FileStore) Put(ctx context.Context, r *report.Report) error {
	if err := validID(r.ID); err != nil {
		return err
	}
	data, err := encode(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.reportPath(r.ID), data, 0600); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write report file")
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*report.Report, error) {
	if err := validID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := os.ReadFile(s.reportPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeNotFound, "report %s not found", id)
		}
		return nil, errors.Wrap(errors.ErrCodeLoadFailed, err, "read report file")
	}
	return decode(id, data)
}

// List skips files that do not parse as reports.
func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLoadFailed, err, "read report dir")
	}

	var out []Summary
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		r, err := decode(strings.TrimSuffix(entry.Name(), ".json"), data)
		if err != nil {
			continue
		}
		out = append(out, summarize(r))
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the base directory for report files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)
