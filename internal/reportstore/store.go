// Package reportstore persists error reports. Two backends are provided:
//   - file: one JSON file per report in a directory, for single users
//   - redis: reports shared between machines collecting crash data
package reportstore

import (
	"bytes"
	"context"
	"slices"
	"time"

	"plot-digitizer/internal/config"
	"plot-digitizer/internal/report"
	"plot-digitizer/pkg/errors"
)

// Summary is the listing entry for a stored report.
type Summary struct {
	ID       string    `json:"id"`
	Created  time.Time `json:"created"`
	Context  string    `json:"context"`
	Comment  string    `json:"comment"`
	Commands int       `json:"commands"`
}

func summarize(r *report.Report) Summary {
	return Summary{
		ID:       r.ID,
		Created:  r.Created,
		Context:  r.Error.Context,
		Comment:  r.Error.Comment,
		Commands: r.Log.Pushes(),
	}
}

// Store is the interface for report storage backends.
type Store interface {
	// Put stores a report under its ID, replacing any previous one.
	Put(ctx context.Context, r *report.Report) error

	// Get returns the report with id, or a NOT_FOUND error.
	Get(ctx context.Context, id string) (*report.Report, error)

	// List returns summaries, newest first.
	List(ctx context.Context) ([]Summary, error)

	Close() error
}

// Open returns the backend selected by cfg.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.ReportStore {
	case config.StoreRedis:
		return NewRedisStore(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	case config.StoreFile, "":
		return NewFileStore(cfg.ReportDir)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown report store %q", cfg.ReportStore)
	}
}

func encode(r *report.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Write(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode report %s", r.ID)
	}
	return buf.Bytes(), nil
}

func decode(id string, data []byte) (*report.Report, error) {
	r, err := report.Read(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "report %s", id)
	}
	return r, nil
}

func sortNewestFirst(s []Summary) {
	slices.SortFunc(s, func(a, b Summary) int {
		return b.Created.Compare(a.Created)
	})
}

func validID(id string) error {
	if id == "" || id != cleanID(id) {
		return errors.New(errors.ErrCodeInvalidInput, "invalid report id %q", id)
	}
	return nil
}

// cleanID drops characters that could escape a directory or key namespace.
func cleanID(id string) string {
	out := make([]rune, 0, len(id))
	for _, r := range id {
		if r == '-' || r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			out = append(out, r)
		}
	}
	return string(out)
}
