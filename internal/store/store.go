// Package store persists generated reports so repeat requests inside the
// freshness window are served from cache.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/intel-cli/internal/model"
)

// ErrNotFound is returned when no unexpired report exists for a key.
var ErrNotFound = eris.New("store: report not found")

// Store defines the report cache.
type Store interface {
	// GetReport returns the unexpired report for key or ErrNotFound.
	GetReport(ctx context.Context, key string) (*model.Report, error)
	// SaveReport inserts or replaces the report stored under r.Key.
	SaveReport(ctx context.Context, r *model.Report) error
	// DeleteExpired removes expired reports and returns how many.
	DeleteExpired(ctx context.Context) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}

func encodeReport(r *model.Report) ([]byte, error) {
	if r == nil || r.Key == "" {
		return nil, eris.New("store: report key is required")
	}
	stored := *r
	stored.FromCache = false
	body, err := json.Marshal(stored)
	return body, eris.Wrap(err, "store: marshal report")
}

func decodeReport(body []byte) (*model.Report, error) {
	var r model.Report
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal report")
	}
	return &r, nil
}

// clock is overridden in tests.
type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
