// Package history persists per-user draw results. Rows are scoped by region and
// banner label and are purged wholesale when a region's active banners change.
package history

import (
	"context"
	"time"

	"github.com/xtding233/gacha-backend/internal/catalog"
	"github.com/xtding233/gacha-backend/internal/gacha"
)

// Record is one persisted draw.
type Record struct {
	UserID      string         `json:"user_id"`
	Region      catalog.Region `json:"region"`
	Banner      string         `json:"banner"`
	CharacterID int            `json:"char_id"`
	Name        string         `json:"char_name"`
	Tier        string         `json:"tier"`
	Tag         gacha.Tag      `json:"tag"`
	PulledAt    time.Time      `json:"pulled_at"`
}

// Store is the persistence contract the draw service consumes.
type Store interface {
	RecordDraws(ctx context.Context, userID string, region catalog.Region, bannerLabel string, results []gacha.Result) error
	// PurgeHistory drops every row of region.
	PurgeHistory(ctx context.Context, region catalog.Region) error
	// UserHistory returns the rows of one user and banner, newest first.
	UserHistory(ctx context.Context, userID string, region catalog.Region, bannerLabel string) ([]Record, error)
	Close() error
}

type options struct {
	now func() time.Time
}

// Option configures a store.
type Option func(*options)

// WithClock overrides the time stamped on recorded draws.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func newOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// newRecords converts results to rows. Sentinel results are not persisted.
func newRecords(userID string, region catalog.Region, label string, results []gacha.Result, at time.Time) []Record {
	out := make([]Record, 0, len(results))
	for _, r := range results {
		if r.Failed() {
			continue
		}
		out = append(out, Record{
			UserID:      userID,
			Region:      region,
			Banner:      label,
			CharacterID: r.CharacterID,
			Name:        r.Name,
			Tier:        r.Tag.Tier(),
			Tag:         r.Tag,
			PulledAt:    at,
		})
	}
	return out
}
