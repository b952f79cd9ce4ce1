package history

import (
	"context"
	"sync"

	"github.com/xtding233/gacha-backend/internal/catalog"
	"github.com/xtding233/gacha-backend/internal/gacha"
)

type memKey struct {
	user   string
	banner string
}

// MemoryStore keeps history in process memory.
type MemoryStore struct {
	opts options

	mu   sync.RWMutex
	rows map[catalog.Region]map[memKey][]Record
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		opts: newOptions(opts),
		rows: make(map[catalog.Region]map[memKey][]Record),
	}
}

func (m *MemoryStore) RecordDraws(ctx context.Context, userID string, region catalog.Region, bannerLabel string, results []gacha.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	recs := newRecords(userID, region, bannerLabel, results, m.opts.now())
	if len(recs) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	byKey, ok := m.rows[region]
	if !ok {
		byKey = make(map[memKey][]Record)
		m.rows[region] = byKey
	}
	k := memKey{user: userID, banner: bannerLabel}
	byKey[k] = append(byKey[k], recs...)
	return nil
}

func (m *MemoryStore) PurgeHistory(ctx context.Context, region catalog.Region) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, region)
	return nil
}

func (m *MemoryStore) UserHistory(ctx context.Context, userID string, region catalog.Region, bannerLabel string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.rows[region][memKey{user: userID, banner: bannerLabel}]
	out := make([]Record, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, rows[i])
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
