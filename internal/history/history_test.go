package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/gacha-backend/internal/catalog"
	"github.com/xtding233/gacha-backend/internal/gacha"
	"github.com/xtding233/gacha-backend/internal/token"
)

type stepClock struct{ t time.Time }

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func results(region catalog.Region, ids ...int) []gacha.Result {
	out := make([]gacha.Result, 0, len(ids))
	for _, id := range ids {
		r := gacha.Result{CharacterID: id, Name: "n", Category: gacha.CategoryR, Tag: gacha.TagR, Region: region}
		if id >= 300 {
			r.Category, r.Tag = gacha.CategorySSR, gacha.TagSSR
		}
		out = append(out, r)
	}
	return out
}

func backends(t *testing.T) map[string]func(opts ...Option) Store {
	return map[string]func(opts ...Option) Store{
		"memory": func(opts ...Option) Store { return NewMemoryStore(opts...) },
		"sqlite": func(opts ...Option) Store {
			s, err := OpenSQLite(filepath.Join(t.TempDir(), "history.db"), opts...)
			require.NoError(t, err)
			return s
		},
		"redis": func(opts ...Option) Store {
			mr := miniredis.RunT(t)
			return NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:history", opts...)
		},
	}
}

func TestStoreContract(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := &stepClock{t: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)}
			s := open(WithClock(clock.now))
			defer s.Close()

			require.NoError(t, s.RecordDraws(ctx, "u1", catalog.Japan, "Hoshino", results(catalog.Japan, 100, 301)))
			require.NoError(t, s.RecordDraws(ctx, "u1", catalog.Japan, "Hoshino", results(catalog.Japan, 102)))
			require.NoError(t, s.RecordDraws(ctx, "u1", catalog.Japan, "Standard", results(catalog.Japan, 103)))
			require.NoError(t, s.RecordDraws(ctx, "u2", catalog.Japan, "Hoshino", results(catalog.Japan, 104)))
			require.NoError(t, s.RecordDraws(ctx, "u1", catalog.Global, "Hoshino", results(catalog.Global, 105)))

			got, err := s.UserHistory(ctx, "u1", catalog.Japan, "Hoshino")
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, 102, got[0].CharacterID, "newest first")
			assert.Equal(t, "SSR", got[1].Tier)
			assert.Equal(t, gacha.TagSSR, got[1].Tag)
			assert.Equal(t, "R", got[2].Tier)
			assert.Equal(t, catalog.Japan, got[0].Region)
			assert.Equal(t, "Hoshino", got[0].Banner)
			assert.True(t, got[0].PulledAt.After(got[1].PulledAt))

			require.NoError(t, s.PurgeHistory(ctx, catalog.Japan))

			got, err = s.UserHistory(ctx, "u1", catalog.Japan, "Hoshino")
			require.NoError(t, err)
			assert.Empty(t, got)
			got, err = s.UserHistory(ctx, "u2", catalog.Japan, "Hoshino")
			require.NoError(t, err)
			assert.Empty(t, got)

			got, err = s.UserHistory(ctx, "u1", catalog.Global, "Hoshino")
			require.NoError(t, err)
			require.Len(t, got, 1, "other regions survive a purge")
			assert.Equal(t, 105, got[0].CharacterID)
		})
	}
}

func TestStoreSkipsSentinel(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open()
			defer s.Close()

			rs := results(catalog.Global, 100)
			rs = append(rs, gacha.Result{Name: gacha.ErrorName, Category: gacha.CategoryError, Tag: gacha.TagError})
			require.NoError(t, s.RecordDraws(ctx, "u", catalog.Global, "Standard", rs))
			require.NoError(t, s.RecordDraws(ctx, "u", catalog.Global, "Standard", nil))

			got, err := s.UserHistory(ctx, "u", catalog.Global, "Standard")
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, 100, got[0].CharacterID)
		})
	}
}

func TestStoreSeparatesColonIDs(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open()
			defer s.Close()

			require.NoError(t, s.RecordDraws(ctx, "alice:Standard", catalog.Global, "Hoshino", results(catalog.Global, 100)))

			got, err := s.UserHistory(ctx, "alice", catalog.Global, "Standard:Hoshino")
			require.NoError(t, err)
			assert.Empty(t, got)

			got, err = s.UserHistory(ctx, "alice:Standard", catalog.Global, "Hoshino")
			require.NoError(t, err)
			assert.Len(t, got, 1)

			require.NoError(t, s.PurgeHistory(ctx, catalog.Global))
			got, err = s.UserHistory(ctx, "alice:Standard", catalog.Global, "Hoshino")
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestRedisPurgeManyKeys(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	s := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "")
	defer s.Close()

	for i := 0; i < scanBatch*2+5; i++ {
		require.NoError(t, s.RecordDraws(ctx, fmt.Sprintf("user%d", i), catalog.Japan, "Standard", results(catalog.Japan, 100)))
	}
	require.NoError(t, s.RecordDraws(ctx, "keep", catalog.Global, "Standard", results(catalog.Global, 100)))

	require.NoError(t, s.PurgeHistory(ctx, catalog.Japan))
	assert.Len(t, mr.Keys(), 1)
	assert.True(t, mr.Exists("gacha:history:global:4:keep:Standard"))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, Config{Backend: BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "h.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	mr := miniredis.RunT(t)
	s, err = Open(ctx, Config{Backend: BackendRedis, RedisAddr: mr.Addr()})
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Config{Backend: BackendSQLite})
	assert.Error(t, err)

	_, err = Open(ctx, Config{Backend: "mongo"})
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestSummarize(t *testing.T) {
	at := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	recs := []Record{
		{CharacterID: 1, Tier: "SSR", PulledAt: at.Add(3 * time.Second)},
		{CharacterID: 2, Tier: "Fes", PulledAt: at.Add(2 * time.Second)},
		{CharacterID: 3, Tier: "SR", PulledAt: at.Add(time.Second)},
		{CharacterID: 4, Tier: "R", PulledAt: at},
	}
	s := Summarize("Hoshino", recs, token.Pyroxene)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.SSR)
	assert.Equal(t, 1, s.Fes)
	assert.Equal(t, 1, s.SR)
	assert.Equal(t, 1, s.R)
	assert.InDelta(t, 50.0, s.SSRRate, 1e-9, "Fes pulls count as three-star")
	assert.Equal(t, 480, s.Spent)
	assert.Equal(t, "Pyroxene", s.Currency)
	require.Len(t, s.SSRPulls, 2)
	assert.Equal(t, 1, s.SSRPulls[0].CharacterID)

	fesOnly := Summarize("Mika", []Record{{Tier: "Fes"}, {Tier: "R"}}, token.Pyroxene)
	assert.Zero(t, fesOnly.SSR)
	assert.InDelta(t, 50.0, fesOnly.SSRRate, 1e-9)
	require.Len(t, fesOnly.SSRPulls, 1)

	empty := Summarize("Standard", nil, token.Pyroxene)
	assert.Zero(t, empty.SSRRate)
	assert.NotNil(t, empty.SSRPulls)
}
