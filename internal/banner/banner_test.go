package banner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xtding233/gacha-backend/internal/catalog"
)

var jst = time.FixedZone("JST", 9*60*60)

func testPools(t *testing.T) *catalog.Pools {
	t.Helper()
	p, _, err := catalog.Build(catalog.Japan, []catalog.Character{
		{ID: 1, Name: "Serika", Rarity: catalog.R},
		{ID: 7, Name: "Hoshino", Rarity: catalog.SSR},
		{ID: 9, Name: "Wakamo", Rarity: catalog.SSR, Limited: catalog.LimitedNormal},
	})
	require.NoError(t, err)
	return p
}

func TestResolveWindowInclusive(t *testing.T) {
	pools := testPools(t)
	raw := []Raw{
		{Type: "PickupGacha", Start: "2026-10-01 11:00:00", End: "2026-10-08 10:59:59", RateUpID: 7},
		{Type: "LimitedGacha", Start: "2026-10-08 11:00:00", End: "2026-10-15 10:59:59", RateUpID: 9},
	}

	start := time.Date(2026, 10, 1, 11, 0, 0, 0, jst)
	got := Resolve(raw, pools, start, jst, nil)
	require.Len(t, got, 1)
	assert.Equal(t, PickupGacha, got[0].Type)
	assert.Equal(t, 7, got[0].RateUpID())

	end := time.Date(2026, 10, 8, 10, 59, 59, 0, jst)
	got = Resolve(raw, pools, end, jst, nil)
	require.Len(t, got, 1)
	assert.Equal(t, PickupGacha, got[0].Type)

	// the same instant expressed in UTC resolves the same way
	got = Resolve(raw, pools, end.UTC(), jst, nil)
	require.Len(t, got, 1)

	got = Resolve(raw, pools, end.Add(time.Second), jst, nil)
	require.Len(t, got, 1)
	assert.Equal(t, LimitedGacha, got[0].Type)

	got = Resolve(raw, pools, start.Add(-time.Second), jst, nil)
	assert.Empty(t, got)
}

func TestResolveFiltersAndLogs(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	pools := testPools(t)
	now := time.Date(2026, 10, 3, 12, 0, 0, 0, jst)
	raw := []Raw{
		{Type: "NormalGacha", Start: "2020-01-01 00:00:00", End: "2099-01-01 00:00:00", RateUpID: 7},
		{Type: "PickupGacha", Start: "2026-10-01 11:00:00", End: "2026-10-08 10:59:59", RateUpID: 7, Legacy: true},
		{Type: "MysteryGacha", Start: "2026-10-01 11:00:00", End: "2026-10-08 10:59:59"},
		{Type: "PickupGacha", Start: "", End: "2026-10-08 10:59:59", RateUpID: 7},
		{Type: "PickupGacha", Start: "2026-10-01 11:00:00", End: "next tuesday", RateUpID: 7},
		{Type: "LimitedGacha", Start: "2026-10-01T11:00:00+09:00", End: "2026-10-08T10:59:59+09:00", RateUpID: 404},
		{Type: "FesGacha", Start: "1790900000", End: "1791900000000"},
	}

	got := Resolve(raw, pools, now, jst, zap.New(core))
	require.Len(t, got, 3)

	assert.Equal(t, NormalGacha, got[0].Type)
	assert.Nil(t, got[0].RateUp, "normal banners never carry a rate-up")

	assert.Equal(t, LimitedGacha, got[1].Type)
	assert.Nil(t, got[1].RateUp)
	assert.Equal(t, "Special", got[1].Label())

	assert.Equal(t, FesGacha, got[2].Type)

	assert.Equal(t, 1, logs.FilterMessage("skip banner with unknown type").Len())
	assert.Equal(t, 1, logs.FilterMessage("skip banner with bad start time").Len())
	assert.Equal(t, 1, logs.FilterMessage("skip banner with bad end time").Len())
	missing := logs.FilterMessage("rate-up character not in catalog, banner kept as plain pool").All()
	require.Len(t, missing, 1)
	assert.Equal(t, int64(404), missing[0].ContextMap()["rateup_id"])
}

func TestResolveIsDeterministic(t *testing.T) {
	pools := testPools(t)
	now := time.Date(2026, 10, 3, 12, 0, 0, 0, jst)
	raw := []Raw{
		{Type: "NormalGacha", Start: "2020-01-01 00:00:00", End: "2099-01-01 00:00:00"},
		{Type: "PickupGacha", Start: "2026-10-01 11:00:00", End: "2026-10-08 10:59:59", RateUpID: 7},
		{Type: "LimitedGacha", Start: "2026-10-01 11:00:00", End: "2026-10-08 10:59:59", RateUpID: 9},
	}
	a := Resolve(raw, pools, now, jst, nil)
	b := Resolve(raw, pools, now, jst, nil)
	assert.Equal(t, a, b)
	assert.Equal(t, []string{"Standard", "Hoshino", "Wakamo"}, []string{a[0].Label(), a[1].Label(), a[2].Label()})
}

func TestParseTime(t *testing.T) {
	got, err := ParseTime("2026-10-01 11:00", jst)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 10, 1, 2, 0, 0, 0, time.UTC)))

	got, err = ParseTime("2026-10-01T11:00:00Z", jst)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 10, 1, 11, 0, 0, 0, time.UTC)))

	got, err = ParseTime("1790900000", jst)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Unix(1790900000, 0)))

	got, err = ParseTime("1790900000123", jst)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.UnixMilli(1790900000123)))

	for _, s := range []string{"   ", "20261001", "0", "17909000001"} {
		_, err = ParseTime(s, jst)
		assert.ErrorIs(t, err, ErrBadTime, s)
	}
}

func TestChanged(t *testing.T) {
	hoshino := &catalog.Character{ID: 7}
	other := &catalog.Character{ID: 9}

	prev := Lineup{{Type: PickupGacha, RateUp: hoshino}}.Keys()
	assert.False(t, Changed(prev, Lineup{{Type: PickupGacha, RateUp: hoshino}}.Keys()))
	assert.True(t, Changed(prev, Lineup{{Type: PickupGacha, RateUp: other}}.Keys()))
	assert.True(t, Changed(prev, Lineup{{Type: LimitedGacha, RateUp: hoshino}}.Keys()))
	assert.True(t, Changed(prev, Lineup{}.Keys()))
	assert.True(t, Changed(prev, Lineup{{Type: PickupGacha, RateUp: hoshino}, {Type: NormalGacha}}.Keys()))
	assert.False(t, Changed(KeySet{}, Lineup(nil).Keys()))

	// order is not part of the identity
	a := Lineup{{Type: NormalGacha}, {Type: PickupGacha, RateUp: hoshino}}
	b := Lineup{{Type: PickupGacha, RateUp: hoshino}, {Type: NormalGacha}}
	assert.False(t, Changed(a.Keys(), b.Keys()))
}

func TestLineupAt(t *testing.T) {
	l := Lineup{{Type: NormalGacha}}
	_, ok := l.At(-1)
	assert.False(t, ok)
	_, ok = l.At(1)
	assert.False(t, ok)
	a, ok := l.At(0)
	require.True(t, ok)
	assert.Equal(t, NormalGacha, a.Type)
}
