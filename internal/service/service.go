// Package service owns the published snapshot of every region and runs draws,
// refreshes and history queries against it.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xtding233/gacha-backend/internal/banner"
	"github.com/xtding233/gacha-backend/internal/catalog"
	"github.com/xtding233/gacha-backend/internal/feed"
	"github.com/xtding233/gacha-backend/internal/gacha"
	"github.com/xtding233/gacha-backend/internal/history"
	"github.com/xtding233/gacha-backend/internal/metrics"
	"github.com/xtding233/gacha-backend/internal/token"
)

var (
	ErrNoSnapshot   = errors.New("no snapshot published yet")
	ErrBannerChoice = errors.New("banner choice out of range")
	ErrMissingUser  = errors.New("user id is required")
	ErrTrials       = errors.New("trials out of range")
)

// StandardChoice selects the standard pool regardless of the lineup.
const StandardChoice = -1

const (
	standardLabel = "Standard"
	MaxTrials     = 100000
)

// RegionState is the immutable catalog and lineup of one region.
type RegionState struct {
	Pools  *catalog.Pools
	Lineup banner.Lineup
}

// Snapshot is what draws read. It is replaced as a whole on refresh.
type Snapshot struct {
	BuiltAt time.Time
	Regions map[catalog.Region]*RegionState
}

// RegionReport describes what one refresh did to a region.
type RegionReport struct {
	Characters int  `json:"characters"`
	Banners    int  `json:"banners"`
	Changed    bool `json:"changed"`
	Purged     bool `json:"purged"`
}

// RefreshReport is the outcome of a published refresh.
type RefreshReport struct {
	BuiltAt time.Time                       `json:"built_at"`
	Regions map[catalog.Region]RegionReport `json:"regions"`
}

// Options wires the service. Source and History are required.
type Options struct {
	Source    feed.Source
	History   history.Store
	Engine    *gacha.Engine
	Locations map[catalog.Region]*time.Location
	Token     token.Token
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Clock     func() time.Time
	RNG       func() gacha.RandomSource
}

type Service struct {
	source    feed.Source
	history   history.Store
	engine    *gacha.Engine
	locations map[catalog.Region]*time.Location
	token     token.Token
	metrics   *metrics.Metrics
	log       *zap.Logger
	now       func() time.Time
	rng       func() gacha.RandomSource

	current  atomic.Pointer[Snapshot]
	group    singleflight.Group
	// Draws hold the read side from snapshot load to history write; refresh holds
	// the write side while it purges and publishes.
	commitMu sync.RWMutex
}

func New(opts Options) (*Service, error) {
	if opts.Source == nil {
		return nil, errors.New("service: feed source is required")
	}
	if opts.History == nil {
		return nil, errors.New("service: history store is required")
	}
	s := &Service{
		source:    opts.Source,
		history:   opts.History,
		engine:    opts.Engine,
		locations: opts.Locations,
		token:     opts.Token,
		metrics:   opts.Metrics,
		log:       opts.Logger,
		now:       opts.Clock,
		rng:       opts.RNG,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	s.log = s.log.Named("service")
	if s.engine == nil {
		s.engine = gacha.NewEngine(gacha.TagMap{}, s.log)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.rng == nil {
		s.rng = gacha.DefaultRNG
	}
	if s.token.Name == "" {
		s.token = token.Pyroxene
	}
	return s, nil
}

// Snapshot returns the published snapshot, or nil before the first refresh.
func (s *Service) Snapshot() *Snapshot { return s.current.Load() }

func (s *Service) location(r catalog.Region) *time.Location {
	if loc, ok := s.locations[r]; ok && loc != nil {
		return loc
	}
	return time.UTC
}

// Refresh loads the feed, rebuilds every region and publishes the result.
// Concurrent calls share one run.
func (s *Service) Refresh(ctx context.Context) (*RefreshReport, error) {
	v, err, shared := s.group.Do("refresh", func() (interface{}, error) {
		start := time.Now()
		rep, err := s.refresh(ctx)
		s.metrics.RecordRefresh(err == nil, time.Since(start))
		return rep, err
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.Debug("joined running refresh")
	}
	return v.(*RefreshReport), nil
}

func (s *Service) refresh(ctx context.Context) (*RefreshReport, error) {
	bundle, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load feed: %w", err)
	}

	now := s.now()
	next := &Snapshot{BuiltAt: now, Regions: make(map[catalog.Region]*RegionState, len(catalog.Regions()))}
	for _, r := range catalog.Regions() {
		pools, err := bundle.Catalog(r, s.log)
		if err != nil {
			return nil, fmt.Errorf("build %s catalog: %w", r, err)
		}
		lineup := banner.Resolve(bundle.RawBanners(r, s.log), pools, now, s.location(r), s.log)
		next.Regions[r] = &RegionState{Pools: pools, Lineup: lineup}
	}

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	prev := s.current.Load()
	rep := &RefreshReport{BuiltAt: now, Regions: make(map[catalog.Region]RegionReport, len(next.Regions))}
	for _, r := range catalog.Regions() {
		st := next.Regions[r]
		rr := RegionReport{Characters: st.Pools.Len(), Banners: len(st.Lineup)}
		if prev != nil {
			if old, ok := prev.Regions[r]; ok {
				rr.Changed = banner.Changed(old.Lineup.Keys(), st.Lineup.Keys())
			}
		}
		if rr.Changed {
			if err := s.history.PurgeHistory(ctx, r); err != nil {
				s.metrics.RecordPurge(string(r), false)
				return nil, fmt.Errorf("purge %s history: %w", r, err)
			}
			s.metrics.RecordPurge(string(r), true)
			rr.Purged = true
			s.log.Info("active banners changed, history purged", zap.String("region", string(r)))
		}
		rep.Regions[r] = rr
	}

	s.current.Store(next)
	for r, st := range next.Regions {
		s.metrics.SetActiveBanners(string(r), len(st.Lineup))
	}
	s.log.Info("snapshot published", zap.Time("built_at", now))
	return rep, nil
}

func (s *Service) region(snap *Snapshot, r catalog.Region) (*RegionState, error) {
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	st, ok := snap.Regions[r]
	if !ok {
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownRegion, r)
	}
	return st, nil
}

// label validates choice against lineup and names the banner history is kept under.
func label(lineup banner.Lineup, choice int) (string, error) {
	if choice == StandardChoice {
		return standardLabel, nil
	}
	a, ok := lineup.At(choice)
	if !ok {
		return "", fmt.Errorf("%w: %d of %d", ErrBannerChoice, choice, len(lineup))
	}
	return a.Label(), nil
}

// BannerView is an active banner as shown to users.
type BannerView struct {
	Index      int    `json:"index"`
	Type       string `json:"type"`
	Label      string `json:"label"`
	RateUpID   int    `json:"rateup_id,omitempty"`
	RateUpName string `json:"rateup_name,omitempty"`
}

// Banners lists the active banners of region in choice order.
func (s *Service) Banners(r catalog.Region) ([]BannerView, error) {
	st, err := s.region(s.current.Load(), r)
	if err != nil {
		return nil, err
	}
	out := make([]BannerView, 0, len(st.Lineup))
	for i, a := range st.Lineup {
		v := BannerView{Index: i, Type: a.Type.String(), Label: a.Label(), RateUpID: a.RateUpID()}
		if a.RateUp != nil {
			v.RateUpName = a.RateUp.Name
		}
		out = append(out, v)
	}
	return out, nil
}

// DrawRequest is one session requested by a user.
type DrawRequest struct {
	UserID string         `json:"user_id"`
	Region catalog.Region `json:"region"`
	Banner int            `json:"banner"`
	Count  int            `json:"count"`
}

// DrawResponse carries the session results in draw order.
type DrawResponse struct {
	Region   catalog.Region `json:"region"`
	Banner   string         `json:"banner"`
	Results  []gacha.Result `json:"results"`
	Cost     int            `json:"cost"`
	Currency string         `json:"currency"`
}

// Draw runs a session and records the results. A failed history write is logged
// and does not fail the draw.
func (s *Service) Draw(ctx context.Context, req DrawRequest) (*DrawResponse, error) {
	if req.UserID == "" {
		return nil, ErrMissingUser
	}

	s.commitMu.RLock()
	defer s.commitMu.RUnlock()

	st, err := s.region(s.current.Load(), req.Region)
	if err != nil {
		return nil, err
	}
	lbl, err := label(st.Lineup, req.Banner)
	if err != nil {
		return nil, err
	}
	results, err := s.engine.DrawMany(st.Pools, st.Lineup, req.Banner, req.Count, s.rng())
	if err != nil {
		return nil, err
	}

	s.metrics.RecordSession(string(req.Region), strconv.Itoa(req.Count))
	for _, r := range results {
		s.metrics.RecordDraw(string(req.Region), string(r.Tag))
	}
	if err := s.history.RecordDraws(ctx, req.UserID, req.Region, lbl, results); err != nil {
		s.metrics.RecordHistoryError(string(req.Region))
		s.log.Warn("record draws failed",
			zap.String("region", string(req.Region)), zap.String("banner", lbl), zap.Error(err))
	}

	return &DrawResponse{
		Region:   req.Region,
		Banner:   lbl,
		Results:  results,
		Cost:     s.token.TokensForDraws(len(results)),
		Currency: s.token.Name,
	}, nil
}

// History summarizes a user's draws on one banner label. An empty label means
// the standard pool.
func (s *Service) History(ctx context.Context, userID string, r catalog.Region, bannerLabel string) (history.Summary, error) {
	if userID == "" {
		return history.Summary{}, ErrMissingUser
	}
	if _, err := catalog.ParseRegion(string(r)); err != nil {
		return history.Summary{}, err
	}
	if bannerLabel == "" {
		bannerLabel = standardLabel
	}
	recs, err := s.history.UserHistory(ctx, userID, r, bannerLabel)
	if err != nil {
		return history.Summary{}, fmt.Errorf("read history: %w", err)
	}
	return history.Summarize(bannerLabel, recs, s.token), nil
}

// Simulate runs trials sessions against a banner without recording anything.
func (s *Service) Simulate(r catalog.Region, choice, count, trials int) (gacha.SimReport, error) {
	if trials <= 0 || trials > MaxTrials {
		return gacha.SimReport{}, fmt.Errorf("%w: %d, want 1..%d", ErrTrials, trials, MaxTrials)
	}
	st, err := s.region(s.current.Load(), r)
	if err != nil {
		return gacha.SimReport{}, err
	}
	if _, err := label(st.Lineup, choice); err != nil {
		return gacha.SimReport{}, err
	}
	return s.engine.RunMonteCarlo(st.Pools, st.Lineup, gacha.SimParams{Choice: choice, Count: count, Trials: trials}, s.rng())
}
