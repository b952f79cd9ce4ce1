package gacha

import (
	"go.uber.org/zap"

	"github.com/xtding233/gacha-backend/internal/banner"
	"github.com/xtding233/gacha-backend/internal/catalog"
)

// ErrorName is the display name of the sentinel result.
const ErrorName = "Data error"

// Result is one drawn character.
type Result struct {
	CharacterID int            `json:"id"`
	Name        string         `json:"name"`
	Category    Category       `json:"category"`
	Tag         Tag            `json:"tag"`
	Region      catalog.Region `json:"region"`
}

// Failed reports whether r is the sentinel of a draw with an empty catalog.
func (r Result) Failed() bool { return r.Category == CategoryError }

// Plan is everything a draw needs from one banner choice: the per-category sub-pools
// (local copies) and the weights before the ten-pull guarantee.
type Plan struct {
	Region  catalog.Region
	Type    banner.Type
	RateUp  *catalog.Character
	Pools   [numCategories][]catalog.Character
	Weights Weights
}

// NewPlan builds the plan for choice within lineup. A choice outside the lineup
// draws from the standard pool.
func NewPlan(pools *catalog.Pools, lineup banner.Lineup, choice int) Plan {
	p := Plan{Type: banner.NormalGacha}
	if pools != nil {
		p.Region = pools.Region
	}
	b := pools.Clone()

	selected, ok := lineup.At(choice)
	if ok {
		p.Type = selected.Type
		p.RateUp = selected.RateUp
	}

	// A rate-up with its own category leaves its origin bucket so it is not counted twice.
	featured := p.RateUp != nil &&
		(p.Type == banner.FesGacha ||
			(p.RateUp.Rarity == catalog.SSR && (p.Type == banner.PickupGacha || p.Type == banner.LimitedGacha)))
	if featured {
		for i := range b {
			b[i] = catalog.Without(b[i], p.RateUp.ID)
		}
	}

	p.Pools[CategoryR] = b[catalog.BucketR]
	p.Pools[CategorySR] = b[catalog.BucketSR]
	p.Pools[CategorySSR] = b[catalog.BucketSSR]

	switch p.Type {
	case banner.PickupGacha, banner.LimitedGacha:
		if featured {
			p.Pools[CategoryPickup] = []catalog.Character{*p.RateUp}
		}
	case banner.FesGacha:
		if featured {
			p.Pools[CategoryFesPickup] = []catalog.Character{*p.RateUp}
		}
		p.Pools[CategoryFesOther] = b[catalog.BucketLimitedFes]
	}
	if p.Type == banner.LimitedGacha {
		p.Pools[CategoryLimitedOther] = concurrentLimited(b[catalog.BucketLimitedNormal], lineup, choice)
	}

	p.Weights = Adjust(p.Type, p.RateUp, PoolSizes{
		Permanent:         len(p.Pools[CategorySSR]),
		ConcurrentLimited: len(p.Pools[CategoryLimitedOther]),
		FesOther:          len(p.Pools[CategoryFesOther]),
	})
	return p
}

// concurrentLimited keeps the characters of limited that are featured on another
// active limited banner.
func concurrentLimited(limited []catalog.Character, lineup banner.Lineup, choice int) []catalog.Character {
	others := make(map[int]struct{})
	for i, a := range lineup {
		if i == choice || a.Type != banner.LimitedGacha || a.RateUp == nil {
			continue
		}
		others[a.RateUp.ID] = struct{}{}
	}
	var out []catalog.Character
	for _, c := range limited {
		if _, ok := others[c.ID]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Engine turns plans into results. It holds no per-draw state and is safe for
// concurrent use as long as each caller's RandomSource is.
type Engine struct {
	tags TagMap
	log  *zap.Logger
}

func NewEngine(tags TagMap, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{tags: tags, log: log.Named("gacha")}
}

// Draw performs one draw against the banner at choice.
func (e *Engine) Draw(pools *catalog.Pools, lineup banner.Lineup, choice int, lastPull bool, rng RandomSource) Result {
	plan := NewPlan(pools, lineup, choice)
	return e.DrawPlan(&plan, lastPull, rng)
}

// DrawPlan performs one draw from a prepared plan. It never fails: an empty sub-pool
// falls back to R, and an empty R pool yields the CategoryError sentinel.
func (e *Engine) DrawPlan(plan *Plan, lastPull bool, rng RandomSource) Result {
	if rng == nil {
		rng = DefaultRNG()
	}
	w := plan.Weights
	if lastPull {
		w.GuaranteeSR()
	}
	w.Normalize()
	if err := validateWeights(w); err != nil {
		e.log.Error("weight table rejected, drawing from R", zap.Any("weights", w), zap.Error(err))
		w = Weights{}
		w[CategoryR] = 100
	}

	cat := w.Sample(rng)
	var pool []catalog.Character
	if cat.valid() {
		pool = plan.Pools[cat]
	}
	if len(pool) == 0 {
		if cat != CategoryR {
			e.log.Debug("empty sub-pool, falling back to R",
				zap.String("region", string(plan.Region)), zap.Stringer("category", cat))
		}
		cat = CategoryR
		pool = plan.Pools[CategoryR]
	}
	if len(pool) == 0 {
		e.log.Warn("R pool empty, returning error result", zap.String("region", string(plan.Region)))
		return Result{Name: ErrorName, Category: CategoryError, Tag: TagError, Region: plan.Region}
	}

	c := pool[pick(rng, len(pool))]
	return Result{
		CharacterID: c.ID,
		Name:        c.Name,
		Category:    cat,
		Tag:         e.tags.Tag(cat, c.Rarity),
		Region:      plan.Region,
	}
}
