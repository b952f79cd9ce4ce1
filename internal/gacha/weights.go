package gacha

import (
	"math"

	"github.com/xtding233/gacha-backend/internal/banner"
	"github.com/xtding233/gacha-backend/internal/catalog"
)

const (
	RateUpShare     = 0.7 // three-star share of a banner's own rate-up
	LimitedSSRTotal = 3.0
	FesSSRTotal     = 6.0
	FesOtherShare   = 0.9 // split evenly among the other festival characters

	weightEpsilon = 1e-5
)

// Weights holds one percentage per category, indexed by Category.
type Weights [numCategories]float64

// BaseWeights is the standard pool: R 78.5, SR 18.5, SSR 3.0.
func BaseWeights() Weights {
	var w Weights
	w[CategoryR] = 78.5
	w[CategorySR] = 18.5
	w[CategorySSR] = 3.0
	return w
}

// PoolSizes are the sub-pool sizes the limited and festival splits depend on,
// counted after the rate-up has been removed from its origin bucket.
type PoolSizes struct {
	Permanent         int
	ConcurrentLimited int
	FesOther          int
}

// Adjust returns the weights for a banner type before the ten-pull guarantee
// and normalization.
func Adjust(typ banner.Type, rateUp *catalog.Character, sizes PoolSizes) Weights {
	w := BaseWeights()
	switch typ {
	case banner.PickupGacha:
		if rateUp != nil && rateUp.Rarity == catalog.SSR {
			w[CategorySSR] -= RateUpShare
			w[CategoryPickup] += RateUpShare
		}
	case banner.LimitedGacha:
		w[CategoryPickup] = RateUpShare
		off := LimitedSSRTotal - RateUpShare
		total := sizes.Permanent + sizes.ConcurrentLimited
		if sizes.ConcurrentLimited > 0 && total > 0 {
			w[CategorySSR] = float64(sizes.Permanent) / float64(total) * off
			w[CategoryLimitedOther] = float64(sizes.ConcurrentLimited) / float64(total) * off
		} else {
			w[CategorySSR] = off
			w[CategoryLimitedOther] = 0
		}
	case banner.FesGacha:
		w[CategoryFesPickup] = RateUpShare
		if sizes.FesOther > 0 {
			w[CategoryFesOther] = FesOtherShare
		}
		w[CategorySSR] = FesSSRTotal - RateUpShare - w[CategoryFesOther]
	}
	return w
}

// GuaranteeSR moves the whole R weight onto SR.
func (w *Weights) GuaranteeSR() {
	w[CategorySR] += w[CategoryR]
	w[CategoryR] = 0
}

// Sum adds the positive weights.
func (w Weights) Sum() float64 {
	var sum float64
	for _, v := range w {
		if v > 0 && !math.IsInf(v, 1) {
			sum += v
		}
	}
	return sum
}

// Normalize zeroes invalid weights and rescales the rest to sum to 100.
// If nothing positive is left, R gets 100.
func (w *Weights) Normalize() {
	for c, v := range w {
		if !(v > 0) || math.IsInf(v, 1) {
			w[c] = 0
		}
	}
	sum := w.Sum()
	if sum <= 0 {
		*w = Weights{}
		w[CategoryR] = 100
		return
	}
	if math.Abs(sum-100) > weightEpsilon {
		f := 100 / sum
		for c := range w {
			w[c] *= f
		}
	}
}

// Sample picks a category in proportion to the positive weights.
func (w Weights) Sample(rng RandomSource) Category {
	total := w.Sum()
	if total <= 0 {
		return CategoryR
	}
	x := rng.Float64() * total
	last := CategoryR
	for c, v := range w {
		if v <= 0 {
			continue
		}
		last = Category(c)
		x -= v
		if x < 0 {
			return last
		}
	}
	return last
}
