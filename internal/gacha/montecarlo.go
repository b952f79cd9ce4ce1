package gacha

import (
	"math"
	"sort"

	"github.com/xtding233/gacha-backend/internal/banner"
	"github.com/xtding233/gacha-backend/internal/catalog"
)

// SimParams describes one simulation run.
type SimParams struct {
	Choice int // banner index; out of range means the standard pool
	Count  int // draws per session, 1 or 10
	Trials int // number of sessions
}

// Stats summarizes integer samples.
type Stats struct {
	Mean   float64 `json:"mean"`
	Var    float64 `json:"var"`
	StdDev float64 `json:"stddev"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P99    float64 `json:"p99"`
	// Optional: raw samples if caller needs histograms/exports
	Samples []int `json:"-"`
}

// SimReport is the observed outcome of a simulation.
type SimReport struct {
	Draws      int                  `json:"draws"`
	Categories map[Category]float64 `json:"categories"` // percent of draws
	Tags       map[Tag]float64      `json:"tags"`       // percent of draws
	Failed     int                  `json:"failed"`
	// draws between consecutive SSR results, counting the SSR draw itself
	UntilSSR Stats `json:"until_ssr"`
}

// calcStats computes mean/variance/percentiles for integer samples.
func calcStats(xs []int) Stats {
	n := len(xs)
	if n == 0 {
		return Stats{}
	}
	var sum float64
	for _, v := range xs {
		sum += float64(v)
	}
	mean := sum / float64(n)

	// variance (population)
	var acc float64
	for _, v := range xs {
		d := float64(v) - mean
		acc += d * d
	}
	variance := acc / float64(n)

	cp := append([]int(nil), xs...)
	sort.Ints(cp)
	percentile := func(p float64) float64 {
		if n == 1 || p <= 0 {
			return float64(cp[0])
		}
		if p >= 1 {
			return float64(cp[n-1])
		}
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i+1 >= n {
			return float64(cp[i])
		}
		return float64(cp[i])*(1-f) + float64(cp[i+1])*f
	}

	return Stats{
		Mean:    mean,
		Var:     variance,
		StdDev:  math.Sqrt(variance),
		P50:     percentile(0.50),
		P90:     percentile(0.90),
		P99:     percentile(0.99),
		Samples: xs,
	}
}

// RunMonteCarlo repeats sessions against one banner and reports observed rates.
func (e *Engine) RunMonteCarlo(pools *catalog.Pools, lineup banner.Lineup, p SimParams, rng RandomSource) (SimReport, error) {
	if p.Count != SingleDraw && p.Count != TenDraw {
		return SimReport{}, ErrInvalidCount
	}
	rep := SimReport{Categories: make(map[Category]float64), Tags: make(map[Tag]float64)}
	if p.Trials <= 0 {
		return rep, nil
	}
	if rng == nil {
		rng = DefaultRNG()
	}

	plan := NewPlan(pools, lineup, p.Choice)
	cats := make(map[Category]int)
	tags := make(map[Tag]int)
	var gaps []int
	since := 0
	for t := 0; t < p.Trials; t++ {
		for i := 0; i < p.Count; i++ {
			r := e.DrawPlan(&plan, p.Count == TenDraw && i == TenDraw-1, rng)
			rep.Draws++
			if r.Failed() {
				rep.Failed++
			}
			cats[r.Category]++
			tags[r.Tag]++
			since++
			if r.Category.ThreeStar() {
				gaps = append(gaps, since)
				since = 0
			}
		}
	}

	for c, n := range cats {
		rep.Categories[c] = float64(n) / float64(rep.Draws) * 100
	}
	for tg, n := range tags {
		rep.Tags[tg] = float64(n) / float64(rep.Draws) * 100
	}
	rep.UntilSSR = calcStats(gaps)
	return rep, nil
}
