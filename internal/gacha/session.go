package gacha

import (
	"errors"
	"fmt"

	"github.com/xtding233/gacha-backend/internal/banner"
	"github.com/xtding233/gacha-backend/internal/catalog"
)

const (
	SingleDraw = 1
	TenDraw    = 10
)

var ErrInvalidCount = errors.New("draw count must be 1 or 10")

// DrawMany runs a session of count draws against one banner and catalog snapshot.
// Only the tenth draw of a ten-pull carries the SR guarantee.
func (e *Engine) DrawMany(pools *catalog.Pools, lineup banner.Lineup, choice, count int, rng RandomSource) ([]Result, error) {
	if count != SingleDraw && count != TenDraw {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCount, count)
	}
	plan := NewPlan(pools, lineup, choice)
	out := make([]Result, count)
	for i := range out {
		out[i] = e.DrawPlan(&plan, count == TenDraw && i == TenDraw-1, rng)
	}
	return out, nil
}
