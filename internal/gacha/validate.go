package gacha

import (
	"errors"
	"math"
)

var ErrInvalidWeights = errors.New("invalid weights; must be finite, non-negative and sum to 100")

// validateWeights checks a normalized table before it is sampled.
func validateWeights(w Weights) error {
	for _, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return ErrInvalidWeights
		}
	}
	if math.Abs(w.Sum()-100) > weightEpsilon {
		return ErrInvalidWeights
	}
	return nil
}
