package token

// Token defines how much in-game currency a draw costs.

type Token struct {
	Name       string // e.g. "Pyroxene"
	PerDraw    int    // tokens per single draw, e.g. 120
	PerTenDraw int    // optional; if 0 -> equal to 10 * PerDraw
}

// Pyroxene is the default currency of the standard pool.
var Pyroxene = Token{Name: "Pyroxene", PerDraw: 120, PerTenDraw: 1200}

// TokensForDraws returns how many tokens are required for n draws,
// charging full ten-draw batches at the ten-draw price.
func (t Token) TokensForDraws(n int) int {
	if n <= 0 {
		return 0
	}
	if t.PerTenDraw > 0 && n >= 10 {
		tens := n / 10
		rem := n % 10
		return tens*t.PerTenDraw + rem*t.PerDraw
	}
	return n * t.PerDraw
}
