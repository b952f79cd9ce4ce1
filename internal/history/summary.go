package history

import "github.com/xtding233/gacha-backend/internal/token"

// Summary is what a user sees for one banner.
type Summary struct {
	Banner   string   `json:"banner"`
	Total    int      `json:"total"`
	SSR      int      `json:"ssr"`
	SR       int      `json:"sr"`
	R        int      `json:"r"`
	Fes      int      `json:"fes,omitempty"`
	SSRRate  float64  `json:"ssr_rate"` // percent of three-star pulls, Fes included
	Spent    int      `json:"spent"`
	Currency string   `json:"currency"`
	SSRPulls []Record `json:"ssr_pulls"` // three-star rows, in the order given
}

// Summarize counts recs by tier. recs are expected newest first.
func Summarize(label string, recs []Record, tok token.Token) Summary {
	s := Summary{Banner: label, Total: len(recs), Currency: tok.Name, SSRPulls: []Record{}}
	for _, r := range recs {
		switch r.Tier {
		case "SSR":
			s.SSR++
			s.SSRPulls = append(s.SSRPulls, r)
		case "Fes":
			s.Fes++
			s.SSRPulls = append(s.SSRPulls, r)
		case "SR":
			s.SR++
		case "R":
			s.R++
		}
	}
	if s.Total > 0 {
		s.SSRRate = float64(s.SSR+s.Fes) / float64(s.Total) * 100
	}
	s.Spent = tok.TokensForDraws(s.Total)
	return s
}
