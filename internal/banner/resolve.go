package banner

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xtding233/gacha-backend/internal/catalog"
)

var ErrBadTime = errors.New("unparseable banner time")

// layouts accepted for banner windows, tried in order.
var layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTime reads a feed timestamp. Strings without an offset are taken in loc;
// all-digit strings are unix seconds (10 digits) or milliseconds (13 digits), any
// other digit count is rejected so compact dates are not read as 1970.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrBadTime
	}
	if loc == nil {
		loc = time.UTC
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		switch len(s) {
		case 10:
			return time.Unix(n, 0).In(loc), nil
		case 13:
			return time.UnixMilli(n).In(loc), nil
		}
		return time.Time{}, ErrBadTime
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrBadTime
}

// Resolve returns the banners of raw whose window contains now, in input order.
// Legacy banners, unknown types and banners with bad times are dropped and logged.
// A rate-up id missing from pools is logged and the banner is kept without a rate-up.
func Resolve(raw []Raw, pools *catalog.Pools, now time.Time, loc *time.Location, log *zap.Logger) Lineup {
	if log == nil {
		log = zap.NewNop()
	}
	var region string
	if pools != nil {
		region = string(pools.Region)
	}
	log = log.With(zap.String("region", region))

	out := make(Lineup, 0, len(raw))
	for i, r := range raw {
		if r.Legacy {
			continue
		}
		typ, ok := ParseType(r.Type)
		if !ok {
			log.Warn("skip banner with unknown type", zap.Int("index", i), zap.String("type", r.Type))
			continue
		}
		start, err := ParseTime(r.Start, loc)
		if err != nil {
			log.Warn("skip banner with bad start time", zap.Int("index", i), zap.String("start", r.Start))
			continue
		}
		end, err := ParseTime(r.End, loc)
		if err != nil {
			log.Warn("skip banner with bad end time", zap.Int("index", i), zap.String("end", r.End))
			continue
		}
		if now.Before(start) || now.After(end) {
			continue
		}

		a := Active{Type: typ}
		if typ != NormalGacha && r.RateUpID != 0 {
			if c, ok := pools.Lookup(r.RateUpID); ok {
				a.RateUp = &c
			} else {
				log.Warn("rate-up character not in catalog, banner kept as plain pool",
					zap.Int("index", i), zap.String("type", r.Type), zap.Int("rateup_id", r.RateUpID))
			}
		}
		out = append(out, a)
	}
	return out
}
