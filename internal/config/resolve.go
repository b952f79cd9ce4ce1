package config

import (
	"time"

	"github.com/xtding233/gacha-backend/internal/catalog"
	"github.com/xtding233/gacha-backend/internal/feed"
	"github.com/xtding233/gacha-backend/internal/gacha"
	"github.com/xtding233/gacha-backend/internal/history"
	"github.com/xtding233/gacha-backend/internal/logging"
	"github.com/xtding233/gacha-backend/internal/token"
)

// Resolve validates raw and turns it into runtime values. Regions missing from
// raw read banner times in UTC.
func Resolve(raw RawConfig) (Config, error) {
	if err := ValidateRaw(raw); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Addr:    raw.Server.Addr,
		GinMode: raw.Server.Mode,
		Log: logging.Config{
			Level:  raw.Log.Level,
			Format: raw.Log.Format,
		},
		Feed: feed.FileSource{
			CharactersPath: raw.Feed.Characters,
			BannersPath:    raw.Feed.Banners,
		},
		RefreshSchedule: raw.Refresh.Schedule,
		Locations:       make(map[catalog.Region]*time.Location, len(catalog.Regions())),
		Token:           token.Pyroxene,
	}
	if raw.Log.Development != nil {
		cfg.Log.Development = *raw.Log.Development
	}
	if raw.Feed.Watch != nil {
		cfg.Watch = *raw.Feed.Watch
	}
	if raw.Feed.Debounce != "" {
		cfg.WatchDebounce, _ = time.ParseDuration(raw.Feed.Debounce)
	}
	cfg.RefreshTimeout, _ = time.ParseDuration(raw.Refresh.Timeout)

	for _, r := range catalog.Regions() {
		cfg.Locations[r] = time.UTC
	}
	for name, rc := range raw.Regions {
		r, _ := catalog.ParseRegion(name)
		cfg.Locations[r], _ = ParseOffset(rc.UTCOffset)
	}

	if h := raw.History; h != nil {
		cfg.History = history.Config{
			Backend:       h.Backend,
			SQLitePath:    h.SQLitePath,
			RedisAddr:     h.RedisAddr,
			RedisPassword: h.RedisPassword,
			RedisPrefix:   h.RedisPrefix,
		}
		if h.RedisDB != nil {
			cfg.History.RedisDB = *h.RedisDB
		}
	}

	cfg.Tags.FesOther, _ = gacha.ParseFesOtherTag(raw.Display.FesOtherTag)

	if t := raw.Tokens; t != nil {
		if t.Name != "" {
			cfg.Token.Name = t.Name
		}
		if t.PerDraw != nil {
			cfg.Token.PerDraw = *t.PerDraw
		}
		if t.PerTenDraw != nil {
			cfg.Token.PerTenDraw = *t.PerTenDraw
		}
	}
	return cfg, nil
}
