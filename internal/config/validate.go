package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"github.com/xtding233/gacha-backend/internal/catalog"
	"github.com/xtding233/gacha-backend/internal/gacha"
	"github.com/xtding233/gacha-backend/internal/history"
	"github.com/xtding233/gacha-backend/internal/logging"
)

var ErrInvalidConfig = errors.New("invalid config")

// ParseOffset turns "+09:00", "-0530", "Z" or "UTC" into a fixed zone.
func ParseOffset(s string) (*time.Location, error) {
	switch strings.ToUpper(s) {
	case "", "Z", "UTC":
		return time.UTC, nil
	}
	for _, layout := range []string{"-07:00", "-0700", "-07"} {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		_, off := t.Zone()
		return time.FixedZone("UTC"+t.Format("-07:00"), off), nil
	}
	return nil, fmt.Errorf("utc offset %q: want +hh:mm", s)
}

// ValidateRaw checks semantic constraints of a merged RawConfig and reports
// every violation at once.
func ValidateRaw(cfg RawConfig) error {
	var errs []string

	switch cfg.Server.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		errs = append(errs, "server.mode must be one of: debug, release, test")
	}
	if cfg.Server.Addr == "" {
		errs = append(errs, "server.addr is required")
	}

	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, "log.level must be one of: debug, info, warn, error")
	}
	switch cfg.Log.Format {
	case "", logging.FormatJSON, logging.FormatConsole:
	default:
		errs = append(errs, "log.format must be json or console")
	}

	if cfg.Feed.Characters == "" {
		errs = append(errs, "feed.characters is required")
	}
	if cfg.Feed.Banners == "" {
		errs = append(errs, "feed.banners is required")
	}
	if cfg.Feed.Debounce != "" {
		if d, err := time.ParseDuration(cfg.Feed.Debounce); err != nil || d < 0 {
			errs = append(errs, "feed.debounce must be a non-negative duration")
		}
	}

	if cfg.Refresh.Schedule == "" {
		errs = append(errs, "refresh.schedule is required")
	} else if _, err := cron.ParseStandard(cfg.Refresh.Schedule); err != nil {
		errs = append(errs, fmt.Sprintf("refresh.schedule: %v", err))
	}
	if d, err := time.ParseDuration(cfg.Refresh.Timeout); err != nil || d <= 0 {
		errs = append(errs, "refresh.timeout must be a positive duration")
	}

	for name, rc := range cfg.Regions {
		if _, err := catalog.ParseRegion(name); err != nil {
			errs = append(errs, fmt.Sprintf("regions.%s: unknown region", name))
			continue
		}
		if _, err := ParseOffset(rc.UTCOffset); err != nil {
			errs = append(errs, fmt.Sprintf("regions.%s.utc_offset: %v", name, err))
		}
	}

	if h := cfg.History; h != nil {
		switch h.Backend {
		case "", history.BackendMemory:
		case history.BackendSQLite:
			if h.SQLitePath == "" {
				errs = append(errs, "history.sqlite_path is required for backend=sqlite")
			}
		case history.BackendRedis:
			if h.RedisAddr == "" {
				errs = append(errs, "history.redis_addr is required for backend=redis")
			}
			if h.RedisDB != nil && *h.RedisDB < 0 {
				errs = append(errs, "history.redis_db must be >= 0")
			}
		default:
			errs = append(errs, "history.backend must be one of: memory, sqlite, redis")
		}
	}

	if _, err := gacha.ParseFesOtherTag(cfg.Display.FesOtherTag); err != nil {
		errs = append(errs, "display.fes_other_tag must be SSR or Fes_Other")
	}

	if cfg.Tokens != nil {
		if cfg.Tokens.PerDraw != nil && *cfg.Tokens.PerDraw < 0 {
			errs = append(errs, "tokens.per_draw must be >= 0")
		}
		if cfg.Tokens.PerTenDraw != nil && *cfg.Tokens.PerTenDraw < 0 {
			errs = append(errs, "tokens.per_ten_draw must be >= 0")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}
