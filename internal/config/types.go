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

// RawConfig is the YAML file as written. Pointer fields tell "unset" apart from
// zero so that layered files can be merged.
type RawConfig struct {
	Server  ServerConfig            `yaml:"server"`
	Log     LogConfig               `yaml:"log"`
	Feed    FeedConfig              `yaml:"feed"`
	Refresh RefreshConfig           `yaml:"refresh"`
	Regions map[string]RegionConfig `yaml:"regions,omitempty"`
	History *HistoryConfig          `yaml:"history,omitempty"`
	Display DisplayConfig           `yaml:"display"`
	Tokens  *TokenConfig            `yaml:"tokens,omitempty"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	Mode string `yaml:"mode"` // gin mode: debug | release | test
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	Development *bool  `yaml:"development,omitempty"`
}

type FeedConfig struct {
	Characters string `yaml:"characters"`
	Banners    string `yaml:"banners"`
	Watch      *bool  `yaml:"watch,omitempty"`
	Debounce   string `yaml:"debounce"`
}

type RefreshConfig struct {
	Schedule string `yaml:"schedule"` // cron spec, "@every 6h" style descriptors allowed
	Timeout  string `yaml:"timeout"`
}

type RegionConfig struct {
	UTCOffset string `yaml:"utc_offset"` // "+09:00"
}

type HistoryConfig struct {
	Backend       string `yaml:"backend"`
	SQLitePath    string `yaml:"sqlite_path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       *int   `yaml:"redis_db,omitempty"`
	RedisPrefix   string `yaml:"redis_prefix"`
}

type DisplayConfig struct {
	FesOtherTag string `yaml:"fes_other_tag"` // SSR | Fes_Other
}

type TokenConfig struct {
	Name       string `yaml:"name"`
	PerDraw    *int   `yaml:"per_draw"`
	PerTenDraw *int   `yaml:"per_ten_draw"`
}

// Config is the normalized form the server runs with.
type Config struct {
	Addr    string
	GinMode string

	Log logging.Config

	Feed          feed.FileSource
	Watch         bool
	WatchDebounce time.Duration

	RefreshSchedule string
	RefreshTimeout  time.Duration

	Locations map[catalog.Region]*time.Location

	History history.Config
	Tags    gacha.TagMap
	Token   token.Token
}
