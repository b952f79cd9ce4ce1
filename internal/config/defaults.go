package config

import (
	"github.com/gin-gonic/gin"

	"github.com/xtding233/gacha-backend/internal/history"
	"github.com/xtding233/gacha-backend/internal/logging"
	"github.com/xtding233/gacha-backend/internal/token"
)

func ptr[T any](v T) *T { return &v }

// Defaults is the bottom layer every file is merged onto.
func Defaults() RawConfig {
	return RawConfig{
		Server: ServerConfig{Addr: ":8080", Mode: gin.ReleaseMode},
		Log:    LogConfig{Level: "info", Format: logging.FormatJSON, Development: ptr(false)},
		Feed: FeedConfig{
			Characters: "data/characters.yaml",
			Banners:    "data/banners.yaml",
			Watch:      ptr(false),
			Debounce:   "500ms",
		},
		Refresh: RefreshConfig{Schedule: "@every 6h", Timeout: "30s"},
		Regions: map[string]RegionConfig{
			"global": {UTCOffset: "+00:00"},
			"japan":  {UTCOffset: "+09:00"},
		},
		History: &HistoryConfig{Backend: history.BackendMemory, RedisDB: ptr(0)},
		Display: DisplayConfig{FesOtherTag: "SSR"},
		Tokens: &TokenConfig{
			Name:       token.Pyroxene.Name,
			PerDraw:    ptr(token.Pyroxene.PerDraw),
			PerTenDraw: ptr(token.Pyroxene.PerTenDraw),
		},
	}
}
