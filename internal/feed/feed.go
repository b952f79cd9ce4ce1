// Package feed reads the character and banner data the draw engine consumes.
// It replaces a network fetch with local YAML or JSON files in the same shape.
package feed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/xtding233/gacha-backend/internal/banner"
	"github.com/xtding233/gacha-backend/internal/catalog"
)

var ErrEmptyFeed = errors.New("feed has no characters")

// Names holds the localized names of a character.
type Names struct {
	JP string `yaml:"jp" json:"jp"`
	TW string `yaml:"tw" json:"tw"`
	EN string `yaml:"en" json:"en"`
}

// CharacterRecord is one character as published by the data feed.
type CharacterRecord struct {
	ID        int   `yaml:"id" json:"id"`
	Names     Names `yaml:"names" json:"names"`
	StarGrade int   `yaml:"star_grade" json:"star_grade"`
	IsLimited int   `yaml:"is_limited" json:"is_limited"` // 0 permanent, 1 limited, 2 event, 3 festival
	InGlobal  bool  `yaml:"in_global" json:"in_global"`
}

// BannerRecord is one banner as published by the data feed. A rate-up is given
// either by id or by the names used in its region.
type BannerRecord struct {
	GachaType string   `yaml:"gacha_type" json:"gacha_type"`
	StartAt   string   `yaml:"start_at" json:"start_at"`
	EndAt     string   `yaml:"end_at" json:"end_at"`
	RateUpID  int      `yaml:"rateup_id" json:"rateup_id"`
	RateUps   []string `yaml:"rateups" json:"rateups"`
	Legacy    bool     `yaml:"legacy" json:"legacy"`
}

// Bundle is one complete feed download.
type Bundle struct {
	Characters []CharacterRecord                 `yaml:"characters"`
	Banners    map[catalog.Region][]BannerRecord `yaml:"banners"`
}

// Source produces a fresh Bundle on every call.
type Source interface {
	Load(ctx context.Context) (*Bundle, error)
}

// FileSource reads the bundle from a characters file and a banners file.
type FileSource struct {
	CharactersPath string
	BannersPath    string
}

func (f FileSource) Load(ctx context.Context) (*Bundle, error) {
	var chars struct {
		Characters []CharacterRecord `yaml:"characters"`
	}
	var banners struct {
		Banners map[catalog.Region][]BannerRecord `yaml:"banners"`
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return readYAML(ctx, f.CharactersPath, &chars) })
	g.Go(func() error { return readYAML(ctx, f.BannersPath, &banners) })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(chars.Characters) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFeed, f.CharactersPath)
	}
	return &Bundle{Characters: chars.Characters, Banners: banners.Banners}, nil
}

func readYAML(ctx context.Context, path string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read feed %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode feed %s: %w", path, err)
	}
	return nil
}

func rarityOf(starGrade int) (catalog.Rarity, bool) {
	switch starGrade {
	case 1:
		return catalog.R, true
	case 2:
		return catalog.SR, true
	case 3:
		return catalog.SSR, true
	}
	return 0, false
}

func limitedOf(isLimited int) (catalog.Limited, bool) {
	switch isLimited {
	case 0:
		return catalog.Permanent, true
	case 1:
		return catalog.LimitedNormal, true
	case 3:
		return catalog.LimitedFestival, true
	}
	return 0, false
}

// displayName picks the name shown in region. Global falls back from TW to EN to JP.
func displayName(n Names, region catalog.Region) string {
	if region == catalog.Japan {
		return n.JP
	}
	for _, s := range []string{n.TW, n.EN, n.JP} {
		if s != "" {
			return s
		}
	}
	return ""
}

// lookupName is the name a region's banner feed uses for rate-ups.
func lookupName(n Names, region catalog.Region) string {
	if region == catalog.Japan {
		return n.JP
	}
	return n.EN
}

// Catalog builds the pools of one region. Records the engine has no bucket for
// (unknown grades, event or limited low-rarity units) are logged and left out.
func (b *Bundle) Catalog(region catalog.Region, log *zap.Logger) (*catalog.Pools, error) {
	if log == nil {
		log = zap.NewNop()
	}
	chars := make([]catalog.Character, 0, len(b.Characters))
	for _, rec := range b.Characters {
		if region == catalog.Global && !rec.InGlobal {
			continue
		}
		rarity, okR := rarityOf(rec.StarGrade)
		limited, okL := limitedOf(rec.IsLimited)
		if !okR || !okL {
			log.Debug("skip character without pool",
				zap.String("region", string(region)), zap.Int("id", rec.ID),
				zap.Int("star_grade", rec.StarGrade), zap.Int("is_limited", rec.IsLimited))
			continue
		}
		chars = append(chars, catalog.Character{
			ID:      rec.ID,
			Name:    displayName(rec.Names, region),
			Rarity:  rarity,
			Limited: limited,
		})
	}
	pools, skipped, err := catalog.Build(region, chars)
	if err != nil {
		return nil, err
	}
	for _, c := range skipped {
		log.Debug("skip character without pool",
			zap.String("region", string(region)), zap.Int("id", c.ID),
			zap.Stringer("rarity", c.Rarity), zap.Stringer("limited", c.Limited))
	}
	return pools, nil
}

// RawBanners converts the region's banner records, resolving rate-up names to ids.
// Only the first resolvable name is used.
func (b *Bundle) RawBanners(region catalog.Region, log *zap.Logger) []banner.Raw {
	if log == nil {
		log = zap.NewNop()
	}
	recs := b.Banners[region]
	if len(recs) == 0 {
		return nil
	}
	byName := make(map[string]int, len(b.Characters))
	for _, c := range b.Characters {
		if n := lookupName(c.Names, region); n != "" {
			byName[n] = c.ID
		}
	}

	out := make([]banner.Raw, 0, len(recs))
	for i, rec := range recs {
		raw := banner.Raw{
			Type:     rec.GachaType,
			Start:    rec.StartAt,
			End:      rec.EndAt,
			RateUpID: rec.RateUpID,
			Legacy:   rec.Legacy,
		}
		if raw.RateUpID == 0 {
			for _, name := range rec.RateUps {
				if id, ok := byName[name]; ok {
					raw.RateUpID = id
					break
				}
			}
			if raw.RateUpID == 0 && len(rec.RateUps) > 0 {
				log.Warn("rate-up names not found in feed",
					zap.String("region", string(region)), zap.Int("index", i), zap.Strings("rateups", rec.RateUps))
			}
		}
		out = append(out, raw)
	}
	return out
}
