package gacha

import (
	"fmt"

	"github.com/xtding233/gacha-backend/internal/catalog"
)

// Category is one outcome of the first sampling stage. Each maps to a disjoint sub-pool.
type Category int

const (
	CategoryR            Category = iota
	CategorySR                    // permanent SR
	CategorySSR                   // permanent SSR
	CategoryPickup                // the banner's own SSR rate-up (pickup or limited)
	CategoryLimitedOther          // rate-ups of other concurrent limited banners
	CategoryFesPickup             // the festival banner's own rate-up
	CategoryFesOther              // every other festival-limited character
	numCategories

	// CategoryError marks the sentinel result of a draw with no R pool to fall back to.
	CategoryError Category = -1
)

var categoryNames = [numCategories]string{
	CategoryR:            "R",
	CategorySR:           "SR",
	CategorySSR:          "SSR_Perm",
	CategoryPickup:       "SSR_PickUp",
	CategoryLimitedOther: "SSR_Lim_Norm_Other",
	CategoryFesPickup:    "SSR_Fes_PickUp",
	CategoryFesOther:     "SSR_Fes_Other",
}

// Categories lists every drawable category.
func Categories() []Category {
	out := make([]Category, numCategories)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

func (c Category) valid() bool { return c >= 0 && c < numCategories }

func (c Category) String() string {
	if c == CategoryError {
		return "Error"
	}
	if c.valid() {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// ThreeStar reports whether c yields an SSR character.
func (c Category) ThreeStar() bool { return c >= CategorySSR && c < numCategories }

// Tag picks the border and glow art of a result card.
type Tag string

const (
	TagR         Tag = "R"
	TagSR        Tag = "SR"
	TagSSR       Tag = "SSR"
	TagPickupSR  Tag = "Pickup_SR"
	TagPickupSSR Tag = "Pickup_SSR"
	TagPickupFes Tag = "Pickup_Fes"
	TagFesOther  Tag = "Fes_Other"
	TagError     Tag = "Error"
)

// Tier is the rarity a result counts as in a user's history.
// Festival characters outside the rate-up count as TierFes only when tagged Fes_Other.
func (t Tag) Tier() string {
	switch t {
	case TagR:
		return "R"
	case TagSR, TagPickupSR:
		return "SR"
	case TagSSR, TagPickupSSR, TagPickupFes:
		return "SSR"
	case TagFesOther:
		return "Fes"
	}
	return "Error"
}

// Pickup reports whether the card gets the pickup badge.
func (t Tag) Pickup() bool {
	return t == TagPickupSR || t == TagPickupSSR || t == TagPickupFes
}

// TagMap translates categories to display tags. The zero value tags festival
// non-rate-up results as plain SSR.
type TagMap struct {
	FesOther Tag
}

// ParseFesOtherTag validates the configurable tag for CategoryFesOther.
func ParseFesOtherTag(s string) (Tag, error) {
	switch Tag(s) {
	case "", TagSSR:
		return TagSSR, nil
	case TagFesOther:
		return TagFesOther, nil
	}
	return "", fmt.Errorf("fes_other_tag must be %q or %q, got %q", TagSSR, TagFesOther, s)
}

// Tag returns the display tag of a result drawn from cat with the given rarity.
func (m TagMap) Tag(cat Category, rarity catalog.Rarity) Tag {
	switch cat {
	case CategoryR:
		return TagR
	case CategorySR:
		return TagSR
	case CategorySSR, CategoryLimitedOther:
		return TagSSR
	case CategoryPickup:
		if rarity == catalog.SR {
			return TagPickupSR
		}
		return TagPickupSSR
	case CategoryFesPickup:
		return TagPickupFes
	case CategoryFesOther:
		if m.FesOther == "" {
			return TagSSR
		}
		return m.FesOther
	}
	return TagError
}
