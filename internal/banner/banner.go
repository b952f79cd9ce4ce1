package banner

import (
	"fmt"

	"github.com/xtding233/gacha-backend/internal/catalog"
)

// Type is the category of a banner. It decides which weight rules apply.
type Type int

const (
	NormalGacha Type = iota
	PickupGacha
	LimitedGacha
	FesGacha
)

var typeNames = map[Type]string{
	NormalGacha:  "NormalGacha",
	PickupGacha:  "PickupGacha",
	LimitedGacha: "LimitedGacha",
	FesGacha:     "FesGacha",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType maps a feed category name to a Type. Unknown names report false.
func ParseType(s string) (Type, bool) {
	for t, name := range typeNames {
		if name == s {
			return t, true
		}
	}
	return 0, false
}

// Raw is one banner record as ingested from the feed.
// Start and End are read in the region's fixed-offset zone unless they carry their own offset.
type Raw struct {
	Type     string
	Start    string
	End      string
	RateUpID int // 0 means none
	Legacy   bool
}

// Active is a banner whose sale window contains the resolve instant.
type Active struct {
	Type   Type
	RateUp *catalog.Character
}

// RateUpID returns the featured character id, or 0.
func (a Active) RateUpID() int {
	if a.RateUp == nil {
		return 0
	}
	return a.RateUp.ID
}

// Label is the user-facing banner name. History rows are keyed by it.
func (a Active) Label() string {
	switch {
	case a.Type == NormalGacha:
		return "Standard"
	case a.RateUp != nil:
		return a.RateUp.Name
	default:
		return "Special"
	}
}

// Lineup is the ordered list of active banners of one region.
// The index of a banner is the choice a user selects.
type Lineup []Active

// At returns the banner at choice, or false when choice selects no banner.
func (l Lineup) At(choice int) (Active, bool) {
	if choice < 0 || choice >= len(l) {
		return Active{}, false
	}
	return l[choice], true
}
