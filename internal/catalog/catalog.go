package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateCharacter = errors.New("character appears in more than one bucket")
	ErrUnknownRegion      = errors.New("unknown region")
)

// Region is a game server with its own release schedule and localized names.
type Region string

const (
	Global Region = "global"
	Japan  Region = "japan"
)

// Regions lists every supported region in a stable order.
func Regions() []Region { return []Region{Global, Japan} }

// ParseRegion accepts the region names used by the feed and the API.
func ParseRegion(s string) (Region, error) {
	switch Region(s) {
	case Global, Japan:
		return Region(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRegion, s)
}

// Rarity is the star tier of a character.
type Rarity int

const (
	R Rarity = iota + 1
	SR
	SSR
)

func (r Rarity) String() string {
	switch r {
	case R:
		return "R"
	case SR:
		return "SR"
	case SSR:
		return "SSR"
	}
	return fmt.Sprintf("Rarity(%d)", int(r))
}

// Limited tells whether a character is in the permanent pool or only on special banners.
type Limited int

const (
	Permanent Limited = iota
	LimitedNormal
	LimitedFestival
)

func (l Limited) String() string {
	switch l {
	case Permanent:
		return "Permanent"
	case LimitedNormal:
		return "LimitedNormal"
	case LimitedFestival:
		return "LimitedFestival"
	}
	return fmt.Sprintf("Limited(%d)", int(l))
}

// Character is one drawable unit. Name is already localized for its region.
type Character struct {
	ID      int
	Name    string
	Rarity  Rarity
	Limited Limited
}

// Bucket is a disjoint slice of the catalog.
type Bucket int

const (
	BucketR Bucket = iota
	BucketSR
	BucketSSR
	BucketLimitedNormal
	BucketLimitedFes
	numBuckets
)

func (b Bucket) String() string {
	switch b {
	case BucketR:
		return "R"
	case BucketSR:
		return "SR"
	case BucketSSR:
		return "SSR"
	case BucketLimitedNormal:
		return "Limited_Normal"
	case BucketLimitedFes:
		return "Limited_Fes"
	}
	return fmt.Sprintf("Bucket(%d)", int(b))
}

// BucketOf returns where a character belongs. Limited R and SR characters have no bucket.
func BucketOf(c Character) (Bucket, bool) {
	switch {
	case c.Limited == Permanent && c.Rarity == R:
		return BucketR, true
	case c.Limited == Permanent && c.Rarity == SR:
		return BucketSR, true
	case c.Limited == Permanent && c.Rarity == SSR:
		return BucketSSR, true
	case c.Limited == LimitedNormal && c.Rarity == SSR:
		return BucketLimitedNormal, true
	case c.Limited == LimitedFestival && c.Rarity == SSR:
		return BucketLimitedFes, true
	}
	return 0, false
}

// Pools is the read-only catalog of one region. It is rebuilt wholesale on refresh
// and shared between concurrent draws; callers must not modify returned slices.
type Pools struct {
	Region  Region
	buckets Buckets
	byID    map[int]Character
}

// Build partitions chars into buckets. Characters that fit no bucket are returned in
// skipped; a character id seen twice is an error.
func Build(region Region, chars []Character) (p *Pools, skipped []Character, err error) {
	p = &Pools{Region: region, byID: make(map[int]Character, len(chars))}
	for _, c := range chars {
		b, ok := BucketOf(c)
		if !ok {
			skipped = append(skipped, c)
			continue
		}
		if _, dup := p.byID[c.ID]; dup {
			return nil, nil, fmt.Errorf("%w: id %d in %s", ErrDuplicateCharacter, c.ID, region)
		}
		p.byID[c.ID] = c
		p.buckets[b] = append(p.buckets[b], c)
	}
	return p, skipped, nil
}

// Bucket returns the characters of one bucket.
func (p *Pools) Bucket(b Bucket) []Character {
	if p == nil || b < 0 || b >= numBuckets {
		return nil
	}
	return p.buckets[b]
}

// Lookup finds a character by id in any bucket.
func (p *Pools) Lookup(id int) (Character, bool) {
	if p == nil {
		return Character{}, false
	}
	c, ok := p.byID[id]
	return c, ok
}

// Len is the number of characters across all buckets.
func (p *Pools) Len() int {
	if p == nil {
		return 0
	}
	return len(p.byID)
}

// Buckets holds one slice per Bucket.
type Buckets [numBuckets][]Character

// Without returns a copy of cs minus the character with the given id.
func Without(cs []Character, id int) []Character {
	out := make([]Character, 0, len(cs))
	for _, c := range cs {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

// Clone copies every bucket so a draw can filter without touching the shared catalog.
func (p *Pools) Clone() Buckets {
	var out Buckets
	if p == nil {
		return out
	}
	for i, cs := range p.buckets {
		out[i] = append([]Character(nil), cs...)
	}
	return out
}
