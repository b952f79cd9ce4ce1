package banner

// Key identifies a banner across refreshes. Banner names come from rate-up characters
// and are not stable, so only the type and rate-up id take part.
type Key struct {
	Type     Type
	RateUpID int
}

// KeySet is a set of banner keys.
type KeySet map[Key]struct{}

// Keys returns the set of keys of l.
func (l Lineup) Keys() KeySet {
	s := make(KeySet, len(l))
	for _, a := range l {
		s[Key{Type: a.Type, RateUpID: a.RateUpID()}] = struct{}{}
	}
	return s
}

// Changed reports whether two active sets differ. Any difference invalidates all
// history of the region.
func Changed(prev, cur KeySet) bool {
	if len(prev) != len(cur) {
		return true
	}
	for k := range prev {
		if _, ok := cur[k]; !ok {
			return true
		}
	}
	return false
}
