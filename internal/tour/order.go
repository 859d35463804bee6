package tour

import (
	"sort"

	"github.com/researchatlas/engine/pkg/core"
)

// OrderEntries returns the tour ordering for a point set: entries whose
// term appears in the lexicon sort by lexicon position (the lexicon lists
// terms most recent first), entries with unknown terms sort alphabetically
// by term after all known ones. Ties break by name, then researcher. The
// input is not modified.
func OrderEntries(points []core.GeoPoint, lexicon []string) []core.GeoPoint {
	rank := make(map[string]int, len(lexicon))
	for i, term := range lexicon {
		if _, ok := rank[term]; !ok {
			rank[term] = i
		}
	}

	out := make([]core.GeoPoint, len(points))
	copy(out, points)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		ra, aKnown := rank[a.Term]
		rb, bKnown := rank[b.Term]
		switch {
		case aKnown && bKnown:
			if ra != rb {
				return ra < rb
			}
		case aKnown:
			return true
		case bKnown:
			return false
		default:
			if a.Term != b.Term {
				return a.Term < b.Term
			}
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Researcher < b.Researcher
	})

	return out
}
