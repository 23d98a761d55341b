// Package criteria turns raw venue filter input into an evaluable
// predicate and a match counter used for candidate scoring.
//
// Tag and menu-item criteria combine disjunctively: a venue qualifies by
// matching any one of them. A minimum-rating criterion is not a disjunct;
// it acts as a floor applied after the disjunctive match, so a top-rated
// venue cannot qualify on rating alone and a low-rated venue cannot
// qualify however well its tags match.
package criteria

import (
	"fmt"
	"strings"

	"venuetour/internal/model"
)

// Resolved is an immutable compiled filter. The zero criteria list
// resolves to a match-everything predicate with zero match counts.
type Resolved struct {
	tags      []string
	items     []model.MenuItemCriterion
	minRating float64
	hasFloor  bool
}

// Resolve validates and compiles a criteria list. Construction is pure;
// the returned value has no side effects and is safe for concurrent use.
func Resolve(cs []model.Criterion) (Resolved, error) {
	var r Resolved
	for i, c := range cs {
		set := 0
		if c.Tag != "" {
			set++
			r.tags = append(r.tags, c.Tag)
		}
		if c.MenuItem != nil {
			set++
			r.items = append(r.items, *c.MenuItem)
		}
		if c.MinRating != nil {
			set++
			if *c.MinRating < 0 || *c.MinRating > 5 {
				return Resolved{}, fmt.Errorf("criterion %d: minRating %.2f outside [0,5]", i, *c.MinRating)
			}
			if !r.hasFloor || *c.MinRating > r.minRating {
				r.minRating = *c.MinRating
				r.hasFloor = true
			}
		}
		if set != 1 {
			return Resolved{}, fmt.Errorf("criterion %d: exactly one of tag, menuItem, minRating must be set", i)
		}
	}
	return r, nil
}

// Match reports whether the venue satisfies the compiled filter.
func (r Resolved) Match(v model.Venue) bool {
	if r.hasFloor && v.Rating < r.minRating {
		return false
	}
	if len(r.tags) == 0 && len(r.items) == 0 {
		return true
	}
	return r.MatchCount(v) > 0
}

// MatchCount returns how many disjunctive criteria the venue satisfies.
// The rating floor does not contribute; it only gates Match.
func (r Resolved) MatchCount(v model.Venue) int {
	n := 0
	for _, tag := range r.tags {
		if v.HasTag(tag) {
			n++
		}
	}
	for _, ic := range r.items {
		if venueHasItem(v, ic) {
			n++
		}
	}
	return n
}

func venueHasItem(v model.Venue, c model.MenuItemCriterion) bool {
	for _, it := range v.Menu {
		if itemMatches(it, c) {
			return true
		}
	}
	return false
}

func itemMatches(it model.MenuItem, c model.MenuItemCriterion) bool {
	if c.Name != "" && !strings.EqualFold(it.Name, c.Name) {
		return false
	}
	if c.MaxPriceCents > 0 && it.PriceCents > c.MaxPriceCents {
		return false
	}
	if c.Special != nil && it.Special != *c.Special {
		return false
	}
	if c.Category != "" && !strings.EqualFold(it.Category, c.Category) {
		return false
	}
	return true
}
