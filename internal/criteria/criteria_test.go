package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuetour/internal/model"
)

func f64(v float64) *float64 { return &v }
func b(v bool) *bool         { return &v }

var (
	tapas = model.Venue{
		ID: "v1", Name: "Tapas Bar", Tags: []string{"tapas", "wine"}, Rating: 4.5,
		Menu: []model.MenuItem{
			{Name: "Patatas Bravas", PriceCents: 900, Category: "starter"},
			{Name: "Sangria", PriceCents: 1200, Category: "drink", Special: true},
		},
	}
	diner = model.Venue{
		ID: "v2", Name: "Greasy Spoon", Tags: []string{"breakfast"}, Rating: 3.1,
		Menu: []model.MenuItem{{Name: "Pancakes", PriceCents: 700, Category: "main"}},
	}
)

func TestResolveEmptyMatchesEverything(t *testing.T) {
	r, err := Resolve(nil)
	require.NoError(t, err)
	assert.True(t, r.Match(tapas))
	assert.True(t, r.Match(diner))
	assert.Zero(t, r.MatchCount(tapas))
}

func TestTagDisjunction(t *testing.T) {
	r, err := Resolve([]model.Criterion{
		{Tag: "tapas"},
		{Tag: "breakfast"},
	})
	require.NoError(t, err)
	assert.True(t, r.Match(tapas))
	assert.True(t, r.Match(diner))
	assert.Equal(t, 1, r.MatchCount(tapas))

	none := model.Venue{ID: "v3", Tags: []string{"sushi"}}
	assert.False(t, r.Match(none))
}

func TestMenuItemCriterion(t *testing.T) {
	r, err := Resolve([]model.Criterion{
		{MenuItem: &model.MenuItemCriterion{Category: "drink", Special: b(true)}},
	})
	require.NoError(t, err)
	assert.True(t, r.Match(tapas))
	assert.False(t, r.Match(diner))

	// Price cap excludes the sangria.
	r, err = Resolve([]model.Criterion{
		{MenuItem: &model.MenuItemCriterion{Category: "drink", MaxPriceCents: 1000}},
	})
	require.NoError(t, err)
	assert.False(t, r.Match(tapas))

	// Name match is case-insensitive.
	r, err = Resolve([]model.Criterion{
		{MenuItem: &model.MenuItemCriterion{Name: "pancakes"}},
	})
	require.NoError(t, err)
	assert.True(t, r.Match(diner))
}

func TestMinRatingIsAFloorNotADisjunct(t *testing.T) {
	r, err := Resolve([]model.Criterion{
		{Tag: "breakfast"},
		{MinRating: f64(4.0)},
	})
	require.NoError(t, err)
	// Matches the tag but sits below the floor.
	assert.False(t, r.Match(diner))
	// Clears the floor but matches no tag: rating alone never qualifies.
	assert.False(t, r.Match(tapas))

	// Floor with no disjunctive criteria: pure rating filter.
	r, err = Resolve([]model.Criterion{{MinRating: f64(4.0)}})
	require.NoError(t, err)
	assert.True(t, r.Match(tapas))
	assert.False(t, r.Match(diner))
}

func TestHighestFloorWins(t *testing.T) {
	r, err := Resolve([]model.Criterion{
		{MinRating: f64(3.0)},
		{MinRating: f64(4.6)},
	})
	require.NoError(t, err)
	assert.False(t, r.Match(tapas))
}

func TestResolveRejectsMalformedCriteria(t *testing.T) {
	_, err := Resolve([]model.Criterion{{}})
	assert.Error(t, err)

	_, err = Resolve([]model.Criterion{{Tag: "x", MinRating: f64(3)}})
	assert.Error(t, err)

	_, err = Resolve([]model.Criterion{{MinRating: f64(9)}})
	assert.Error(t, err)
}
