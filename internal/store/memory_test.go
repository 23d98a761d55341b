package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuetour/internal/model"
)

func sampleRoute(id, owner string, created time.Time) model.Route {
	return model.Route{
		ID:      id,
		OwnerID: owner,
		Name:    "tour " + id,
		Stops: []model.Stop{
			{VenueID: "v1", Name: "first", ETA: created},
		},
		Geometry:  "abc",
		State:     model.StateSaved,
		Version:   1,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestMemorySaveGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Now().UTC()

	_, err := m.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	r := sampleRoute("r1", "alice", now)
	require.NoError(t, m.Save(ctx, r))

	got, err := m.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "tour r1", got.Name)

	got.Name = "renamed"
	got.Version++
	require.NoError(t, m.Update(ctx, got))
	got, err = m.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, 2, got.Version)

	require.ErrorIs(t, m.Update(ctx, sampleRoute("ghost", "alice", now)), ErrNotFound)

	require.NoError(t, m.Delete(ctx, "r1"))
	require.ErrorIs(t, m.Delete(ctx, "r1"), ErrNotFound)
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Save(ctx, sampleRoute("r1", "alice", time.Now())))

	got, err := m.Get(ctx, "r1")
	require.NoError(t, err)
	got.Stops[0].Name = "mutated"

	again, err := m.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "first", again.Stops[0].Name)
}

func TestMemoryShareAndListings(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, m.Save(ctx, sampleRoute("old", "alice", base)))
	require.NoError(t, m.Save(ctx, sampleRoute("new", "alice", base.Add(time.Hour))))
	require.NoError(t, m.Save(ctx, sampleRoute("other", "bob", base)))

	owned, err := m.ListOwned(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, "new", owned[0].ID)
	assert.Equal(t, "old", owned[1].ID)

	shared, err := m.ListSharedWith(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, shared)

	r, err := m.Share(ctx, "new", "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, r.SharedWith)

	// Sharing twice stays a single entry.
	r, err = m.Share(ctx, "new", "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, r.SharedWith)

	shared, err = m.ListSharedWith(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, "new", shared[0].ID)

	_, err = m.Share(ctx, "ghost", "bob")
	require.ErrorIs(t, err, ErrNotFound)
}
