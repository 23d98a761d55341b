// Package catalog is the boundary to the venue catalog collaborator.
// The engine only needs radius queries and id lookups; indexing and
// search internals live on the other side of this interface.
package catalog

import (
	"context"
	"errors"

	"venuetour/internal/geo"
	"venuetour/internal/model"
)

// ErrUnavailable wraps catalog transport failures. Catalog failure is
// fatal to the request that triggered it.
var ErrUnavailable = errors.New("venue catalog unavailable")

// Catalog answers venue queries for the engine.
type Catalog interface {
	// Within returns venues whose great-circle distance to center is
	// at most radiusM meters.
	Within(ctx context.Context, center geo.Point, radiusM float64) ([]model.Venue, error)
	// ByIDs resolves venues by id, preserving input order. Unknown ids
	// are skipped, not errors; the caller decides whether absence matters.
	ByIDs(ctx context.Context, ids []string) ([]model.Venue, error)
	// Upsert inserts or replaces a venue record.
	Upsert(ctx context.Context, v model.Venue) error
	// Ping verifies the catalog is reachable.
	Ping(ctx context.Context) error
}
