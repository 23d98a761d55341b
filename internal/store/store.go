package store

import (
	"context"
	"errors"

	"venuetour/internal/model"
)

// Store is the route persistence boundary used by the API server.
// Writes carry the full route; stops and geometry travel with it.
type Store interface {
	Save(ctx context.Context, r model.Route) error
	Get(ctx context.Context, id string) (model.Route, error)
	Update(ctx context.Context, r model.Route) error
	Delete(ctx context.Context, id string) error

	Share(ctx context.Context, id, recipientID string) (model.Route, error)
	ListOwned(ctx context.Context, ownerID string) ([]model.Route, error)
	ListSharedWith(ctx context.Context, userID string) ([]model.Route, error)

	Ping(ctx context.Context) error
}

var ErrNotFound = errors.New("not found")
