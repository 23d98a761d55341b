package store

import (
	"context"
	"sort"
	"sync"

	"venuetour/internal/model"
)

// Memory keeps routes in process, guarded by a mutex. It backs tests and
// runs the API when no DATABASE_URL is configured.
type Memory struct {
	mu     sync.RWMutex
	routes map[string]model.Route
}

func NewMemory() *Memory {
	return &Memory{routes: map[string]model.Route{}}
}

func (m *Memory) Save(ctx context.Context, r model.Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[r.ID] = cloneRoute(r)
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (model.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.routes[id]
	if !ok {
		return model.Route{}, ErrNotFound
	}
	return cloneRoute(r), nil
}

func (m *Memory) Update(ctx context.Context, r model.Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.routes[r.ID]; !ok {
		return ErrNotFound
	}
	m.routes[r.ID] = cloneRoute(r)
	return nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.routes[id]; !ok {
		return ErrNotFound
	}
	delete(m.routes, id)
	return nil
}

func (m *Memory) Share(ctx context.Context, id, recipientID string) (model.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.routes[id]
	if !ok {
		return model.Route{}, ErrNotFound
	}
	for _, u := range r.SharedWith {
		if u == recipientID {
			return cloneRoute(r), nil
		}
	}
	r.SharedWith = append(append([]string{}, r.SharedWith...), recipientID)
	m.routes[id] = r
	return cloneRoute(r), nil
}

func (m *Memory) ListOwned(ctx context.Context, ownerID string) ([]model.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []model.Route{}
	for _, r := range m.routes {
		if r.OwnerID == ownerID {
			out = append(out, cloneRoute(r))
		}
	}
	sortRoutes(out)
	return out, nil
}

func (m *Memory) ListSharedWith(ctx context.Context, userID string) ([]model.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []model.Route{}
	for _, r := range m.routes {
		for _, u := range r.SharedWith {
			if u == userID {
				out = append(out, cloneRoute(r))
				break
			}
		}
	}
	sortRoutes(out)
	return out, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

// Newest first, ID as tiebreak so listings are stable.
func sortRoutes(rs []model.Route) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].CreatedAt.After(rs[j].CreatedAt)
		}
		return rs[i].ID < rs[j].ID
	})
}

func cloneRoute(r model.Route) model.Route {
	out := r
	out.Stops = append([]model.Stop{}, r.Stops...)
	out.SharedWith = append([]string{}, r.SharedWith...)
	return out
}
