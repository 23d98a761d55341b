package catalog

import (
	"context"
	"sync"

	"venuetour/internal/geo"
	"venuetour/internal/model"
)

// Memory is a mutex-guarded in-process catalog used when no REDIS_URL is
// configured, and by tests. Radius queries are a linear haversine scan,
// which is fine at the venue counts a single city carries.
type Memory struct {
	mu     sync.RWMutex
	venues map[string]model.Venue
}

func NewMemory() *Memory {
	return &Memory{venues: map[string]model.Venue{}}
}

func (m *Memory) Within(ctx context.Context, center geo.Point, radiusM float64) ([]model.Venue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []model.Venue{}
	for _, v := range m.venues {
		if geo.HaversineMeters(center, v.Location) <= radiusM {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *Memory) ByIDs(ctx context.Context, ids []string) ([]model.Venue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Venue, 0, len(ids))
	for _, id := range ids {
		if v, ok := m.venues[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *Memory) Upsert(ctx context.Context, v model.Venue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.venues[v.ID] = v
	return nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }
