// Package editor applies manual changes to an existing route: reorder,
// insert, remove. Edits never re-run candidate selection or ordering
// heuristics; the caller's order is authoritative. Time assignment and
// feasibility are re-checked, and a stop that no longer fits fails the
// edit rather than being dropped silently.
package editor

import (
	"context"
	"fmt"
	"time"

	"venuetour/internal/catalog"
	"venuetour/internal/geo"
	"venuetour/internal/model"
	"venuetour/internal/planner"
)

type Editor struct {
	Catalog catalog.Catalog

	SpeedKmh            float64
	DefaultMaxTourHours float64
	DefaultVenueMinutes int
	// MaxVenues caps how far inserts can grow a route. Saved routes do
	// not carry their generation options, so the cap is configured.
	MaxVenues int
	Now       func() time.Time
}

func New(cat catalog.Catalog, speedKmh, maxTourHours float64, venueMinutes, maxVenues int) *Editor {
	return &Editor{
		Catalog:             cat,
		SpeedKmh:            speedKmh,
		DefaultMaxTourHours: maxTourHours,
		DefaultVenueMinutes: venueMinutes,
		MaxVenues:           maxVenues,
		Now:                 time.Now,
	}
}

// Reorder rebuilds the stops in the requested order. The requested IDs
// must be a permutation of the route's current venues.
func (e *Editor) Reorder(ctx context.Context, route *model.Route, req model.EditRequest) ([]model.Stop, error) {
	current := route.VenueIDs()
	if !samePermutation(current, req.VenueIDs) {
		return nil, &planner.ValidationError{Msg: "venueIds must be a permutation of the route's venues"}
	}
	return e.Assign(ctx, req.VenueIDs, e.start(route, req.StartTime), e.budget(req.MaxTourHours), e.dwell(req.VenueMinutes))
}

// Insert appends the venue to the end of the route.
func (e *Editor) Insert(ctx context.Context, route *model.Route, req model.InsertRequest) ([]model.Stop, error) {
	for _, id := range route.VenueIDs() {
		if id == req.VenueID {
			return nil, &planner.ValidationError{Msg: "venue already in route"}
		}
	}
	ids := append(route.VenueIDs(), req.VenueID)
	if e.MaxVenues > 0 && len(ids) > e.MaxVenues {
		return nil, &planner.ValidationError{Msg: fmt.Sprintf("route cannot exceed %d venues", e.MaxVenues)}
	}
	return e.Assign(ctx, ids, e.start(route, req.StartTime), e.budget(req.MaxTourHours), e.dwell(req.VenueMinutes))
}

// Remove deletes the venue from the route. The route must keep at least
// one stop.
func (e *Editor) Remove(ctx context.Context, route *model.Route, venueID string, req model.EditRequest) ([]model.Stop, error) {
	ids := make([]string, 0, len(route.Stops))
	found := false
	for _, id := range route.VenueIDs() {
		if id == venueID {
			found = true
			continue
		}
		ids = append(ids, id)
	}
	if !found {
		return nil, &planner.ValidationError{Msg: "venue not in route"}
	}
	if len(ids) == 0 {
		return nil, &planner.ValidationError{Msg: "route must keep at least one venue"}
	}
	return e.Assign(ctx, ids, e.start(route, req.StartTime), e.budget(req.MaxTourHours), e.dwell(req.VenueMinutes))
}

// Assign walks the IDs in order, computes ETAs at constant speed, and
// verifies opening hours and the budget.
func (e *Editor) Assign(ctx context.Context, ids []string, start time.Time, budget, dwell time.Duration) ([]model.Stop, error) {
	venues, err := e.Catalog.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(venues) != len(ids) {
		found := map[string]bool{}
		for _, v := range venues {
			found[v.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return nil, &planner.ValidationError{Msg: "venue " + id + " not found"}
			}
		}
	}

	speedMS := e.SpeedKmh * 1000 / 3600
	stops := make([]model.Stop, len(venues))
	t := start
	for i, v := range venues {
		if i > 0 {
			d := geo.HaversineMeters(venues[i-1].Location, v.Location)
			t = t.Add(time.Duration(d/speedMS*float64(time.Second)) + dwell)
		}
		if !v.Hours.OpenAt(t) {
			return nil, &planner.InfeasibleWindowError{VenueName: v.Name, At: t}
		}
		stops[i] = model.Stop{VenueID: v.ID, Name: v.Name, Lat: v.Location.Lat, Lon: v.Location.Lon, ETA: t}
	}
	if elapsed := t.Add(dwell).Sub(start); elapsed > budget {
		return nil, &planner.TourTooLongError{Elapsed: elapsed, Budget: budget}
	}
	return stops, nil
}

// start defaults to the route's current first ETA so an edit without an
// explicit start keeps the original departure.
func (e *Editor) start(route *model.Route, override *time.Time) time.Time {
	if override != nil {
		return *override
	}
	if len(route.Stops) > 0 {
		return route.Stops[0].ETA
	}
	return e.Now()
}

func (e *Editor) budget(hours float64) time.Duration {
	if hours <= 0 {
		hours = e.DefaultMaxTourHours
	}
	return time.Duration(hours * float64(time.Hour))
}

func (e *Editor) dwell(minutes int) time.Duration {
	if minutes <= 0 {
		minutes = e.DefaultVenueMinutes
	}
	return time.Duration(minutes) * time.Minute
}

func samePermutation(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := map[string]int{}
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		seen[id]--
		if seen[id] < 0 {
			return false
		}
	}
	return true
}
