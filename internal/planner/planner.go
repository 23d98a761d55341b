package planner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"venuetour/internal/catalog"
	"venuetour/internal/criteria"
	"venuetour/internal/geo"
	"venuetour/internal/model"
)

// Scoring weights for discretionary candidates. Matches count double so
// criteria fit dominates rating and proximity.
const (
	weightMatches   = 2.0
	weightRating    = 1.0
	weightProximity = 1.5
)

// Planner turns generation options into a draft route: select candidates
// around the anchor, admit the best ones, order them, assign visit times
// and keep dropping discretionary venues until every stop is open at its
// ETA and the tour fits the budget. Geometry is the caller's concern.
type Planner struct {
	Catalog catalog.Catalog

	// SpeedKmh is the assumed point-to-point travel speed.
	SpeedKmh float64
	// TwoOptIterations bounds the 2-opt improvement passes.
	TwoOptIterations int
	// Workers bounds the parallel opening-hours prefilter.
	Workers int
	// Now supplies the default start time; overridable in tests.
	Now func() time.Time

	mu    sync.Mutex
	stats Stats
}

func New(cat catalog.Catalog, speedKmh float64) *Planner {
	return &Planner{
		Catalog:          cat,
		SpeedKmh:         speedKmh,
		TwoOptIterations: 8,
		Workers:          8,
		Now:              time.Now,
	}
}

type candidate struct {
	venue    model.Venue
	required bool
	score    float64
}

// Generate runs the full pipeline and returns a draft route with stops
// and ETAs, or one of the typed failures from errors.go.
func (p *Planner) Generate(ctx context.Context, owner string, opts model.RouteOptions) (*model.Route, error) {
	if err := validateOptions(opts); err != nil {
		p.record(func(s *Stats) { s.Rejected++ })
		return nil, err
	}

	start := p.Now()
	if opts.StartTime != nil {
		start = *opts.StartTime
	}
	dwell := time.Duration(opts.VenueMinutes) * time.Minute
	budget := time.Duration(opts.MaxTourHours * float64(time.Hour))

	resolved, err := criteria.Resolve(opts.Criteria)
	if err != nil {
		p.record(func(s *Stats) { s.Rejected++ })
		return nil, &ValidationError{Msg: err.Error()}
	}

	cands, anchor, err := p.selectCandidates(ctx, opts, resolved)
	if err != nil {
		p.record(func(s *Stats) { s.Failed++ })
		return nil, err
	}
	p.record(func(s *Stats) { s.Candidates += len(cands) })

	selected, err := p.admit(ctx, cands, anchor, opts, start, dwell, budget)
	if err != nil {
		p.record(func(s *Stats) { s.Failed++ })
		return nil, err
	}

	stops, err := p.buildTour(selected, anchor, opts, start, dwell, budget)
	if err != nil {
		p.record(func(s *Stats) { s.Failed++ })
		return nil, err
	}

	now := p.Now().UTC()
	p.record(func(s *Stats) {
		s.Generated++
		s.StopsPlanned += len(stops)
	})
	return &model.Route{
		ID:        uuid.NewString(),
		OwnerID:   owner,
		Stops:     stops,
		State:     model.StateDraft,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func validateOptions(o model.RouteOptions) error {
	switch {
	case o.MaxTourHours <= 0:
		return validationf("maxTourTime must be positive")
	case o.RadiusM <= 0:
		return validationf("radius must be positive")
	case o.MinVenues < 1:
		return validationf("minVenues must be at least 1")
	case o.MaxVenues < o.MinVenues:
		return validationf("maxVenues must be >= minVenues")
	case o.VenueMinutes < 0:
		return validationf("timeAtVenue must not be negative")
	}
	if o.Anchor.SearchCenter == nil && len(o.Anchor.RequiredVenueIDs) == 0 {
		return validationf("anchor needs a searchCenter or at least one required venue")
	}
	if c := o.Anchor.SearchCenter; c != nil {
		if c[0] < -180 || c[0] > 180 || c[1] < -90 || c[1] > 90 {
			return validationf("searchCenter out of range: lon %v lat %v", c[0], c[1])
		}
	}
	return nil
}

// selectCandidates resolves the anchor point, queries the catalog within
// the radius, filters by criteria, and force-includes required venues
// regardless of criteria match.
func (p *Planner) selectCandidates(ctx context.Context, opts model.RouteOptions, resolved criteria.Resolved) ([]candidate, geo.Point, error) {
	var required []model.Venue
	if ids := opts.Anchor.RequiredVenueIDs; len(ids) > 0 {
		got, err := p.Catalog.ByIDs(ctx, ids)
		if err != nil {
			return nil, geo.Point{}, err
		}
		if len(got) != len(ids) {
			found := map[string]bool{}
			for _, v := range got {
				found[v.ID] = true
			}
			for _, id := range ids {
				if !found[id] {
					return nil, geo.Point{}, validationf("required venue %q not found", id)
				}
			}
		}
		required = got
	}

	var anchor geo.Point
	if c := opts.Anchor.SearchCenter; c != nil {
		anchor = geo.Point{Lon: c[0], Lat: c[1]}
	} else {
		pts := make([]geo.Point, len(required))
		for i, v := range required {
			pts[i] = v.Location
		}
		anchor = geo.Centroid(pts)
	}

	within, err := p.Catalog.Within(ctx, anchor, opts.RadiusM)
	if err != nil {
		return nil, geo.Point{}, err
	}

	isRequired := map[string]bool{}
	for _, v := range required {
		isRequired[v.ID] = true
	}

	cands := make([]candidate, 0, len(within)+len(required))
	for _, v := range required {
		cands = append(cands, candidate{venue: v, required: true})
	}
	for _, v := range within {
		if isRequired[v.ID] {
			continue
		}
		if !resolved.Match(v) {
			continue
		}
		c := candidate{venue: v}
		dist := geo.HaversineMeters(anchor, v.Location)
		prox := 1 - dist/opts.RadiusM
		if prox < 0 {
			prox = 0
		}
		c.score = weightMatches*float64(resolved.MatchCount(v)) +
			weightRating*v.Rating +
			weightProximity*prox
		cands = append(cands, c)
	}
	if len(cands) == 0 {
		return nil, geo.Point{}, ErrNoCandidates
	}
	return cands, anchor, nil
}

// admit prefilters discretionary candidates by a coarse opening-hours
// check over the whole window, then keeps required venues plus the
// highest-scoring discretionary ones up to maxVenues.
func (p *Planner) admit(ctx context.Context, cands []candidate, anchor geo.Point, opts model.RouteOptions, start time.Time, dwell time.Duration, budget time.Duration) ([]candidate, error) {
	var required, disc []candidate
	for _, c := range cands {
		if c.required {
			required = append(required, c)
		} else {
			disc = append(disc, c)
		}
	}

	// Opening-hours sampling across all discretionary candidates, bounded
	// by the worker pool. Required venues are never filtered here; if one
	// is closed the tour loop reports it by name.
	workers := p.Workers
	if workers < 1 {
		workers = 1
	}
	feasible := make([]bool, len(disc))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := range disc {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			feasible[i] = disc[i].venue.Hours.FeasibleVisit(start, opts.MaxTourHours)
		}(i)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kept := disc[:0]
	dropped := 0
	for i, c := range disc {
		if feasible[i] {
			kept = append(kept, c)
		} else {
			dropped++
		}
	}
	p.record(func(s *Stats) { s.DroppedClosed += dropped })

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].score != kept[j].score {
			return kept[i].score > kept[j].score
		}
		return kept[i].venue.ID < kept[j].venue.ID
	})

	selected := append([]candidate(nil), required...)
	for _, c := range kept {
		if len(selected) >= opts.MaxVenues {
			break
		}
		selected = append(selected, c)
	}
	if len(selected) < opts.MinVenues {
		return nil, &InsufficientVenuesError{Need: opts.MinVenues, Have: len(selected)}
	}
	if len(selected) > opts.MaxVenues {
		// More required venues than maxVenues allows.
		return nil, validationf("anchor requires %d venues but maxVenues is %d", len(selected), opts.MaxVenues)
	}
	return selected, nil
}

// buildTour orders the selection, assigns ETAs at constant speed, and
// re-verifies opening hours and the time budget, dropping the weakest
// discretionary venue and re-ordering until the tour is admissible.
func (p *Planner) buildTour(selected []candidate, anchor geo.Point, opts model.RouteOptions, start time.Time, dwell time.Duration, budget time.Duration) ([]model.Stop, error) {
	speedMS := p.SpeedKmh * 1000 / 3600
	if speedMS <= 0 {
		return nil, fmt.Errorf("planner: non-positive travel speed %v km/h", p.SpeedKmh)
	}

	// Each pass either returns or drops one venue, so the initial size
	// bounds the number of passes.
	passes := len(selected) + 1
	for attempt := 0; attempt < passes; attempt++ {
		pts := make([]geo.Point, len(selected))
		for i, c := range selected {
			pts[i] = c.venue.Location
		}
		seed := anchor
		if opts.Anchor.SearchCenter == nil {
			// Centroid-anchored: seed from the required venue nearest the
			// centroid so it lands first.
			seed = nearestRequired(selected, anchor)
		}
		order := nearestNeighborOrder(seed, pts)
		order, improved := improve2Opt(pts, order, p.TwoOptIterations)
		p.record(func(s *Stats) { s.TwoOptSwaps += improved })

		stops := make([]model.Stop, len(order))
		etas := make([]time.Time, len(order))
		t := start
		for i, idx := range order {
			if i > 0 {
				prev := selected[order[i-1]].venue.Location
				cur := selected[idx].venue.Location
				travel := time.Duration(geo.HaversineMeters(prev, cur) / speedMS * float64(time.Second))
				t = t.Add(travel + dwell)
			}
			etas[i] = t
			v := selected[idx].venue
			stops[i] = model.Stop{
				VenueID: v.ID,
				Name:    v.Name,
				Lat:     v.Location.Lat,
				Lon:     v.Location.Lon,
				ETA:     t,
			}
		}

		// Opening-hours re-check at the concrete ETAs.
		violation := -1
		for i, idx := range order {
			if !selected[idx].venue.Hours.OpenAt(etas[i]) {
				violation = idx
				break
			}
		}
		if violation >= 0 {
			c := selected[violation]
			if c.required {
				return nil, &InfeasibleWindowError{VenueName: c.venue.Name, At: etaFor(order, etas, violation)}
			}
			if len(selected)-1 < opts.MinVenues {
				return nil, &InfeasibleWindowError{VenueName: c.venue.Name, At: etaFor(order, etas, violation)}
			}
			selected = removeCandidate(selected, violation)
			p.record(func(s *Stats) { s.DroppedClosed++ })
			continue
		}

		// Budget check: elapsed runs through the final dwell.
		elapsed := etas[len(etas)-1].Add(dwell).Sub(start)
		if elapsed > budget {
			drop := lowestDiscretionary(selected)
			if drop < 0 || len(selected)-1 < opts.MinVenues {
				return nil, &TourTooLongError{Elapsed: elapsed, Budget: budget}
			}
			selected = removeCandidate(selected, drop)
			p.record(func(s *Stats) { s.DroppedBudget++ })
			continue
		}
		return stops, nil
	}
	// Unreachable: the pass budget covers one drop per venue plus the
	// final verification. Keep a hard failure rather than a partial route.
	return nil, &TourTooLongError{Elapsed: budget, Budget: budget}
}

func nearestRequired(selected []candidate, centroid geo.Point) geo.Point {
	best := centroid
	bestDist := -1.0
	for _, c := range selected {
		if !c.required {
			continue
		}
		d := geo.HaversineMeters(centroid, c.venue.Location)
		if bestDist < 0 || d < bestDist {
			best = c.venue.Location
			bestDist = d
		}
	}
	return best
}

func etaFor(order []int, etas []time.Time, selIdx int) time.Time {
	for i, idx := range order {
		if idx == selIdx {
			return etas[i]
		}
	}
	return time.Time{}
}

func removeCandidate(cands []candidate, i int) []candidate {
	out := make([]candidate, 0, len(cands)-1)
	out = append(out, cands[:i]...)
	return append(out, cands[i+1:]...)
}

func lowestDiscretionary(cands []candidate) int {
	best := -1
	for i, c := range cands {
		if c.required {
			continue
		}
		if best < 0 || c.score < cands[best].score {
			best = i
		}
	}
	return best
}
