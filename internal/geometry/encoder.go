// Package geometry turns an ordered stop sequence into an encoded
// polyline, asking a directions provider for each leg and falling back
// to a straight segment when the provider cannot answer.
package geometry

import (
	"context"
	"time"

	"venuetour/internal/geo"
)

// Directions resolves the travel path for one leg. Implementations must
// be deterministic for identical inputs.
type Directions interface {
	Leg(ctx context.Context, from, to geo.Point) ([]geo.Point, error)
}

// Encoder concatenates per-leg paths in stop order and encodes the
// result. Legs run sequentially so the output is reproducible.
type Encoder struct {
	Directions Directions
	// LegTimeout caps each provider call. Zero means no per-leg cap.
	LegTimeout time.Duration
}

func NewEncoder(d Directions, legTimeout time.Duration) *Encoder {
	return &Encoder{Directions: d, LegTimeout: legTimeout}
}

// Encode returns the polyline for the path through pts and the number of
// legs that fell back to a straight segment. A single point encodes to a
// one-point polyline; fewer points encode to the empty string.
func (e *Encoder) Encode(ctx context.Context, pts []geo.Point) (string, int) {
	if len(pts) == 0 {
		return "", 0
	}
	path := []geo.Point{pts[0]}
	fallbacks := 0
	for i := 0; i+1 < len(pts); i++ {
		leg := e.leg(ctx, pts[i], pts[i+1])
		if leg == nil {
			leg = []geo.Point{pts[i], pts[i+1]}
			fallbacks++
		}
		// Drop the shared joint so consecutive legs do not duplicate it.
		if len(leg) > 0 && samePoint(leg[0], path[len(path)-1]) {
			leg = leg[1:]
		}
		path = append(path, leg...)
	}
	return geo.EncodePolyline(path), fallbacks
}

func (e *Encoder) leg(ctx context.Context, from, to geo.Point) []geo.Point {
	if e.Directions == nil {
		return nil
	}
	if e.LegTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.LegTimeout)
		defer cancel()
	}
	leg, err := e.Directions.Leg(ctx, from, to)
	if err != nil || len(leg) < 2 {
		return nil
	}
	return leg
}

func samePoint(a, b geo.Point) bool {
	const eps = 1e-5 // polyline precision
	return a.Lat-b.Lat < eps && b.Lat-a.Lat < eps && a.Lon-b.Lon < eps && b.Lon-a.Lon < eps
}
