package planner

import "venuetour/internal/geo"

// Ordering heuristics for the final stop sequence. Nearest-neighbor gives
// the initial tour from the anchor; a bounded number of 2-opt passes
// shortens it. This is a heuristic, not exact TSP.

// nearestNeighborOrder returns indices into pts ordered by repeatedly
// picking the unvisited point closest to the last placed one, seeded
// from start.
func nearestNeighborOrder(start geo.Point, pts []geo.Point) []int {
	n := len(pts)
	order := make([]int, 0, n)
	visited := make([]bool, n)
	last := start
	for len(order) < n {
		best := -1
		bestDist := 0.0
		for i := 0; i < n; i++ {
			if visited[i] {
				continue
			}
			d := geo.HaversineMeters(last, pts[i])
			if best == -1 || d < bestDist {
				best = i
				bestDist = d
			}
		}
		visited[best] = true
		order = append(order, best)
		last = pts[best]
	}
	return order
}

// improve2Opt applies bounded 2-opt passes to reduce total path distance.
// The first position stays fixed so the tour keeps starting nearest the
// anchor. Returns the improved order and the number of accepted swaps.
func improve2Opt(pts []geo.Point, order []int, iterations int) ([]int, int) {
	if iterations <= 0 || len(order) < 4 {
		return order, 0
	}
	best := append([]int(nil), order...)
	bestDist := orderDistance(pts, best)
	improvements := 0
	n := len(order)
	for it := 0; it < iterations; it++ {
		improved := false
		for i := 1; i < n-1; i++ {
			for k := i + 1; k < n; k++ {
				cand := twoOptSwap(best, i, k)
				d := orderDistance(pts, cand)
				if d+1e-3 < bestDist {
					best = cand
					bestDist = d
					improved = true
					improvements++
				}
			}
		}
		if !improved {
			break
		}
	}
	return best, improvements
}

// twoOptSwap reverses order[i..k].
func twoOptSwap(order []int, i, k int) []int {
	out := make([]int, len(order))
	copy(out, order[:i])
	pos := i
	for j := k; j >= i; j-- {
		out[pos] = order[j]
		pos++
	}
	copy(out[pos:], order[k+1:])
	return out
}

func orderDistance(pts []geo.Point, order []int) float64 {
	total := 0.0
	for i := 0; i+1 < len(order); i++ {
		total += geo.HaversineMeters(pts[order[i]], pts[order[i+1]])
	}
	return total
}
