// Package routing implements per-send multi-hop path selection under
// a mix of strategies, with diversity accounting across a run
// (spec.md §4.4, C5).
package routing

import (
	"errors"

	"meshveil/pkg/rng"
	"meshveil/pkg/socialgraph"
)

// ErrNoPath is returned when no path exists from src to dst within
// the hop budget; the caller must treat this as a skip, not a fatal
// error (spec.md §7).
var ErrNoPath = errors.New("routing: no path available within hop budget")

const (
	shortestPathProb = 0.40
	nearShortestProb = 0.35
	extendedProb     = 0.20
	// remaining probability mass (0.05) falls through to the random walk.
)

// SelectPath computes a path from src to dst under at most Hmax hops,
// recording usage in tracker for future diversity scoring.
func SelectPath(g *socialgraph.Graph, src, dst uint32, hmax int, tracker *DiversityTracker, r *rng.Lehmer) ([]uint32, error) {
	maxNodes := hmax + 1
	shortest := bfsShortestPath(g, src, dst, maxNodes)
	if shortest == nil {
		return nil, ErrNoPath
	}
	shortestLen := len(shortest)

	draw := r.Float64()
	var path []uint32

	switch {
	case draw < shortestPathProb:
		path = shortest

	case draw < shortestPathProb+nearShortestProb:
		maxLen := shortestLen + 1 + r.Intn(2)
		if maxLen > maxNodes {
			maxLen = maxNodes
		}
		path = findDiversePath(g, src, dst, maxLen, tracker, r, shortest)

	case draw < shortestPathProb+nearShortestProb+extendedProb:
		maxLen := int(float64(shortestLen) * 1.5)
		if maxLen < shortestLen {
			maxLen = shortestLen
		}
		if maxLen > maxNodes {
			maxLen = maxNodes
		}
		path = findDiversePath(g, src, dst, maxLen, tracker, r, shortest)

	default:
		if walk := randomWalk(g, src, dst, maxNodes, r); walk != nil {
			path = walk
		} else {
			path = shortest
		}
	}

	tracker.Record(path)
	return path, nil
}
