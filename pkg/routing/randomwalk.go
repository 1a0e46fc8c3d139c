package routing

import (
	"meshveil/pkg/rng"
	"meshveil/pkg/socialgraph"
)

// randomWalk advances from src preferring unvisited neighbors, taking
// an early exit to dst once it is reachable, and finishing via a BFS
// shortest path once the length budget is nearly exhausted. Returns
// nil if it cannot reach dst within maxNodes.
func randomWalk(g *socialgraph.Graph, src, dst uint32, maxNodes int, r *rng.Lehmer) []uint32 {
	if maxNodes < 1 {
		return nil
	}
	path := []uint32{src}
	visited := map[uint32]bool{src: true}
	current := src

	for len(path) < maxNodes {
		neighbors := g.Neighbors(current)

		if hasNeighbor(neighbors, dst) && r.Bool(0.3) {
			return append(path, dst)
		}

		var unvisited []uint32
		for _, v := range neighbors {
			if !visited[v] {
				unvisited = append(unvisited, v)
			}
		}

		var next uint32
		switch {
		case len(unvisited) > 0:
			next = unvisited[r.Intn(len(unvisited))]
		case len(neighbors) > 0:
			next = neighbors[r.Intn(len(neighbors))]
		default:
			return nil
		}

		path = append(path, next)
		visited[next] = true
		current = next

		if len(path) >= maxNodes-1 {
			remainingBudget := maxNodes - len(path) + 1
			if tail := bfsShortestPath(g, current, dst, remainingBudget); tail != nil {
				return append(path[:len(path)-1:len(path)-1], tail...)
			}
		}
	}

	if path[len(path)-1] == dst {
		return path
	}
	return nil
}

func hasNeighbor(neighbors []uint32, target uint32) bool {
	for _, v := range neighbors {
		if v == target {
			return true
		}
	}
	return false
}
