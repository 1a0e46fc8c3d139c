package routing

import (
	"math"

	"meshveil/pkg/rng"
	"meshveil/pkg/socialgraph"
)

const maxEnumeratedPaths = 20

// findDiversePath enumerates up to maxEnumeratedPaths distinct simple
// paths from src to dst with at most maxLen nodes, scores each by
// summed node/edge diversity discounted by 0.95^len, and picks one by
// roulette selection over the scores (spec.md §4.4). Falls back to
// fallback if enumeration finds nothing.
func findDiversePath(g *socialgraph.Graph, src, dst uint32, maxLen int, tracker *DiversityTracker, r *rng.Lehmer, fallback []uint32) []uint32 {
	paths := enumeratePaths(g, src, dst, maxLen, maxEnumeratedPaths, r)
	if len(paths) == 0 {
		return fallback
	}

	scores := make([]float64, len(paths))
	for i, p := range paths {
		score := 0.0
		for _, n := range p {
			score += tracker.NodeScore(n)
		}
		for j := 0; j < len(p)-1; j++ {
			score += tracker.EdgeScore(p[j], p[j+1])
		}
		scores[i] = score * math.Pow(0.95, float64(len(p)))
	}
	return paths[rouletteSelect(scores, r)]
}

func rouletteSelect(scores []float64, r *rng.Lehmer) int {
	total := 0.0
	for _, s := range scores {
		total += s
	}
	if total <= 0 {
		return r.Intn(len(scores))
	}
	draw := r.Float64() * total
	acc := 0.0
	for i, s := range scores {
		acc += s
		if draw < acc {
			return i
		}
	}
	return len(scores) - 1
}

// enumeratePaths performs a randomized, backtracking depth-first
// search bounded by maxLen nodes, collecting up to limit distinct
// simple paths from src to dst. Neighbor visitation order is shuffled
// per call so repeated calls surface different paths.
func enumeratePaths(g *socialgraph.Graph, src, dst uint32, maxLen, limit int, r *rng.Lehmer) [][]uint32 {
	if maxLen < 1 {
		return nil
	}
	var results [][]uint32
	visited := map[uint32]bool{src: true}
	path := []uint32{src}

	var dfs func(u uint32)
	dfs = func(u uint32) {
		if len(results) >= limit {
			return
		}
		if u == dst {
			cp := append([]uint32(nil), path...)
			results = append(results, cp)
			return
		}
		if len(path) >= maxLen {
			return
		}
		neighbors := append([]uint32(nil), g.Neighbors(u)...)
		shuffle(neighbors, r)
		for _, v := range neighbors {
			if len(results) >= limit {
				return
			}
			if visited[v] {
				continue
			}
			visited[v] = true
			path = append(path, v)
			dfs(v)
			path = path[:len(path)-1]
			visited[v] = false
		}
	}
	dfs(src)
	return results
}

func shuffle(s []uint32, r *rng.Lehmer) {
	for i := len(s) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
