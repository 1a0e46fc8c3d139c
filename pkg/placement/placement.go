// Package placement implements the observer-selection strategies the
// sweep driver surface offers (spec.md §6: random, high-degree,
// cluster). These pick which nodes' incident link traffic is visible
// to the adversary for one experiment.
package placement

import (
	"sort"

	"meshveil/pkg/rng"
	"meshveil/pkg/socialgraph"
)

// Strategy names the observer-placement strategy.
type Strategy string

const (
	Random     Strategy = "random"
	HighDegree Strategy = "high-degree"
	Cluster    Strategy = "cluster"
)

// Select returns k observed node ids chosen from g under strategy.
func Select(strategy Strategy, g *socialgraph.Graph, k int, r *rng.Lehmer) []uint32 {
	switch strategy {
	case HighDegree:
		return selectHighDegree(g, k)
	case Cluster:
		return selectCluster(g, k, r)
	default:
		return selectRandom(g, k, r)
	}
}

// selectRandom picks k ids uniformly without replacement over all
// node ids.
func selectRandom(g *socialgraph.Graph, k int, r *rng.Lehmer) []uint32 {
	n := g.N()
	if k > n {
		k = n
	}
	pool := make([]uint32, n)
	for i := range pool {
		pool[i] = uint32(i)
	}
	for i := len(pool) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}
	out := append([]uint32(nil), pool[:k]...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// selectHighDegree picks the k highest-degree nodes, breaking ties by
// ascending id for determinism.
func selectHighDegree(g *socialgraph.Graph, k int) []uint32 {
	n := g.N()
	if k > n {
		k = n
	}
	ids := make([]uint32, n)
	for i := range ids {
		ids[i] = uint32(i)
	}
	sort.Slice(ids, func(i, j int) bool {
		di, dj := g.Degree(ids[i]), g.Degree(ids[j])
		if di != dj {
			return di > dj
		}
		return ids[i] < ids[j]
	})
	out := append([]uint32(nil), ids[:k]...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// selectCluster grows a BFS frontier from a random root until it
// covers k nodes, padding with random nodes if the root's component is
// too small (spec.md §6).
func selectCluster(g *socialgraph.Graph, k int, r *rng.Lehmer) []uint32 {
	n := g.N()
	if k > n {
		k = n
	}
	if n == 0 {
		return nil
	}

	root := uint32(r.Intn(n))
	visited := map[uint32]bool{root: true}
	order := []uint32{root}
	queue := []uint32{root}
	for len(queue) > 0 && len(order) < k {
		u := queue[0]
		queue = queue[1:]
		for _, v := range g.Neighbors(u) {
			if visited[v] {
				continue
			}
			visited[v] = true
			order = append(order, v)
			queue = append(queue, v)
			if len(order) >= k {
				break
			}
		}
	}

	if len(order) < k {
		var rest []uint32
		for i := 0; i < n; i++ {
			if !visited[uint32(i)] {
				rest = append(rest, uint32(i))
			}
		}
		for i := len(rest) - 1; i > 0; i-- {
			j := r.Intn(i + 1)
			rest[i], rest[j] = rest[j], rest[i]
		}
		need := k - len(order)
		if need > len(rest) {
			need = len(rest)
		}
		order = append(order, rest[:need]...)
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	return order
}
