package adversary

import "meshveil/pkg/rng"

const maxLabelPropagationPasses = 20

// CommunityLabels runs label propagation over the estimated graph
// (spec.md §4.8): every node starts as its own label, then for up to
// 20 passes each node (visited in shuffled order) adopts the majority
// label among its estimated neighbors, ties keeping the current
// label. Stops early once a pass changes nothing. Node identity of
// labels is not meaningful across runs (spec.md §9 design note); only
// the distinct-label count is reported.
func (e *Engine) CommunityLabels(r *rng.Lehmer) map[uint32]int {
	labels := make(map[uint32]int, e.n)
	for u := 0; u < e.n; u++ {
		labels[uint32(u)] = u
	}

	order := make([]uint32, e.n)
	for i := range order {
		order[i] = uint32(i)
	}

	for pass := 0; pass < maxLabelPropagationPasses; pass++ {
		shuffle(order, r)
		changed := false
		for _, u := range order {
			neighbors := e.estimated.neighbors(u)
			if len(neighbors) == 0 {
				continue
			}
			counts := make(map[int]int, len(neighbors))
			for v := range neighbors {
				counts[labels[v]]++
			}
			best, bestCount := labels[u], counts[labels[u]]
			for label, count := range counts {
				if count > bestCount {
					best, bestCount = label, count
				}
			}
			if best != labels[u] {
				labels[u] = best
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return labels
}

func shuffle(a []uint32, r *rng.Lehmer) {
	for i := len(a) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		a[i], a[j] = a[j], a[i]
	}
}

// DistinctCommunities returns the number of distinct labels produced
// by CommunityLabels.
func DistinctCommunities(labels map[uint32]int) int {
	seen := make(map[int]struct{})
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	return len(seen)
}
