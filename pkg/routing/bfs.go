package routing

import "meshveil/pkg/socialgraph"

// bfsShortestPath returns the shortest src->dst path with at most
// maxNodes nodes, or nil if none exists within that budget.
func bfsShortestPath(g *socialgraph.Graph, src, dst uint32, maxNodes int) []uint32 {
	if maxNodes <= 0 {
		return nil
	}
	if src == dst {
		return []uint32{src}
	}

	parent := map[uint32]uint32{src: src}
	depth := map[uint32]int{src: 0}
	queue := []uint32{src}

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		if depth[u]+1 > maxNodes-1 {
			continue
		}
		for _, v := range g.Neighbors(u) {
			if _, seen := depth[v]; seen {
				continue
			}
			depth[v] = depth[u] + 1
			parent[v] = u
			if v == dst {
				return reconstruct(parent, src, dst)
			}
			queue = append(queue, v)
		}
	}
	return nil
}

func reconstruct(parent map[uint32]uint32, src, dst uint32) []uint32 {
	var rev []uint32
	cur := dst
	for {
		rev = append(rev, cur)
		if cur == src {
			break
		}
		cur = parent[cur]
	}
	out := make([]uint32, len(rev))
	for i, v := range rev {
		out[len(rev)-1-i] = v
	}
	return out
}
