package groundtruth

import (
	"math"
	"strconv"

	"meshveil/pkg/socialgraph"
)

// ComputeStatistics derives the Statistics block for a freshly built
// graph + tier map (spec.md §6).
func ComputeStatistics(g *socialgraph.Graph, tiers *socialgraph.TierMap) Statistics {
	n := g.N()
	degDist := make(map[string]int)
	minDeg, maxDeg := -1, 0
	totalDeg := 0
	for u := 0; u < n; u++ {
		d := g.Degree(uint32(u))
		totalDeg += d
		degDist[strconv.Itoa(d)]++
		if minDeg < 0 || d < minDeg {
			minDeg = d
		}
		if d > maxDeg {
			maxDeg = d
		}
	}
	if minDeg < 0 {
		minDeg = 0
	}

	edges := g.Edges()
	avgDeg := 0.0
	if n > 0 {
		avgDeg = float64(totalDeg) / float64(n)
	}

	var tierCounts TierCounts
	tiers.Range(func(u, v uint32, tier socialgraph.Tier) {
		switch tier {
		case socialgraph.Intimate:
			tierCounts.Intimate++
		case socialgraph.Friend:
			tierCounts.Friend++
		case socialgraph.Acquaintance:
			tierCounts.Acquaintance++
		}
	})

	components, diameter := componentsAndDiameter(g)

	return Statistics{
		TotalNodes:          n,
		TotalEdges:          len(edges),
		AvgDegree:           avgDeg,
		MinDegree:           minDeg,
		MaxDegree:           maxDeg,
		DegreeDistribution:  degDist,
		TierDistribution:    tierCounts,
		Components:          components,
		Diameter:            diameter,
		Clustering:          averageClustering(g),
	}
}

// componentsAndDiameter counts connected components via BFS flood
// fill, and returns the graph's diameter as the largest shortest-path
// distance found within the largest component (diameter is undefined,
// reported as -1, for a graph with fewer than 2 nodes).
func componentsAndDiameter(g *socialgraph.Graph) (components, diameter int) {
	n := g.N()
	if n == 0 {
		return 0, -1
	}
	visited := make([]bool, n)
	diameter = -1
	var largest map[int]int

	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}
		components++
		dist := bfsDistances(g, uint32(start))
		for u := range dist {
			visited[u] = true
		}
		if len(dist) > len(largest) {
			largest = dist
		}
	}
	if n < 2 {
		return components, diameter
	}
	for u := range largest {
		for _, d := range bfsDistances(g, uint32(u)) {
			if d > diameter {
				diameter = d
			}
		}
	}
	return components, diameter
}

func bfsDistances(g *socialgraph.Graph, src uint32) map[int]int {
	dist := map[int]int{int(src): 0}
	queue := []uint32{src}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range g.Neighbors(u) {
			if _, ok := dist[int(v)]; ok {
				continue
			}
			dist[int(v)] = dist[int(u)] + 1
			queue = append(queue, v)
		}
	}
	return dist
}

// averageClustering returns the mean local clustering coefficient
// over every node with degree >= 2 (the coefficient is undefined, and
// excluded from the average, for degree-0/1 nodes).
func averageClustering(g *socialgraph.Graph) float64 {
	n := g.N()
	if n == 0 {
		return 0
	}
	var sum float64
	var counted int
	for u := 0; u < n; u++ {
		nbrs := g.Neighbors(uint32(u))
		k := len(nbrs)
		if k < 2 {
			continue
		}
		links := 0
		for i := 0; i < len(nbrs); i++ {
			for j := i + 1; j < len(nbrs); j++ {
				if g.HasEdge(nbrs[i], nbrs[j]) {
					links++
				}
			}
		}
		possible := k * (k - 1) / 2
		sum += float64(links) / float64(possible)
		counted++
	}
	if counted == 0 {
		return 0
	}
	return math.Round(sum/float64(counted)*1e6) / 1e6
}
