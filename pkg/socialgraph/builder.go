package socialgraph

import (
	"math"
	"sort"

	"meshveil/pkg/rng"
)

// Point is an optional spatial coordinate for a user. When positions
// are supplied to Build, squared Euclidean distance drives the
// clustering bias instead of the deterministic pseudo-distance.
type Point struct {
	X, Y float64
}

// Config parameterizes graph construction (spec.md §4.2).
type Config struct {
	PIntimate     float64
	PFriend       float64
	PAcquaintance float64
	PBridge       float64
	Seed          int64

	// BandMultiplier and BridgeSample default to 2 and 3 respectively
	// when zero.
	BandMultiplier int
	BridgeSample   int
}

func (c Config) bandMultiplier() int {
	if c.BandMultiplier <= 0 {
		return 2
	}
	return c.BandMultiplier
}

func (c Config) bridgeSample() int {
	if c.BridgeSample <= 0 {
		return 3
	}
	return c.BridgeSample
}

const distanceEpsilon = 1e-6

type distEntry struct {
	id   uint32
	dist float64
}

// Build constructs a tiered small-world social graph over n users. If
// positions has length n, spatial distance drives clustering;
// otherwise a deterministic pseudo-distance derived from node ids is
// used (spec.md §4.2).
func Build(n int, cfg Config, positions []Point) (*Graph, *TierMap) {
	if n <= 0 {
		return &Graph{n: 0}, NewTierMap()
	}

	g := rng.New(cfg.Seed)

	kInt := targetDegree(cfg.PIntimate, n, 1)
	kFri := targetDegree(cfg.PFriend, n, kInt+2)
	kAcq := targetDegree(cfg.PAcquaintance, n, kFri+3)

	adjSet := make([]map[uint32]struct{}, n)
	for i := range adjSet {
		adjSet[i] = make(map[uint32]struct{})
	}
	tiers := NewTierMap()

	tierPlan := []struct {
		tier Tier
		k    int
	}{
		{Intimate, kInt},
		{Friend, kFri},
		{Acquaintance, kAcq},
	}

	for u := 0; u < n; u++ {
		uID := uint32(u)
		sorted := sortedPeersByDistance(u, n, positions)
		picked := make(map[uint32]struct{})

		for _, plan := range tierPlan {
			bandSize := plan.k
			if mul := plan.k * cfg.bandMultiplier(); mul > bandSize {
				bandSize = mul
			}

			band := make([]distEntry, 0, bandSize)
			for _, cand := range sorted {
				if _, already := picked[cand.id]; already {
					continue
				}
				band = append(band, cand)
				if len(band) >= bandSize {
					break
				}
			}
			if len(band) == 0 {
				continue
			}

			k := plan.k
			if k > len(band) {
				k = len(band)
			}
			selected := weightedSampleWithoutReplacement(band, k, g)
			for _, v := range selected {
				picked[v] = struct{}{}
				addSymmetricEdge(adjSet, uID, v)
				tiers.Set(uID, v, plan.tier)
			}
		}
	}

	addBridges(adjSet, tiers, n, cfg, g)

	return finalize(n, adjSet), tiers
}

// targetDegree implements the k = max(floor, p*(N-1)) clamp used for
// each tier's target degree.
func targetDegree(p float64, n, floor int) int {
	raw := int(p * float64(n-1))
	if raw < floor {
		return floor
	}
	return raw
}

func sortedPeersByDistance(u, n int, positions []Point) []distEntry {
	out := make([]distEntry, 0, n-1)
	for v := 0; v < n; v++ {
		if v == u {
			continue
		}
		out = append(out, distEntry{id: uint32(v), dist: distance(u, v, n, positions)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].dist != out[j].dist {
			return out[i].dist < out[j].dist
		}
		return out[i].id < out[j].id
	})
	return out
}

// distance implements spec.md §4.2's distance model: squared Euclidean
// when spatial coordinates are supplied, else a deterministic
// pseudo-distance derived from node ids that still produces a
// clustering bias (nearby ids tend to land closer together than a
// uniform random distance would).
func distance(i, j, n int, positions []Point) float64 {
	if len(positions) > i && len(positions) > j {
		dx := positions[i].X - positions[j].X
		dy := positions[i].Y - positions[j].Y
		return dx*dx + dy*dy
	}
	ii, jj := uint64(i), uint64(j)
	raw := (ii*2654435761 + jj*2246822519) % (1 << 32)
	frac := float64(raw) / float64(uint64(1)<<32)
	return frac * frac * float64(n)
}

// weightedSampleWithoutReplacement picks up to k entries from band via
// Efraimidis-Spirakis weighted sampling: key = u^(1/w), keep the
// largest k keys.
func weightedSampleWithoutReplacement(band []distEntry, k int, g *rng.Lehmer) []uint32 {
	type keyed struct {
		id  uint32
		key float64
	}
	keys := make([]keyed, len(band))
	for i, e := range band {
		w := 1.0 / (e.dist + distanceEpsilon)
		u := g.Float64()
		if u <= 0 {
			u = 1e-12
		}
		keys[i] = keyed{id: e.id, key: math.Pow(u, 1.0/w)}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].key > keys[j].key })
	if k > len(keys) {
		k = len(keys)
	}
	out := make([]uint32, k)
	for i := 0; i < k; i++ {
		out[i] = keys[i].id
	}
	return out
}

func addSymmetricEdge(adjSet []map[uint32]struct{}, u, v uint32) {
	adjSet[u][v] = struct{}{}
	adjSet[v][u] = struct{}{}
}

func addBridges(adjSet []map[uint32]struct{}, tiers *TierMap, n int, cfg Config, g *rng.Lehmer) {
	sample := cfg.bridgeSample()
	for u := 0; u < n; u++ {
		if !g.Bool(cfg.PBridge) {
			continue
		}
		uID := uint32(u)
		var nonNeighbors []uint32
		for v := 0; v < n; v++ {
			if v == u {
				continue
			}
			if _, ok := adjSet[uID][uint32(v)]; ok {
				continue
			}
			nonNeighbors = append(nonNeighbors, uint32(v))
		}
		if len(nonNeighbors) == 0 {
			continue
		}
		added := 0
		total := len(nonNeighbors)
		for idx, v := range nonNeighbors {
			if added >= sample {
				break
			}
			remaining := total - idx
			p := float64(sample-added) / float64(remaining)
			if g.Bool(p) {
				addSymmetricEdge(adjSet, uID, v)
				tiers.Set(uID, v, Acquaintance)
				added++
			}
		}
	}
}

func finalize(n int, adjSet []map[uint32]struct{}) *Graph {
	adj := make([][]uint32, n)
	for u := 0; u < n; u++ {
		nbrs := make([]uint32, 0, len(adjSet[u]))
		for v := range adjSet[u] {
			nbrs = append(nbrs, v)
		}
		sort.Slice(nbrs, func(i, j int) bool { return nbrs[i] < nbrs[j] })
		adj[u] = nbrs
	}
	return &Graph{n: n, adj: adj}
}
