package adversary

import (
	"math"

	"meshveil/pkg/socialgraph"
)

// EstimatedTier is the adversary's own volume-threshold tier label,
// independent of (and potentially wrong about) the ground-truth tier.
type EstimatedTier int

const (
	TierWeak EstimatedTier = iota
	TierAcquaintance
	TierFriend
	TierIntimate
)

func (t EstimatedTier) String() string {
	switch t {
	case TierIntimate:
		return "intimate"
	case TierFriend:
		return "friend"
	case TierAcquaintance:
		return "acquaintance"
	default:
		return "weak"
	}
}

const confidenceInclusionThreshold = 0.3

const (
	tierBonusIntimate     = 10.0
	tierBonusFriend       = 5.0
	tierBonusAcquaintance = 2.0
	tierBonusWeak         = 0.5
	tierBonusUnknown      = 0.0
)

func tierBonusFor(t EstimatedTier) float64 {
	switch t {
	case TierIntimate:
		return tierBonusIntimate
	case TierFriend:
		return tierBonusFriend
	case TierAcquaintance:
		return tierBonusAcquaintance
	default:
		return tierBonusWeak
	}
}

// EdgeStat is the adversary's reconstructed statistics for one
// observed undirected edge.
type EdgeStat struct {
	Pair         socialgraph.PairKey
	TotalVolume  int
	CoActivity   float64
	Reciprocity  float64
	Consistency  float64
	OverallScore float64
	Tier         EstimatedTier
	Confidence   float64
}

// estimatedGraph is the adversary's periodically rebuilt graph
// estimate: which edges it believes exist, with what tier and
// confidence.
type estimatedGraph struct {
	edges map[uint64]EdgeStat
	adj   map[uint32]map[uint32]bool
}

func newEstimatedGraph() *estimatedGraph {
	return &estimatedGraph{
		edges: make(map[uint64]EdgeStat),
		adj:   make(map[uint32]map[uint32]bool),
	}
}

func (g *estimatedGraph) edge(pair socialgraph.PairKey) (EdgeStat, bool) {
	s, ok := g.edges[pair.Hash()]
	return s, ok
}

func (g *estimatedGraph) neighbors(u uint32) map[uint32]bool {
	return g.adj[u]
}

func (g *estimatedGraph) setEdges(stats []EdgeStat) {
	g.edges = make(map[uint64]EdgeStat, len(stats))
	g.adj = make(map[uint32]map[uint32]bool, len(stats)*2)
	for _, s := range stats {
		if s.Confidence < confidenceInclusionThreshold {
			continue
		}
		g.edges[s.Pair.Hash()] = s
		g.link(s.Pair.Lo, s.Pair.Hi)
		g.link(s.Pair.Hi, s.Pair.Lo)
	}
}

func (g *estimatedGraph) link(u, v uint32) {
	set, ok := g.adj[u]
	if !ok {
		set = make(map[uint32]bool)
		g.adj[u] = set
	}
	set[v] = true
}

// rebuild recomputes every observed edge's statistics from accumulated
// link counts and historical guess reciprocity (spec.md §4.8).
func (e *Engine) rebuild() {
	stats := make([]EdgeStat, 0, len(e.links))
	for _, h := range e.links {
		stats = append(stats, e.computeEdgeStat(h))
	}
	e.estimated.setEdges(stats)
}

func (e *Engine) computeEdgeStat(h *linkHistory) EdgeStat {
	total := 0
	epochsSeen := len(h.counts)
	for _, c := range h.counts {
		total += c
	}

	totalEpochsTracked := len(e.activeNodes)
	coActivity := 0.0
	if totalEpochsTracked > 0 {
		coActivity = float64(epochsSeen) / float64(totalEpochsTracked)
	}

	fwd := e.guessCounts[directedPair{From: h.pair.Lo, To: h.pair.Hi}]
	bwd := e.guessCounts[directedPair{From: h.pair.Hi, To: h.pair.Lo}]
	reciprocity := float64(minInt(fwd, bwd)) / float64(maxInt(fwd, bwd)+1)

	consistency := 1.0 / (1.0 + math.Sqrt(variance(h.counts)))

	overall := 0.4*float64(total) + 0.2*coActivity*100 + 0.2*reciprocity*50 + 0.2*consistency*50

	tier, confidence := classifyTier(total)
	confidence *= (0.7 + 0.3*reciprocity) * (0.8 + 0.2*consistency)

	return EdgeStat{
		Pair:         h.pair,
		TotalVolume:  total,
		CoActivity:   coActivity,
		Reciprocity:  reciprocity,
		Consistency:  consistency,
		OverallScore: overall,
		Tier:         tier,
		Confidence:   confidence,
	}
}

func classifyTier(vol int) (EstimatedTier, float64) {
	switch {
	case vol >= 100:
		return TierIntimate, math.Min(0.9, float64(vol)/200)
	case vol >= 30:
		return TierFriend, math.Min(0.8, float64(vol)/60)
	case vol >= 5:
		return TierAcquaintance, math.Min(0.7, float64(vol)/15)
	default:
		return TierWeak, 0.4
	}
}

func variance(counts map[int]int) float64 {
	if len(counts) == 0 {
		return 0
	}
	sum := 0
	for _, c := range counts {
		sum += c
	}
	mean := float64(sum) / float64(len(counts))
	var acc float64
	for _, c := range counts {
		d := float64(c) - mean
		acc += d * d
	}
	return acc / float64(len(counts))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// EstimatedEdges returns the adversary's current graph estimate
// (edges with confidence ≥ the inclusion threshold).
func (e *Engine) EstimatedEdges() []EdgeStat {
	out := make([]EdgeStat, 0, len(e.estimated.edges))
	for _, s := range e.estimated.edges {
		out = append(out, s)
	}
	return out
}

// ForceRebuild recomputes the estimated graph immediately, used by
// Results to guarantee an up-to-date estimate at evaluation time
// regardless of epoch-20 alignment.
func (e *Engine) ForceRebuild() { e.rebuild() }
