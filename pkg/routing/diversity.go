package routing

import "meshveil/pkg/socialgraph"

// DiversityTracker accumulates how often each node and edge has been
// used across previously selected paths in a run, so later selections
// can be biased away from over-used routing elements (spec.md §4.4).
type DiversityTracker struct {
	nodeUsage map[uint32]int
	edgeUsage map[socialgraph.PairKey]int
}

// NewDiversityTracker returns an empty tracker.
func NewDiversityTracker() *DiversityTracker {
	return &DiversityTracker{
		nodeUsage: make(map[uint32]int),
		edgeUsage: make(map[socialgraph.PairKey]int),
	}
}

// NodeScore returns the diversity score for a node: 1/(1+usage*0.1).
func (t *DiversityTracker) NodeScore(u uint32) float64 {
	return 1.0 / (1.0 + float64(t.nodeUsage[u])*0.1)
}

// EdgeScore returns the diversity score for an edge.
func (t *DiversityTracker) EdgeScore(u, v uint32) float64 {
	return 1.0 / (1.0 + float64(t.edgeUsage[socialgraph.NewPairKey(u, v)])*0.1)
}

// Record marks every node and edge on path as used once more.
func (t *DiversityTracker) Record(path []uint32) {
	for i, n := range path {
		t.nodeUsage[n]++
		if i > 0 {
			t.edgeUsage[socialgraph.NewPairKey(path[i-1], n)]++
		}
	}
}
