package placement

import (
	"testing"

	"meshveil/pkg/rng"
	"meshveil/pkg/socialgraph"
)

func buildStarGraph(n int) *socialgraph.Graph {
	edges := make([]socialgraph.PairKey, 0, n-1)
	for i := 1; i < n; i++ {
		edges = append(edges, socialgraph.PairKey{Lo: 0, Hi: uint32(i)})
	}
	return socialgraph.FromEdges(n, edges)
}

func TestSelectRandomReturnsDistinctSortedIDs(t *testing.T) {
	g := buildStarGraph(20)
	got := Select(Random, g, 5, rng.New(1))
	if len(got) != 5 {
		t.Fatalf("expected 5 observers, got %d", len(got))
	}
	seen := make(map[uint32]bool)
	for i, id := range got {
		if seen[id] {
			t.Fatalf("duplicate observer id %d", id)
		}
		seen[id] = true
		if i > 0 && got[i-1] >= id {
			t.Fatalf("expected ascending sorted ids, got %v", got)
		}
	}
}

func TestSelectHighDegreePicksHub(t *testing.T) {
	g := buildStarGraph(10)
	got := Select(HighDegree, g, 1, rng.New(1))
	if len(got) != 1 || got[0] != 0 {
		t.Fatalf("expected hub node 0 to be selected, got %v", got)
	}
}

func TestSelectClusterPadsFromDisconnectedComponent(t *testing.T) {
	edges := []socialgraph.PairKey{{Lo: 0, Hi: 1}} // component {0,1}; nodes 2..5 isolated
	g := socialgraph.FromEdges(6, edges)
	got := Select(Cluster, g, 4, rng.New(3))
	if len(got) != 4 {
		t.Fatalf("expected 4 observers even though the root component is small, got %d", len(got))
	}
}
