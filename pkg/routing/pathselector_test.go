package routing

import (
	"errors"
	"testing"

	"meshveil/pkg/rng"
	"meshveil/pkg/socialgraph"
)

func buildTestGraph(n int, seed int64) *socialgraph.Graph {
	cfg := socialgraph.Config{
		PIntimate:     0.05,
		PFriend:       0.12,
		PAcquaintance: 0.25,
		PBridge:       0.1,
		Seed:          seed,
	}
	g, _ := socialgraph.Build(n, cfg, nil)
	return g
}

func TestSelectPathValidStructure(t *testing.T) {
	g := buildTestGraph(60, 4)
	r := rng.New(100)
	tracker := NewDiversityTracker()

	for i := 0; i < 200; i++ {
		src := uint32(r.Intn(g.N()))
		dst := uint32(r.Intn(g.N()))
		if src == dst {
			continue
		}
		path, err := SelectPath(g, src, dst, 3, tracker, r)
		if err != nil {
			if errors.Is(err, ErrNoPath) {
				continue
			}
			t.Fatalf("unexpected error: %v", err)
		}
		if path[0] != src || path[len(path)-1] != dst {
			t.Fatalf("path endpoints wrong: %v (src=%d dst=%d)", path, src, dst)
		}
		if len(path) > 4 {
			t.Fatalf("path too long for Hmax=3: %v", path)
		}
		for j := 1; j < len(path); j++ {
			if !g.HasEdge(path[j-1], path[j]) {
				t.Fatalf("path has non-edge hop: %d -> %d", path[j-1], path[j])
			}
		}
	}
}

func TestSelectPathNoPathWhenIsolated(t *testing.T) {
	// A 2-node graph with no edge between them and Hmax=1 must skip.
	g := socialgraph.FromEdges(2, nil)
	r := rng.New(1)
	tracker := NewDiversityTracker()
	_, err := SelectPath(g, 0, 1, 1, tracker, r)
	if !errors.Is(err, ErrNoPath) {
		t.Fatalf("expected ErrNoPath, got %v", err)
	}
}

func TestDiversityTrackerRecordsUsage(t *testing.T) {
	tr := NewDiversityTracker()
	before := tr.NodeScore(5)
	tr.Record([]uint32{5, 6, 7})
	after := tr.NodeScore(5)
	if after >= before {
		t.Fatalf("expected node score to decrease after use: before=%v after=%v", before, after)
	}
	edgeBefore := tr.EdgeScore(5, 6)
	tr.Record([]uint32{5, 6})
	edgeAfter := tr.EdgeScore(5, 6)
	if edgeAfter >= edgeBefore {
		t.Fatalf("expected edge score to decrease after reuse")
	}
}
