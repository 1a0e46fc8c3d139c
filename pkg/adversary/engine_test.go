package adversary

import (
	"testing"

	"meshveil/pkg/rng"
	"meshveil/pkg/socialgraph"
)

func buildChainGraph(n int) *socialgraph.Graph {
	edges := make([]socialgraph.PairKey, 0, n-1)
	for i := 0; i < n-1; i++ {
		edges = append(edges, socialgraph.PairKey{Lo: uint32(i), Hi: uint32(i + 1)})
	}
	return socialgraph.FromEdges(n, edges)
}

func TestNoteContactDropsUnobservedLinks(t *testing.T) {
	e := NewEngine(10, []uint32{0})
	e.NoteContact(0, 5, 6, 3) // neither endpoint observed
	if len(e.links) != 0 {
		t.Fatalf("expected unobserved contact to be dropped, got %d link entries", len(e.links))
	}
	e.NoteContact(0, 0, 1, 3) // node 0 is observed
	if len(e.links) != 1 {
		t.Fatalf("expected observed contact to be recorded")
	}
}

func TestInferEpochProducesGuessForPendingSend(t *testing.T) {
	g := buildChainGraph(5)
	e := NewEngine(5, []uint32{0, 1, 2, 3, 4})
	e.NoteSend(0, 1)
	e.NoteContact(0, 1, 2, 4)
	e.NoteContact(0, 0, 1, 1)
	e.InferEpoch(0, g)

	guesses := e.Guesses()
	if len(guesses) != 1 {
		t.Fatalf("expected exactly one guess, got %d", len(guesses))
	}
	if guesses[0].Sender != 1 {
		t.Fatalf("unexpected guess sender: %+v", guesses[0])
	}
	if guesses[0].Target != 2 {
		t.Fatalf("expected the higher-volume neighbor (2) to win the score: %+v", guesses[0])
	}
}

func TestRebuildClassifiesHighVolumeEdgeAsIntimate(t *testing.T) {
	e := NewEngine(3, []uint32{0, 1})
	for epoch := 0; epoch < 50; epoch++ {
		e.NoteContact(epoch, 0, 1, 3)
	}
	e.ForceRebuild()
	edges := e.EstimatedEdges()
	if len(edges) != 1 {
		t.Fatalf("expected exactly one estimated edge, got %d", len(edges))
	}
	if edges[0].Tier != TierIntimate {
		t.Fatalf("expected intimate tier for a 150-volume edge, got %v", edges[0].Tier)
	}
}

func TestCommunityLabelsCoverEveryNode(t *testing.T) {
	e := NewEngine(6, []uint32{0, 1, 2, 3, 4, 5})
	for epoch := 0; epoch < 40; epoch++ {
		e.NoteContact(epoch, 0, 1, 2)
		e.NoteContact(epoch, 1, 2, 2)
		e.NoteContact(epoch, 3, 4, 2)
		e.NoteContact(epoch, 4, 5, 2)
	}
	e.ForceRebuild()
	labels := e.CommunityLabels(rng.New(1))
	if len(labels) != 6 {
		t.Fatalf("expected a label for every node, got %d", len(labels))
	}
	if DistinctCommunities(labels) < 1 {
		t.Fatalf("expected at least one community")
	}
}
