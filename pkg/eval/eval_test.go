package eval

import (
	"testing"

	"meshveil/pkg/adversary"
	"meshveil/pkg/simulation"
	"meshveil/pkg/socialgraph"
)

func buildTriangle() (*socialgraph.Graph, *socialgraph.TierMap) {
	edges := []socialgraph.PairKey{
		{Lo: 0, Hi: 1},
		{Lo: 1, Hi: 2},
	}
	g := socialgraph.FromEdges(3, edges)
	tiers := socialgraph.NewTierMap()
	tiers.Set(0, 1, socialgraph.Intimate)
	tiers.Set(1, 2, socialgraph.Friend)
	return g, tiers
}

func TestGuessAccuracyZeroWhenNoObservations(t *testing.T) {
	g, tiers := buildTriangle()
	e := &Evaluator{Graph: g, Tiers: tiers}
	report := e.Evaluate(adversary.Results{})
	if report.Accuracy.Total != 0 || report.Accuracy.Accuracy() != 0 {
		t.Fatalf("expected zero accuracy with no guesses, got %+v", report.Accuracy)
	}
}

func TestGuessAccuracyCountsMajorityMatch(t *testing.T) {
	g, tiers := buildTriangle()
	log := []simulation.MessageRecord{
		{T: 0, Sender: 0, Recipient: 1, Path: []uint32{0, 1}},
		{T: 0, Sender: 0, Recipient: 1, Path: []uint32{0, 1}},
		{T: 0, Sender: 0, Recipient: 2, Path: []uint32{0, 1, 2}},
	}
	e := &Evaluator{Graph: g, Tiers: tiers, SentLog: log}
	guesses := []adversary.Guess{
		{T: 0, Sender: 0, Target: 1}, // matches majority recipient (1, appearing twice)
	}
	report := e.Evaluate(adversary.Results{Guesses: guesses})
	if report.Accuracy.Total != 1 || report.Accuracy.Correct != 1 {
		t.Fatalf("expected 1/1 correct, got %+v", report.Accuracy)
	}
}

func TestGraphReconstructionPerfectMatch(t *testing.T) {
	g, tiers := buildTriangle()
	e := &Evaluator{Graph: g, Tiers: tiers}
	edges := []adversary.EdgeStat{
		{Pair: socialgraph.NewPairKey(0, 1), Tier: adversary.TierIntimate, Confidence: 0.9},
		{Pair: socialgraph.NewPairKey(1, 2), Tier: adversary.TierFriend, Confidence: 0.7},
	}
	report := e.Evaluate(adversary.Results{Edges: edges})
	acc := report.GraphReconstruction.Accuracy
	if acc.Precision != 1 || acc.Recall != 1 || acc.F1Score != 1 {
		t.Fatalf("expected perfect precision/recall/F1, got %+v", acc)
	}
}

func TestCoverTrafficFractionZeroWhenDisabled(t *testing.T) {
	g, tiers := buildTriangle()
	log := []simulation.MessageRecord{
		{T: 0, Sender: 0, Recipient: 1, Path: []uint32{0, 1}, Dummy: false},
		{T: 0, Sender: 1, Recipient: 2, Path: []uint32{1, 2}, Dummy: false},
	}
	e := &Evaluator{Graph: g, Tiers: tiers, SentLog: log}
	report := e.Evaluate(adversary.Results{})
	if report.CoverTraffic.DummyFraction != 0 {
		t.Fatalf("expected zero dummy fraction, got %f", report.CoverTraffic.DummyFraction)
	}
}

func TestRoutingStatsShortPathFraction(t *testing.T) {
	g, tiers := buildTriangle()
	log := []simulation.MessageRecord{
		{Path: []uint32{0, 1}},
		{Path: []uint32{0, 1, 2}},
		{Path: []uint32{0, 1, 2, 0}},
	}
	e := &Evaluator{Graph: g, Tiers: tiers, SentLog: log}
	report := e.Evaluate(adversary.Results{})
	if report.Routing.ShortPathFraction != 2.0/3.0 {
		t.Fatalf("expected 2 of 3 paths to count as short (<=3 nodes), got %f", report.Routing.ShortPathFraction)
	}
}
