package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"meshveil/pkg/eval"
	"meshveil/pkg/simulation"
)

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func sampleReport() eval.Report {
	return eval.Report{
		Accuracy: eval.GuessAccuracy{Correct: 3, Total: 4},
		GraphReconstruction: eval.GraphReconstruction{
			Accuracy:   eval.GraphAccuracy{Precision: 0.8, Recall: 0.6, F1Score: 0.685},
			TotalNodes: 10,
			TotalEdges: 12,
			TierMetrics: map[string]eval.TierMetrics{
				"intimate": {Precision: 1, Recall: 1, F1Score: 1},
			},
			TierConfusion: map[string]map[string]int{
				"intimate": {"intimate": 2},
			},
		},
		CoverTraffic:  eval.CoverTrafficStats{TotalMessages: 100, DummyMessages: 20, DummyFraction: 0.2},
		Routing:       eval.RoutingStats{AvgPathLength: 2.5, PathDiversity: 0.7, ShortPathFraction: 0.6},
		Conversations: eval.ConversationStats{TotalReplies: 5, AvgReplyDelay: 1.2, ConversationThreads: 3, AvgMessagesPerThread: 2.0},
	}
}

func TestBuildRunResultPreservesAnalyzerFieldNames(t *testing.T) {
	params := RunParams{N: 50, Hmax: 4, Seed: 7, ObsCount: 5, Placement: "random", CoverEnabled: true, PoisonRate: 0.1}
	contacts := []ObserverContact{{T: 0, A: 1, B: 2, Count: 3}}
	sentLog := []simulation.MessageRecord{
		{ID: 0, T: 0, Sender: 1, Recipient: 2, Path: []uint32{1, 2}},
	}

	result := BuildRunResult(params, "graph_N50_seed7_0_02-0_08-0_20.json", sampleReport(), contacts, sentLog)

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	params2, ok := decoded["params"].(map[string]any)
	if !ok {
		t.Fatalf("expected \"params\" object, got %v", decoded["params"])
	}
	if _, ok := params2["obsCount"]; !ok {
		t.Fatalf("expected singular \"obsCount\" field, got keys %v", params2)
	}
	if _, ok := params2["coverEnabled"]; !ok {
		t.Fatalf("expected \"coverEnabled\" field, got keys %v", params2)
	}
	if _, ok := params2["poisonRate"]; !ok {
		t.Fatalf("expected top-level \"poisonRate\" field, got keys %v", params2)
	}

	results, ok := decoded["results"].(map[string]any)
	if !ok {
		t.Fatalf("expected \"results\" object")
	}
	graphRecon, ok := results["graphReconstruction"].(map[string]any)
	if !ok {
		t.Fatalf("expected \"graphReconstruction\" object")
	}
	accuracy, ok := graphRecon["accuracy"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested \"graphReconstruction.accuracy\" object")
	}
	if _, ok := accuracy["f1Score"]; !ok {
		t.Fatalf("expected nested \"f1Score\" field, got keys %v", accuracy)
	}
}

func TestSampleJSONCapsEpochsAndMessagesPerEpoch(t *testing.T) {
	var sentLog []simulation.MessageRecord
	for epoch := 0; epoch < 15; epoch++ {
		for m := 0; m < 8; m++ {
			sentLog = append(sentLog, simulation.MessageRecord{T: epoch, Sender: uint32(m), Recipient: uint32(m + 1)})
		}
	}

	sample := sampleJSON(sentLog)
	if len(sample) != 10 {
		t.Fatalf("expected at most 10 epochs sampled, got %d", len(sample))
	}
	for _, epoch := range sample {
		if len(epoch) > 5 {
			t.Fatalf("expected at most 5 messages per epoch, got %d", len(epoch))
		}
	}
}

func TestObserverLogJSONCapsAt100(t *testing.T) {
	contacts := make([]ObserverContact, 250)
	for i := range contacts {
		contacts[i] = ObserverContact{T: i, A: 1, B: 2, Count: 1}
	}
	out := observerLogJSON(contacts)
	if len(out) != 100 {
		t.Fatalf("expected observer log capped at 100, got %d", len(out))
	}
}

func TestWriteRunResultAndSummaryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	result := BuildRunResult(RunParams{N: 10, Seed: 1}, "graph.json", sampleReport(), nil, nil)
	if err := WriteRunResult(dir, "run_test", result); err != nil {
		t.Fatalf("write run result: %v", err)
	}

	summary := Summarize([]RunResult{result, result})
	if summary.RunCount != 2 {
		t.Fatalf("expected run count 2, got %d", summary.RunCount)
	}
	if err := WriteSummary(dir, summary); err != nil {
		t.Fatalf("write summary: %v", err)
	}

	if got := filepath.Join(dir, "run_test.json"); !fileExists(got) {
		t.Fatalf("expected %s to exist", got)
	}
	if got := filepath.Join(dir, "summary.json"); !fileExists(got) {
		t.Fatalf("expected %s to exist", got)
	}
}
