// Package report writes per-run and sweep-summary JSON files, the
// thin external-I/O layer spec.md §1 places outside the core (§6, §12
// of SPEC_FULL.md).
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"meshveil/pkg/eval"
	"meshveil/pkg/simulation"
)

// RunParams is the flattened parameter set for one experiment,
// matching the fields original_source/src/analyzer.py reads from
// "params" (§12 of SPEC_FULL.md: obsCount singular, coverEnabled bool,
// poisonRate top-level).
type RunParams struct {
	N            int     `json:"N"`
	Hmax         int     `json:"Hmax"`
	Seed         int64   `json:"seed"`
	ObsCount     int     `json:"obsCount"`
	Placement    string  `json:"placement"`
	CoverEnabled bool    `json:"coverEnabled"`
	PoisonRate   float64 `json:"poisonRate"`
}

// coverTrafficJSON mirrors the "results.coverTraffic" shape.
type coverTrafficJSON struct {
	TotalMessages int     `json:"totalMessages"`
	DummyMessages int     `json:"dummyMessages"`
	DummyFraction float64 `json:"dummyFraction"`
}

// graphAccuracyJSON mirrors "results.graphReconstruction.accuracy".
type graphAccuracyJSON struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1Score"`
}

type tierMetricJSON struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1Score"`
}

// graphReconstructionJSON mirrors "results.graphReconstruction",
// nesting accuracy exactly as original_source/src/analyzer.py expects
// (§12 of SPEC_FULL.md).
type graphReconstructionJSON struct {
	Accuracy      graphAccuracyJSON         `json:"accuracy"`
	TotalNodes    int                       `json:"totalNodes"`
	TotalEdges    int                       `json:"totalEdges"`
	AvgConfidence float64                   `json:"avgConfidence"`
	TierMetrics   map[string]tierMetricJSON `json:"tierMetrics"`
	TierConfusion map[string]map[string]int `json:"tierConfusion"`
}

type conversationsJSON struct {
	TotalReplies         int     `json:"totalReplies"`
	AvgReplyDelay        float64 `json:"avgReplyDelay"`
	ConversationThreads  int     `json:"conversationThreads"`
	AvgMessagesPerThread float64 `json:"avgMessagesPerThread"`
}

type routingJSON struct {
	AvgPathLength     float64 `json:"avgPathLength"`
	PathDiversity     float64 `json:"pathDiversity"`
	ShortPathFraction float64 `json:"shortPathFraction"`
}

type resultsJSON struct {
	Accuracy            float64                 `json:"accuracy"`
	Correct             int                     `json:"correct"`
	Total               int                     `json:"total"`
	CoverTraffic        coverTrafficJSON        `json:"coverTraffic"`
	GraphReconstruction graphReconstructionJSON `json:"graphReconstruction"`
	Conversations       conversationsJSON       `json:"conversations"`
	Routing             routingJSON             `json:"routing"`
}

type groundTruthRefJSON struct {
	File string `json:"file"`
}

type observerContactJSON struct {
	T     int    `json:"t"`
	A     uint32 `json:"a"`
	B     uint32 `json:"b"`
	Count int    `json:"count"`
}

type sampleMessageJSON struct {
	T         int      `json:"t"`
	Sender    uint32   `json:"sender"`
	Recipient uint32   `json:"recipient"`
	Path      []uint32 `json:"path"`
	Dummy     bool     `json:"dummy"`
	IsReply   bool     `json:"isReply"`
}

// RunResult is the full per-run JSON document (spec.md §6.2).
type RunResult struct {
	Params      RunParams             `json:"params"`
	Results     resultsJSON           `json:"results"`
	GroundTruth groundTruthRefJSON    `json:"groundTruth"`
	ObserverLog []observerContactJSON `json:"observerLog"`
	Sample      [][]sampleMessageJSON `json:"sample"`
}

// ObserverContact is one observed (t, a, b, count) tuple, as recorded
// by the orchestrator's materialization pass for an observed link.
type ObserverContact struct {
	T     int
	A, B  uint32
	Count int
}

// BuildRunResult assembles the full per-run document from the
// evaluator's report, the ground-truth filename, the first 100
// observer contacts, and the first 10 epochs
// x first 5 messages (spec.md §6.2).
func BuildRunResult(params RunParams, groundTruthFile string, rep eval.Report, contacts []ObserverContact, sentLog []simulation.MessageRecord) RunResult {
	result := RunResult{
		Params: params,
		Results: resultsJSON{
			Accuracy: rep.Accuracy.Accuracy(),
			Correct:  rep.Accuracy.Correct,
			Total:    rep.Accuracy.Total,
			CoverTraffic: coverTrafficJSON{
				TotalMessages: rep.CoverTraffic.TotalMessages,
				DummyMessages: rep.CoverTraffic.DummyMessages,
				DummyFraction: rep.CoverTraffic.DummyFraction,
			},
			GraphReconstruction: graphReconstructionJSON{
				Accuracy: graphAccuracyJSON{
					Precision: rep.GraphReconstruction.Accuracy.Precision,
					Recall:    rep.GraphReconstruction.Accuracy.Recall,
					F1Score:   rep.GraphReconstruction.Accuracy.F1Score,
				},
				TotalNodes:    rep.GraphReconstruction.TotalNodes,
				TotalEdges:    rep.GraphReconstruction.TotalEdges,
				AvgConfidence: rep.GraphReconstruction.AvgConfidence,
				TierMetrics:   tierMetricsJSON(rep.GraphReconstruction.TierMetrics),
				TierConfusion: rep.GraphReconstruction.TierConfusion,
			},
			Conversations: conversationsJSON{
				TotalReplies:         rep.Conversations.TotalReplies,
				AvgReplyDelay:        rep.Conversations.AvgReplyDelay,
				ConversationThreads:  rep.Conversations.ConversationThreads,
				AvgMessagesPerThread: rep.Conversations.AvgMessagesPerThread,
			},
			Routing: routingJSON{
				AvgPathLength:     rep.Routing.AvgPathLength,
				PathDiversity:     rep.Routing.PathDiversity,
				ShortPathFraction: rep.Routing.ShortPathFraction,
			},
		},
		GroundTruth: groundTruthRefJSON{File: groundTruthFile},
		ObserverLog: observerLogJSON(contacts),
		Sample:      sampleJSON(sentLog),
	}
	return result
}

func tierMetricsJSON(m map[string]eval.TierMetrics) map[string]tierMetricJSON {
	out := make(map[string]tierMetricJSON, len(m))
	for k, v := range m {
		out[k] = tierMetricJSON{Precision: v.Precision, Recall: v.Recall, F1Score: v.F1Score}
	}
	return out
}

func observerLogJSON(contacts []ObserverContact) []observerContactJSON {
	limit := len(contacts)
	if limit > 100 {
		limit = 100
	}
	out := make([]observerContactJSON, limit)
	for i := 0; i < limit; i++ {
		c := contacts[i]
		out[i] = observerContactJSON{T: c.T, A: c.A, B: c.B, Count: c.Count}
	}
	return out
}

// sampleJSON groups the first 10 epochs x first 5 messages per epoch,
// in SentLog order, into a per-epoch slice.
func sampleJSON(sentLog []simulation.MessageRecord) [][]sampleMessageJSON {
	byEpoch := make(map[int][]sampleMessageJSON)
	var epochsInOrder []int
	for _, rec := range sentLog {
		if _, seen := byEpoch[rec.T]; !seen {
			epochsInOrder = append(epochsInOrder, rec.T)
		}
		if len(byEpoch[rec.T]) >= 5 {
			continue
		}
		byEpoch[rec.T] = append(byEpoch[rec.T], sampleMessageJSON{
			T: rec.T, Sender: rec.Sender, Recipient: rec.Recipient,
			Path: rec.Path, Dummy: rec.Dummy, IsReply: rec.IsReply,
		})
	}

	limit := len(epochsInOrder)
	if limit > 10 {
		limit = 10
	}
	out := make([][]sampleMessageJSON, limit)
	for i := 0; i < limit; i++ {
		out[i] = byEpoch[epochsInOrder[i]]
	}
	return out
}

// WriteRunResult writes result to dir as a per-run file, never named
// "summary*" so the analyzer's glob can always distinguish a per-run
// result from the sweep summary (§12 of SPEC_FULL.md).
func WriteRunResult(dir, name string, result RunResult) error {
	if strings.HasPrefix(name, "summary") {
		return fmt.Errorf("report: per-run file name %q must not start with \"summary\"", name)
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("report: encode run result: %w", err)
	}
	path := filepath.Join(dir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}

// Summary is the sweep-level aggregate written to out/summary.json
// (spec.md §6.3).
type Summary struct {
	RunCount          int     `json:"runCount"`
	MeanAccuracy      float64 `json:"meanAccuracy"`
	MeanDummy         float64 `json:"meanDummyFraction"`
	MeanGraphF1       float64 `json:"meanGraphF1"`
	MeanRepliesPerRun float64 `json:"meanRepliesPerRun"`
}

// Summarize aggregates a slice of per-run results into a Summary.
func Summarize(results []RunResult) Summary {
	if len(results) == 0 {
		return Summary{}
	}
	var accSum, dummySum, f1Sum, repliesSum float64
	for _, r := range results {
		accSum += r.Results.Accuracy
		dummySum += r.Results.CoverTraffic.DummyFraction
		f1Sum += r.Results.GraphReconstruction.Accuracy.F1Score
		repliesSum += float64(r.Results.Conversations.TotalReplies)
	}
	n := float64(len(results))
	return Summary{
		RunCount:          len(results),
		MeanAccuracy:      accSum / n,
		MeanDummy:         dummySum / n,
		MeanGraphF1:       f1Sum / n,
		MeanRepliesPerRun: repliesSum / n,
	}
}

// WriteSummary writes the sweep summary to out/summary.json.
func WriteSummary(dir string, s Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("report: encode summary: %w", err)
	}
	path := filepath.Join(dir, "summary.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}
