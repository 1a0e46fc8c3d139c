// Package eval compares ground-truth graphs and message logs against
// adversary outputs and computes accuracy, precision/recall/F1, tier,
// cover-traffic, routing, and conversation metrics (spec.md §4.9, C10).
package eval

import (
	"math"

	"meshveil/pkg/adversary"
	"meshveil/pkg/conversation"
	"meshveil/pkg/simulation"
	"meshveil/pkg/socialgraph"
)

// GuessAccuracy reports how often the adversary's per-send recipient
// guess matched the majority true recipient for that (t, sender) pair.
type GuessAccuracy struct {
	Correct int
	Total   int
}

// Accuracy returns Correct/Total, or 0 if Total is 0 (spec.md §7:
// "observer saw no traffic" yields 0, not a division error).
func (g GuessAccuracy) Accuracy() float64 {
	if g.Total == 0 {
		return 0
	}
	return float64(g.Correct) / float64(g.Total)
}

// GraphAccuracy is precision/recall/F1 over undirected edges.
type GraphAccuracy struct {
	Precision float64
	Recall    float64
	F1Score   float64
}

// TierMetrics is per-tier precision/recall/F1.
type TierMetrics struct {
	Precision float64
	Recall    float64
	F1Score   float64
}

// GraphReconstruction bundles the adversary's reconstructed-graph
// evaluation.
type GraphReconstruction struct {
	Accuracy      GraphAccuracy
	TotalNodes    int
	TotalEdges    int
	AvgConfidence float64
	TierMetrics   map[string]TierMetrics
	TierConfusion map[string]map[string]int
}

// CoverTrafficStats summarizes the cover-traffic fraction and
// dummy-sender entropy.
type CoverTrafficStats struct {
	TotalMessages int
	DummyMessages int
	DummyFraction float64
	SenderEntropy float64
}

// RoutingStats summarizes path-selection behavior across the run.
type RoutingStats struct {
	AvgPathLength     float64
	PathDiversity     float64
	ShortPathFraction float64
}

// ConversationStats summarizes reply/thread behavior.
type ConversationStats struct {
	TotalReplies         int
	AvgReplyDelay        float64
	ConversationThreads  int
	AvgMessagesPerThread float64
}

// Report bundles every evaluator output for one experiment.
type Report struct {
	Accuracy            GuessAccuracy
	GraphReconstruction GraphReconstruction
	CoverTraffic        CoverTrafficStats
	Routing             RoutingStats
	Conversations       ConversationStats
}

// Evaluator computes a Report from the accumulated ground truth and
// adversary output of one completed experiment.
type Evaluator struct {
	Graph   *socialgraph.Graph
	Tiers   *socialgraph.TierMap
	SentLog []simulation.MessageRecord
	Threads []*conversation.Thread
}

// Evaluate runs every metric in spec.md §4.9 against res, the
// adversary's final output bundle.
func (e *Evaluator) Evaluate(res adversary.Results) Report {
	return Report{
		Accuracy:            e.guessAccuracy(res.Guesses),
		GraphReconstruction: e.graphReconstruction(res.Edges),
		CoverTraffic:        e.coverTrafficStats(),
		Routing:             e.routingStats(),
		Conversations:       e.conversationStats(),
	}
}

// majorityRecipients maps (t, sender) -> the recipient appearing most
// often in SentLog for that pair (spec.md §4.9: "look up the majority
// true recipient").
func (e *Evaluator) majorityRecipients() map[[2]uint64]uint32 {
	type key struct {
		t int
		s uint32
	}
	counts := make(map[key]map[uint32]int)
	for _, rec := range e.SentLog {
		k := key{t: rec.T, s: rec.Sender}
		if counts[k] == nil {
			counts[k] = make(map[uint32]int)
		}
		counts[k][rec.Recipient]++
	}
	out := make(map[[2]uint64]uint32, len(counts))
	for k, recipients := range counts {
		var best uint32
		bestCount := -1
		for r, c := range recipients {
			if c > bestCount || (c == bestCount && r < best) {
				best, bestCount = r, c
			}
		}
		out[[2]uint64{uint64(uint32(k.t)), uint64(k.s)}] = best
	}
	return out
}

func (e *Evaluator) guessAccuracy(guesses []adversary.Guess) GuessAccuracy {
	majority := e.majorityRecipients()
	var acc GuessAccuracy
	for _, g := range guesses {
		truth, ok := majority[[2]uint64{uint64(uint32(g.T)), uint64(g.Sender)}]
		if !ok {
			continue
		}
		acc.Total++
		if truth == g.Target {
			acc.Correct++
		}
	}
	return acc
}

func (e *Evaluator) graphReconstruction(edges []adversary.EdgeStat) GraphReconstruction {
	truth := make(map[socialgraph.PairKey]socialgraph.Tier)
	e.Tiers.Range(func(u, v uint32, tier socialgraph.Tier) {
		truth[socialgraph.NewPairKey(u, v)] = tier
	})

	estimated := make(map[socialgraph.PairKey]adversary.EdgeStat, len(edges))
	for _, ed := range edges {
		estimated[ed.Pair] = ed
	}

	var truePositive, falsePositive, falseNegative int
	tierNames := []string{"intimate", "friend", "acquaintance", "weak"}
	confusion := make(map[string]map[string]int)
	for _, a := range tierNames {
		confusion[a] = make(map[string]int)
		for _, b := range tierNames {
			confusion[a][b] = 0
		}
	}
	tierHits := make(map[string]int)
	tierGuessed := make(map[string]int)
	tierTruth := make(map[string]int)

	for pair, tier := range truth {
		truthTier := tier.String()
		tierTruth[truthTier]++
		if est, ok := estimated[pair]; ok {
			truePositive++
			confusion[truthTier][est.Tier.String()]++
			tierGuessed[est.Tier.String()]++
			if est.Tier.String() == truthTier {
				tierHits[truthTier]++
			}
		} else {
			falseNegative++
			confusion[truthTier]["weak"]++
		}
	}
	for pair, est := range estimated {
		if _, ok := truth[pair]; !ok {
			falsePositive++
			tierGuessed[est.Tier.String()]++
		}
	}

	precision, recall, f1 := prf1(truePositive, falsePositive, falseNegative)

	var confSum float64
	for _, ed := range edges {
		confSum += ed.Confidence
	}
	avgConf := 0.0
	if len(edges) > 0 {
		avgConf = confSum / float64(len(edges))
	}

	tierMetrics := make(map[string]TierMetrics, len(tierNames))
	for _, name := range tierNames {
		if name == "weak" {
			continue
		}
		hits := tierHits[name]
		guessed := tierGuessed[name]
		actual := tierTruth[name]
		p, r, f := prf1(hits, guessed-hits, actual-hits)
		tierMetrics[name] = TierMetrics{Precision: p, Recall: r, F1Score: f}
	}

	return GraphReconstruction{
		Accuracy:      GraphAccuracy{Precision: precision, Recall: recall, F1Score: f1},
		TotalNodes:    e.Graph.N(),
		TotalEdges:    len(truth),
		AvgConfidence: avgConf,
		TierMetrics:   tierMetrics,
		TierConfusion: confusion,
	}
}

func prf1(tp, fp, fn int) (precision, recall, f1 float64) {
	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return
}

func (e *Evaluator) coverTrafficStats() CoverTrafficStats {
	total, dummy := 0, 0
	senderCounts := make(map[uint32]int)
	for _, rec := range e.SentLog {
		total++
		if rec.Dummy {
			dummy++
			senderCounts[rec.Sender]++
		}
	}
	fraction := 0.0
	if total > 0 {
		fraction = float64(dummy) / float64(total)
	}
	return CoverTrafficStats{
		TotalMessages: total,
		DummyMessages: dummy,
		DummyFraction: fraction,
		SenderEntropy: entropy(senderCounts, dummy),
	}
}

func entropy(counts map[uint32]int, total int) float64 {
	if total == 0 {
		return 0
	}
	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		h -= p * math.Log2(p)
	}
	return h
}

func (e *Evaluator) routingStats() RoutingStats {
	if len(e.SentLog) == 0 {
		return RoutingStats{}
	}
	var totalLen, short int
	seen := make(map[string]struct{})
	for _, rec := range e.SentLog {
		totalLen += len(rec.Path)
		if len(rec.Path) <= 3 {
			short++
		}
		seen[pathKey(rec.Path)] = struct{}{}
	}
	n := float64(len(e.SentLog))
	return RoutingStats{
		AvgPathLength:     float64(totalLen) / n,
		PathDiversity:     float64(len(seen)) / n,
		ShortPathFraction: float64(short) / n,
	}
}

func pathKey(path []uint32) string {
	// Path length is bounded by Hmax+1 (small), so a byte-packed key is
	// cheap enough here despite spec.md §9's hot-path caution, which
	// targets the per-epoch cover/adversary maps, not this one-shot
	// end-of-run diversity count.
	buf := make([]byte, 0, len(path)*5)
	for _, n := range path {
		buf = append(buf, byte(n), byte(n>>8), byte(n>>16), byte(n>>24), ',')
	}
	return string(buf)
}

func (e *Evaluator) conversationStats() ConversationStats {
	var replies int
	var delaySum float64
	lastEpoch := make(map[socialgraph.PairKey]int)
	for _, rec := range e.SentLog {
		pair := socialgraph.NewPairKey(rec.Sender, rec.Recipient)
		if rec.IsReply {
			replies++
			if prev, ok := lastEpoch[pair]; ok {
				delaySum += float64(rec.T - prev)
			}
		}
		lastEpoch[pair] = rec.T
	}
	threads := len(e.Threads)
	var msgSum int
	for _, th := range e.Threads {
		msgSum += th.MessageCount
	}
	avgMsgs := 0.0
	if threads > 0 {
		avgMsgs = float64(msgSum) / float64(threads)
	}
	avgDelay := 0.0
	if replies > 0 {
		avgDelay = delaySum / float64(replies)
	}
	return ConversationStats{
		TotalReplies:         replies,
		AvgReplyDelay:        avgDelay,
		ConversationThreads:  threads,
		AvgMessagesPerThread: avgMsgs,
	}
}
