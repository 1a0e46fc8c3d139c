// Package adversary implements the local-passive adversary: temporal
// scoring of candidate recipients per observed send, and periodic
// reconstruction of a weighted, tiered estimate of the social graph
// (spec.md §4.8, C9).
package adversary

import (
	"sort"

	"meshveil/pkg/socialgraph"
)

// Guess is one scored recipient decision the engine committed to.
type Guess struct {
	T      int
	Sender uint32
	Target uint32
}

type directedPair struct {
	From, To uint32
}

// linkHistory stores per-epoch contact counts for one undirected edge,
// keyed (like pkg/cover) by the edge's xxhash-backed PairKey hash
// rather than the struct itself.
type linkHistory struct {
	pair   socialgraph.PairKey
	counts map[int]int
}

// Engine is the local-passive adversary's accumulated state across one
// experiment. It never reads the ground-truth message log in its
// production path (NoteSend/NoteContact/InferEpoch); Results accepts
// no ground truth either; any comparison against ground truth belongs
// to pkg/eval.
type Engine struct {
	n        int
	observed map[uint32]struct{}

	links map[uint64]*linkHistory

	sendEvents  map[int][]uint32 // epoch -> pending senders not yet scored
	activeNodes map[int]map[uint32]struct{}

	guesses       []Guess
	guessCounts   map[directedPair]int
	scoredSenders map[int]map[uint32]struct{}

	estimated *estimatedGraph
}

// NewEngine builds an adversary engine over a universe of n nodes,
// observing link traffic incident to the given observed node ids.
func NewEngine(n int, observed []uint32) *Engine {
	obs := make(map[uint32]struct{}, len(observed))
	for _, o := range observed {
		obs[o] = struct{}{}
	}
	return &Engine{
		n:             n,
		observed:      obs,
		links:         make(map[uint64]*linkHistory),
		sendEvents:    make(map[int][]uint32),
		activeNodes:   make(map[int]map[uint32]struct{}),
		guessCounts:   make(map[directedPair]int),
		scoredSenders: make(map[int]map[uint32]struct{}),
		estimated:     newEstimatedGraph(),
	}
}

func (e *Engine) historyFor(pair socialgraph.PairKey) *linkHistory {
	key := pair.Hash()
	h, ok := e.links[key]
	if !ok {
		h = &linkHistory{pair: pair, counts: make(map[int]int)}
		e.links[key] = h
	}
	return h
}

func (e *Engine) countAt(pair socialgraph.PairKey, epoch int) int {
	h, ok := e.links[pair.Hash()]
	if !ok {
		return 0
	}
	return h.counts[epoch]
}

func (e *Engine) isObserved(u uint32) bool {
	_, ok := e.observed[u]
	return ok
}

func (e *Engine) markActive(t int, nodes ...uint32) {
	set, ok := e.activeNodes[t]
	if !ok {
		set = make(map[uint32]struct{})
		e.activeNodes[t] = set
	}
	for _, n := range nodes {
		set[n] = struct{}{}
	}
}

func (e *Engine) isActive(t int, u uint32) bool {
	set, ok := e.activeNodes[t]
	if !ok {
		return false
	}
	_, ok = set[u]
	return ok
}

// NoteSend records that sender originated (or appeared to originate)
// a message at epoch t. It is not scored immediately: scoring happens
// at InferEpoch(t) once all of this epoch's contacts are in, so the
// candidate recipient can use data up to and including t.
func (e *Engine) NoteSend(t int, sender uint32) {
	e.sendEvents[t] = append(e.sendEvents[t], sender)
}

// NoteContact records a materialized per-link packet count for epoch
// t. Contacts with neither endpoint observed are invisible to a
// local-passive adversary and are dropped.
func (e *Engine) NoteContact(t int, a, b uint32, count int) {
	if count <= 0 {
		return
	}
	if !e.isObserved(a) && !e.isObserved(b) {
		return
	}
	pair := socialgraph.NewPairKey(a, b)
	h := e.historyFor(pair)
	h.counts[t] += count
	e.markActive(t, a, b)
}

// InferEpoch scores every pending send from epoch t against its
// candidate recipients, records the engine's best guess for each, and
// — every 20 epochs, plus whenever Results is called — rebuilds the
// estimated graph. adjacency is the candidate-generation substrate
// (spec.md §4.8's `adj(s)`); in this simulator that is the true social
// graph, modeling an adversary that has approximated the network's
// topology through means outside this engine's own observations.
func (e *Engine) InferEpoch(t int, adjacency *socialgraph.Graph) {
	for _, s := range e.sendEvents[t] {
		e.scoreSend(t, s, adjacency)
	}
	delete(e.sendEvents, t)

	if t > 0 && t%20 == 0 {
		e.rebuild()
	}
}

// candidateSet implements "C = (estimatedNeighbors(s) ∩ adj(s)) if
// non-empty else adj(s)".
func (e *Engine) candidateSet(s uint32, adjacency *socialgraph.Graph) []uint32 {
	trueNeighbors := adjacency.Neighbors(s)
	estNeighbors := e.estimated.neighbors(s)
	if len(estNeighbors) == 0 {
		return trueNeighbors
	}
	var out []uint32
	for _, v := range trueNeighbors {
		if estNeighbors[v] {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return trueNeighbors
	}
	return out
}

func (e *Engine) scoreSend(t int, s uint32, adjacency *socialgraph.Graph) {
	candidates := e.candidateSet(s, adjacency)
	if len(candidates) == 0 {
		return
	}
	sorted := append([]uint32(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var best uint32
	bestScore := -1.0
	for _, v := range sorted {
		score := e.score(t, s, v)
		if score > bestScore {
			bestScore = score
			best = v
		}
	}

	e.guesses = append(e.guesses, Guess{T: t, Sender: s, Target: best})
	e.guessCounts[directedPair{From: s, To: best}]++

	set, ok := e.scoredSenders[t]
	if !ok {
		set = make(map[uint32]struct{})
		e.scoredSenders[t] = set
	}
	set[s] = struct{}{}
}

// score implements spec.md §4.8's weighted recipient score.
func (e *Engine) score(t int, s, v uint32) float64 {
	pair := socialgraph.NewPairKey(s, v)

	immediate := float64(e.countAt(pair, t))
	historical := float64(e.guessCounts[directedPair{From: s, To: v}])
	intersection := e.intersectionRate(t, s, v)

	stat, hasEdge := e.estimated.edge(pair)
	relationship := 0.0
	tierBonus := tierBonusUnknown
	if hasEdge {
		relationship = stat.OverallScore
		tierBonus = tierBonusFor(stat.Tier)
	}

	return 0.7*(0.5*immediate+0.2*historical+0.1*intersection) +
		0.3*(0.001*relationship+tierBonus)
}

// intersectionRate computes the fraction of s's sends in [t-10, t)
// where v was co-active in the same or following epoch.
func (e *Engine) intersectionRate(t int, s, v uint32) float64 {
	var hits, total int
	lo := t - 10
	if lo < 0 {
		lo = 0
	}
	for tt := lo; tt < t; tt++ {
		if !e.senderActiveAt(tt, s) {
			continue
		}
		total++
		if e.isActive(tt, v) || e.isActive(tt+1, v) {
			hits++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// senderActiveAt reports whether s had a scored send at epoch tt.
func (e *Engine) senderActiveAt(tt int, s uint32) bool {
	set, ok := e.scoredSenders[tt]
	if !ok {
		return false
	}
	_, ok = set[s]
	return ok
}

// Guesses returns every recipient guess recorded so far.
func (e *Engine) Guesses() []Guess { return e.guesses }
