// Package conversation implements tier-weighted reply scheduling and
// per-pair conversation-thread decay (spec.md §4.5, C6).
package conversation

import (
	"math"

	"meshveil/pkg/rng"
	"meshveil/pkg/socialgraph"
)

// Thread tracks the state of an unordered pair's conversation.
type Thread struct {
	Participants socialgraph.PairKey
	MessageCount int
	LastActive   int
	IsActive     bool
}

const (
	maxThreadLen         = 5
	inactivityCutoff     = 10
	continuationBaseRate = 0.7
)

// Manager owns every conversation thread in an experiment, keyed by
// the unordered participant pair.
type Manager struct {
	threads map[socialgraph.PairKey]*Thread
}

// NewManager returns an empty thread manager.
func NewManager() *Manager {
	return &Manager{threads: make(map[socialgraph.PairKey]*Thread)}
}

func (m *Manager) getOrCreate(a, b uint32, epoch int) *Thread {
	key := socialgraph.NewPairKey(a, b)
	th, ok := m.threads[key]
	if !ok {
		th = &Thread{Participants: key, LastActive: epoch, IsActive: true}
		m.threads[key] = th
	}
	return th
}

// ShouldContinue implements the thread's continuation gate: a queued
// reply is actually emitted iff messageCount < 5, the thread has been
// active within the last 10 epochs, and a draw succeeds with
// probability 0.7^messageCount. A successful call advances the
// thread's message count and last-active epoch.
func (m *Manager) ShouldContinue(a, b uint32, epoch int, r *rng.Lehmer) bool {
	th := m.getOrCreate(a, b, epoch)
	if !th.IsActive {
		return false
	}
	if th.MessageCount >= maxThreadLen {
		th.IsActive = false
		return false
	}
	if epoch-th.LastActive > inactivityCutoff {
		th.IsActive = false
		return false
	}
	if !r.Bool(math.Pow(continuationBaseRate, float64(th.MessageCount))) {
		return false
	}
	th.MessageCount++
	th.LastActive = epoch
	return true
}

// Thread returns the thread for pair (a, b) if one exists.
func (m *Manager) Thread(a, b uint32) (*Thread, bool) {
	th, ok := m.threads[socialgraph.NewPairKey(a, b)]
	return th, ok
}

// Threads returns every thread ever created, for evaluation.
func (m *Manager) Threads() []*Thread {
	out := make([]*Thread, 0, len(m.threads))
	for _, th := range m.threads {
		out = append(out, th)
	}
	return out
}
