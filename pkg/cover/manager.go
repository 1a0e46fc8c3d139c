// Package cover implements the link-level cover-traffic injector that
// normalizes recent message volume per social-graph edge toward an
// adaptive baseline (spec.md §4.6, C7).
package cover

import (
	"meshveil/pkg/rng"
	"meshveil/pkg/socialgraph"
)

// Config holds the cover-traffic tuning knobs. Zero-value Enabled
// means C7 is a no-op, matching the "poisonRate=0" sweep point.
type Config struct {
	Enabled              bool
	TargetMultiplier     float64
	MinTarget            float64
	MaxTarget            float64
	WindowSize           int
	NoiseStddev          float64
	ProbabilityThreshold float64
}

type linkEntry struct {
	Epoch      int
	RealCount  int
	CoverCount int
}

// Dummy is a cover message scheduled between two directly linked
// nodes at a given epoch. The orchestrator is responsible for giving
// it its own path through C5 and recording it in the message log.
type Dummy struct {
	From, To uint32
	Epoch    int
}

// linkHistory is the per-edge history bucket, keyed in Manager by the
// edge's xxhash-backed PairKey hash rather than the struct itself, to
// avoid string-interpolated keys in this hot per-epoch path (spec.md
// §9 design note).
type linkHistory struct {
	pair    socialgraph.PairKey
	entries []linkEntry
}

// Manager tracks per-link recent history and emits dummy traffic.
type Manager struct {
	cfg      Config
	history  map[uint64]*linkHistory
	baseline float64
}

// NewManager builds a cover-traffic manager under cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:     cfg,
		history: make(map[uint64]*linkHistory),
	}
}

// Enabled reports whether cover traffic is active for this run.
func (m *Manager) Enabled() bool { return m.cfg.Enabled }

func (m *Manager) historyFor(pair socialgraph.PairKey) *linkHistory {
	key := pair.Hash()
	h, ok := m.history[key]
	if !ok {
		h = &linkHistory{pair: pair}
		m.history[key] = h
	}
	return h
}

func (m *Manager) entryAt(pair socialgraph.PairKey, epoch int) *linkEntry {
	h := m.historyFor(pair)
	for i := range h.entries {
		if h.entries[i].Epoch == epoch {
			return &h.entries[i]
		}
	}
	h.entries = append(h.entries, linkEntry{Epoch: epoch})
	return &h.entries[len(h.entries)-1]
}

// RecordRealMessage records a real send on its originating link.
func (m *Manager) RecordRealMessage(a, b uint32, epoch int) {
	pair := socialgraph.NewPairKey(a, b)
	m.entryAt(pair, epoch).RealCount++
}

func (m *Manager) recordCoverEvent(a, b uint32, epoch int) {
	pair := socialgraph.NewPairKey(a, b)
	m.entryAt(pair, epoch).CoverCount++
}

func (m *Manager) windowSum(pair socialgraph.PairKey, epoch int) int {
	h, ok := m.history[pair.Hash()]
	if !ok {
		return 0
	}
	sum := 0
	for _, e := range h.entries {
		if e.Epoch >= epoch-m.cfg.WindowSize && e.Epoch < epoch {
			sum += e.RealCount + e.CoverCount
		}
	}
	return sum
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// updateBaseline recomputes the adaptive baseline once the window has
// filled: the average real-message count per active link over the
// last W epochs, scaled and clamped.
func (m *Manager) updateBaseline(epoch int) {
	if epoch < m.cfg.WindowSize {
		return
	}
	totalReal := 0
	activeLinks := 0
	for _, h := range m.history {
		sum := 0
		for _, e := range h.entries {
			if e.Epoch >= epoch-m.cfg.WindowSize && e.Epoch < epoch {
				sum += e.RealCount
			}
		}
		if sum > 0 {
			totalReal += sum
			activeLinks++
		}
	}
	if activeLinks == 0 {
		m.baseline = m.cfg.MinTarget
		return
	}
	avg := float64(totalReal) / float64(activeLinks)
	m.baseline = clampF(avg*m.cfg.TargetMultiplier, m.cfg.MinTarget, m.cfg.MaxTarget)
}

// InjectCover runs one epoch's cover-traffic pass across every edge in
// g, returning the dummy messages that were actually emitted (after
// the independent per-candidate probabilityThreshold draw).
func (m *Manager) InjectCover(epoch int, g *socialgraph.Graph, r *rng.Lehmer) []Dummy {
	if !m.cfg.Enabled {
		return nil
	}
	m.updateBaseline(epoch)

	var out []Dummy
	for _, pair := range g.Edges() {
		recent := m.windowSum(pair, epoch)
		target := clampF(m.baseline+r.Gauss(0, m.cfg.NoiseStddev), m.cfg.MinTarget, m.cfg.MaxTarget)
		targetFloor := int(target)
		deficit := targetFloor - recent
		if deficit <= 0 {
			continue
		}
		amount := poisson(float64(deficit), r)
		for i := 0; i < amount; i++ {
			if r.Bool(m.cfg.ProbabilityThreshold) {
				out = append(out, Dummy{From: pair.Lo, To: pair.Hi, Epoch: epoch})
				m.recordCoverEvent(pair.Lo, pair.Hi, epoch)
			}
		}
	}

	m.prune(epoch)
	return out
}

// prune drops history entries older than W+10 epochs, the retention
// window spec.md pins for per-link recent history.
func (m *Manager) prune(epoch int) {
	cutoff := epoch - (m.cfg.WindowSize + 10)
	for key, h := range m.history {
		kept := h.entries[:0:0]
		for _, e := range h.entries {
			if e.Epoch >= cutoff {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(m.history, key)
		} else {
			h.entries = kept
		}
	}
}

// Baseline returns the most recently computed adaptive baseline, for
// evaluation/reporting.
func (m *Manager) Baseline() float64 { return m.baseline }
