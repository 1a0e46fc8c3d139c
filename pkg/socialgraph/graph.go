// Package socialgraph builds and represents the tiered small-world
// social graph that every other simulation component reads from.
package socialgraph

import "github.com/cespare/xxhash/v2"

// PairKey canonically identifies an unordered pair of node ids. It is
// used instead of string interpolation as a map key in the hot paths
// that accumulate per-link state (cover traffic history, adversary
// link counts) — see spec.md's "map keyed by unordered pair" design
// note.
type PairKey struct {
	Lo, Hi uint32
}

// NewPairKey builds the canonical key for an unordered pair.
func NewPairKey(a, b uint32) PairKey {
	if a <= b {
		return PairKey{Lo: a, Hi: b}
	}
	return PairKey{Lo: b, Hi: a}
}

// Hash returns a fast, non-cryptographic hash of the key, for callers
// that want to bucket pair keys (e.g. sharded maps) rather than use
// the key directly as a Go map key.
func (p PairKey) Hash() uint64 {
	var buf [8]byte
	buf[0] = byte(p.Lo)
	buf[1] = byte(p.Lo >> 8)
	buf[2] = byte(p.Lo >> 16)
	buf[3] = byte(p.Lo >> 24)
	buf[4] = byte(p.Hi)
	buf[5] = byte(p.Hi >> 8)
	buf[6] = byte(p.Hi >> 16)
	buf[7] = byte(p.Hi >> 24)
	return xxhash.Sum64(buf[:])
}

// Graph is an undirected, immutable-once-built social graph over dense
// integer node ids [0, N).
type Graph struct {
	n   int
	adj [][]uint32 // adj[u] sorted ascending; symmetric by construction
}

// N returns the number of nodes.
func (g *Graph) N() int { return g.n }

// Neighbors returns node u's neighbors in ascending id order. The
// returned slice must not be mutated by callers.
func (g *Graph) Neighbors(u uint32) []uint32 {
	if int(u) >= g.n {
		return nil
	}
	return g.adj[u]
}

// Degree returns the number of neighbors of u.
func (g *Graph) Degree(u uint32) int {
	if int(u) >= g.n {
		return 0
	}
	return len(g.adj[u])
}

// HasEdge reports whether u and v are adjacent.
func (g *Graph) HasEdge(u, v uint32) bool {
	if int(u) >= g.n {
		return false
	}
	for _, w := range g.adj[u] {
		if w == v {
			return true
		}
		if w > v {
			break // adj[u] is sorted
		}
	}
	return false
}

// FromEdges builds a Graph over n nodes from an explicit edge list,
// symmetrizing automatically. Used by pkg/groundtruth to reconstruct a
// Graph from a persisted record, and by tests that need precise
// control over topology.
func FromEdges(n int, edges []PairKey) *Graph {
	adjSet := make([]map[uint32]struct{}, n)
	for i := range adjSet {
		adjSet[i] = make(map[uint32]struct{})
	}
	for _, e := range edges {
		if int(e.Lo) >= n || int(e.Hi) >= n {
			continue
		}
		adjSet[e.Lo][e.Hi] = struct{}{}
		adjSet[e.Hi][e.Lo] = struct{}{}
	}
	return finalize(n, adjSet)
}

// Edges returns every edge exactly once as a canonical PairKey.
func (g *Graph) Edges() []PairKey {
	var out []PairKey
	for u := 0; u < g.n; u++ {
		for _, v := range g.adj[u] {
			if uint32(u) < v {
				out = append(out, PairKey{Lo: uint32(u), Hi: v})
			}
		}
	}
	return out
}
