// Package groundtruth persists and reconstructs the generated social
// graph as the external collaborator described in spec.md §6: a
// file-backed store keyed by (N, seed, tier probabilities), with an
// optional read-through cache in front of it (§11.2 of SPEC_FULL.md).
package groundtruth

import (
	"fmt"
	"strconv"
	"strings"

	"meshveil/pkg/socialgraph"
)

// Key identifies one ground-truth record.
type Key struct {
	N             int
	Seed          int64
	PIntimate     float64
	PFriend       float64
	PAcquaintance float64
}

// FileName returns the canonical on-disk name for Key, per spec.md
// §6: "graph_N<N>_seed<seed>_<pI>-<pF>-<pA>.json" with dots replaced
// by underscores in the probability components.
func (k Key) FileName() string {
	p := func(v float64) string {
		return strings.ReplaceAll(strconv.FormatFloat(v, 'f', -1, 64), ".", "_")
	}
	return fmt.Sprintf("graph_N%d_seed%d_%s-%s-%s.json", k.N, k.Seed, p(k.PIntimate), p(k.PFriend), p(k.PAcquaintance))
}

// cacheKey is the key this package uses against an optional redis
// cache: FileName prefixed with a package namespace, N and seed.
func (k Key) cacheKey() string {
	return fmt.Sprintf("meshveil:groundtruth:%d:%d:%s", k.N, k.Seed, k.FileName())
}

// TierProbabilities is the graph-construction probability triple
// recorded in Metadata, matching spec.md §6's "tierProbabilities"
// field shape.
type TierProbabilities struct {
	Intimate     float64 `json:"intimate"`
	Friend       float64 `json:"friend"`
	Acquaintance float64 `json:"acquaintance"`
}

// Metadata records how a ground-truth record was generated.
type Metadata struct {
	N                 int                `json:"N"`
	Seed              int64              `json:"seed"`
	TierProbabilities TierProbabilities  `json:"tierProbabilities"`
	GeneratedAt       string             `json:"generatedAt"`
	Version           string             `json:"version"`
}

// Statistics summarizes the generated graph for quick inspection
// without re-walking the full adjacency/tier data (spec.md §6).
type Statistics struct {
	TotalNodes         int            `json:"totalNodes"`
	TotalEdges         int            `json:"totalEdges"`
	AvgDegree          float64        `json:"avgDegree"`
	MinDegree          int            `json:"minDegree"`
	MaxDegree          int            `json:"maxDegree"`
	DegreeDistribution map[string]int `json:"degreeDistribution"`
	TierDistribution   TierCounts     `json:"tierDistribution"`
	Components         int            `json:"components"`
	Diameter           int            `json:"diameter"`
	Clustering         float64        `json:"clustering"`
}

// TierCounts is the edge-count-per-tier breakdown in Statistics.
type TierCounts struct {
	Intimate     int `json:"intimate"`
	Friend       int `json:"friend"`
	Acquaintance int `json:"acquaintance"`
}

// Record is the full persisted ground-truth object (spec.md §6).
type Record struct {
	Metadata   Metadata
	Graph      *socialgraph.Graph
	TierMap    *socialgraph.TierMap
	Statistics Statistics
}

const formatVersion = "1"

// NewRecord builds a Record from a freshly generated graph, computing
// its Statistics.
func NewRecord(key Key, graph *socialgraph.Graph, tiers *socialgraph.TierMap, generatedAt string) Record {
	return Record{
		Metadata: Metadata{
			N:    key.N,
			Seed: key.Seed,
			TierProbabilities: TierProbabilities{
				Intimate:     key.PIntimate,
				Friend:       key.PFriend,
				Acquaintance: key.PAcquaintance,
			},
			GeneratedAt: generatedAt,
			Version:     formatVersion,
		},
		Graph:      graph,
		TierMap:    tiers,
		Statistics: ComputeStatistics(graph, tiers),
	}
}
