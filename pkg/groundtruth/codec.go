package groundtruth

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"meshveil/pkg/socialgraph"
)

// wireRecord is the exact on-disk JSON shape from spec.md §6.
type wireRecord struct {
	Metadata   Metadata            `json:"metadata"`
	Graph      map[string][]uint32 `json:"graph"`
	TierMap    map[string]map[string]string `json:"tierMap"`
	Statistics Statistics          `json:"statistics"`
}

// MarshalJSON renders Record in the exact shape spec.md §6 names:
// graph as an adjacency map keyed by string node id, tierMap as a
// nested map of string node ids to tier-name strings.
func (r Record) MarshalJSON() ([]byte, error) {
	w := wireRecord{
		Metadata:   r.Metadata,
		Graph:      make(map[string][]uint32, r.Graph.N()),
		TierMap:    make(map[string]map[string]string),
		Statistics: r.Statistics,
	}
	for u := 0; u < r.Graph.N(); u++ {
		nbrs := r.Graph.Neighbors(uint32(u))
		cp := make([]uint32, len(nbrs))
		copy(cp, nbrs)
		w.Graph[strconv.Itoa(u)] = cp
	}
	r.TierMap.Range(func(u, v uint32, tier socialgraph.Tier) {
		addTierEntry(w.TierMap, u, v, tier)
		addTierEntry(w.TierMap, v, u, tier)
	})
	return json.Marshal(w)
}

func addTierEntry(m map[string]map[string]string, u, v uint32, tier socialgraph.Tier) {
	uk := strconv.Itoa(int(u))
	if m[uk] == nil {
		m[uk] = make(map[string]string)
	}
	m[uk][strconv.Itoa(int(v))] = tier.String()
}

// UnmarshalJSON reconstructs Record from the spec.md §6 shape,
// rebuilding Graph and TierMap from their serialized forms.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("unmarshal ground-truth record: %w", err)
	}

	n := w.Metadata.N
	edges := make([]socialgraph.PairKey, 0, len(w.Graph))
	for uStr, neighbors := range w.Graph {
		u, err := strconv.Atoi(uStr)
		if err != nil {
			return fmt.Errorf("unmarshal ground-truth record: bad node id %q: %w", uStr, err)
		}
		for _, v := range neighbors {
			edges = append(edges, socialgraph.NewPairKey(uint32(u), v))
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Lo != edges[j].Lo {
			return edges[i].Lo < edges[j].Lo
		}
		return edges[i].Hi < edges[j].Hi
	})

	r.Metadata = w.Metadata
	r.Graph = socialgraph.FromEdges(n, edges)
	r.TierMap = socialgraph.NewTierMap()
	for uStr, row := range w.TierMap {
		u, err := strconv.Atoi(uStr)
		if err != nil {
			return fmt.Errorf("unmarshal ground-truth record: bad node id %q: %w", uStr, err)
		}
		for vStr, tierName := range row {
			v, err := strconv.Atoi(vStr)
			if err != nil {
				return fmt.Errorf("unmarshal ground-truth record: bad node id %q: %w", vStr, err)
			}
			tier, err := parseTier(tierName)
			if err != nil {
				return err
			}
			r.TierMap.Set(uint32(u), uint32(v), tier)
		}
	}
	r.Statistics = w.Statistics
	return nil
}

func parseTier(name string) (socialgraph.Tier, error) {
	switch name {
	case "intimate":
		return socialgraph.Intimate, nil
	case "friend":
		return socialgraph.Friend, nil
	case "acquaintance":
		return socialgraph.Acquaintance, nil
	default:
		return 0, fmt.Errorf("unmarshal ground-truth record: unknown tier %q", name)
	}
}
