package socialgraph

// Tier labels the strength of a social edge. Ordering is meaningful:
// Intimate > Friend > Acquaintance, and whenever two tier assignments
// for the same edge conflict, the stronger one wins.
type Tier int

const (
	Acquaintance Tier = iota + 1
	Friend
	Intimate
)

// String renders the tier the way it appears in the JSON ground-truth
// record.
func (t Tier) String() string {
	switch t {
	case Intimate:
		return "intimate"
	case Friend:
		return "friend"
	case Acquaintance:
		return "acquaintance"
	default:
		return "unknown"
	}
}

// Stronger returns the stronger of two tiers.
func Stronger(a, b Tier) Tier {
	if a > b {
		return a
	}
	return b
}

// TierMap records, for every edge, the tier both endpoints agree on.
type TierMap struct {
	tiers map[PairKey]Tier
}

// NewTierMap returns an empty tier map.
func NewTierMap() *TierMap {
	return &TierMap{tiers: make(map[PairKey]Tier)}
}

// Set records tier for the (u, v) edge, keeping the stronger tier if
// one was already recorded — this is the "reconcile by keeping the
// stronger tier" rule from spec.md §3 and §4.2.
func (m *TierMap) Set(u, v uint32, tier Tier) {
	key := NewPairKey(u, v)
	if existing, ok := m.tiers[key]; ok {
		m.tiers[key] = Stronger(existing, tier)
		return
	}
	m.tiers[key] = tier
}

// Tier looks up the tier of edge (u, v). ok is false if no edge is
// recorded for that pair.
func (m *TierMap) Tier(u, v uint32) (Tier, bool) {
	t, ok := m.tiers[NewPairKey(u, v)]
	return t, ok
}

// Len returns the number of distinct edges with a recorded tier.
func (m *TierMap) Len() int { return len(m.tiers) }

// Range calls fn for every recorded edge.
func (m *TierMap) Range(fn func(u, v uint32, tier Tier)) {
	for k, t := range m.tiers {
		fn(k.Lo, k.Hi, t)
	}
}
