package socialgraph

import "testing"

func testConfig(seed int64) Config {
	return Config{
		PIntimate:     0.04,
		PFriend:       0.10,
		PAcquaintance: 0.20,
		PBridge:       0.10,
		Seed:          seed,
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	cfg := testConfig(7)
	g1, t1 := Build(60, cfg, nil)
	g2, t2 := Build(60, cfg, nil)

	if g1.N() != g2.N() {
		t.Fatalf("node count mismatch")
	}
	for u := 0; u < g1.N(); u++ {
		n1, n2 := g1.Neighbors(uint32(u)), g2.Neighbors(uint32(u))
		if len(n1) != len(n2) {
			t.Fatalf("node %d degree mismatch: %d vs %d", u, len(n1), len(n2))
		}
		for i := range n1 {
			if n1[i] != n2[i] {
				t.Fatalf("node %d neighbor %d mismatch: %d vs %d", u, i, n1[i], n2[i])
			}
		}
	}
	if t1.Len() != t2.Len() {
		t.Fatalf("tier map size mismatch: %d vs %d", t1.Len(), t2.Len())
	}
}

func TestBuildSymmetric(t *testing.T) {
	g, tiers := Build(80, testConfig(11), nil)
	for u := 0; u < g.N(); u++ {
		for _, v := range g.Neighbors(uint32(u)) {
			if !g.HasEdge(v, uint32(u)) {
				t.Fatalf("edge (%d,%d) not symmetric", u, v)
			}
			tu, ok := tiers.Tier(uint32(u), v)
			if !ok {
				t.Fatalf("edge (%d,%d) missing tier", u, v)
			}
			tv, ok := tiers.Tier(v, uint32(u))
			if !ok || tu != tv {
				t.Fatalf("edge (%d,%d) tier not symmetric: %v vs %v", u, v, tu, tv)
			}
		}
	}
}

func TestTierOrderingInExpectation(t *testing.T) {
	var intimate, friend, acquaintance int
	g, tiers := Build(150, testConfig(3), nil)
	_ = g
	tiers.Range(func(u, v uint32, tier Tier) {
		switch tier {
		case Intimate:
			intimate++
		case Friend:
			friend++
		case Acquaintance:
			acquaintance++
		}
	})
	if intimate > friend || friend > acquaintance {
		t.Fatalf("tier ordering violated: intimate=%d friend=%d acquaintance=%d", intimate, friend, acquaintance)
	}
}

func TestPairKeyCanonical(t *testing.T) {
	a := NewPairKey(3, 9)
	b := NewPairKey(9, 3)
	if a != b {
		t.Fatalf("pair key not canonical: %v vs %v", a, b)
	}
	if a.Hash() != b.Hash() {
		t.Fatalf("pair key hash not canonical")
	}
}

func TestNoIsolatedGrowthFromBridgesAlone(t *testing.T) {
	cfg := testConfig(21)
	cfg.PBridge = 0
	g, _ := Build(40, cfg, nil)
	for u := 0; u < g.N(); u++ {
		if g.Degree(uint32(u)) == 0 {
			t.Fatalf("node %d unexpectedly isolated with tier probabilities set", u)
		}
	}
}
