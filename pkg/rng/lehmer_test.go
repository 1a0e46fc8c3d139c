package rng

import "testing"

func TestDeterministicStream(t *testing.T) {
	a := New(42)
	b := New(42)

	for i := 0; i < 100; i++ {
		va, vb := a.Float64(), b.Float64()
		if va != vb {
			t.Fatalf("stream diverged at draw %d: %v != %v", i, va, vb)
		}
		if va < 0 || va >= 1 {
			t.Fatalf("draw %d out of range: %v", i, va)
		}
	}
}

func TestSeedNormalization(t *testing.T) {
	seeds := []int64{0, -1, -modulus, modulus, modulus * 3}
	for _, s := range seeds {
		g := New(s)
		if g.state <= 0 || g.state >= modulus {
			t.Fatalf("seed %d normalized to out-of-range state %d", s, g.state)
		}
		// Must still produce a usable stream.
		v := g.Float64()
		if v < 0 || v >= 1 {
			t.Fatalf("seed %d produced out-of-range draw %v", s, v)
		}
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := New(1)
	b := New(2)
	same := true
	for i := 0; i < 20; i++ {
		if a.Float64() != b.Float64() {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("expected seeds 1 and 2 to diverge")
	}
}

func TestForkIndependentFromParent(t *testing.T) {
	parent := New(7)
	child := parent.Fork(1)

	parentDraws := make([]float64, 10)
	for i := range parentDraws {
		parentDraws[i] = parent.Float64()
	}

	// Forking must not have consumed from parent's stream: replaying a
	// fresh generator with the same seed reproduces the same draws.
	replay := New(7)
	for i := 0; i < 10; i++ {
		if replay.Float64() != parentDraws[i] {
			t.Fatalf("fork consumed parent stream at draw %d", i)
		}
	}

	if child.Float64() == New(7).Float64() {
		t.Fatalf("forked stream should not trivially equal the parent's own stream")
	}
}

func TestIntnBounds(t *testing.T) {
	g := New(99)
	for i := 0; i < 1000; i++ {
		v := g.Intn(5)
		if v < 0 || v >= 5 {
			t.Fatalf("Intn(5) out of range: %d", v)
		}
	}
	if g.Intn(0) != 0 {
		t.Fatalf("Intn(0) should return 0")
	}
}
