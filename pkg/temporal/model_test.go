package temporal

import (
	"testing"

	"meshveil/pkg/rng"
)

func TestSampleUserMeansInRange(t *testing.T) {
	g := rng.New(5)
	rates := SampleUserMeans(200, RateConfig{MinPerDay: 2, MaxPerDay: 20}, g)
	if len(rates) != 200 {
		t.Fatalf("expected 200 rates, got %d", len(rates))
	}
	for i, r := range rates {
		if r < 2 || r > 20 {
			t.Fatalf("rate[%d]=%d out of configured [2,20] range", i, r)
		}
	}
}

func TestGenerateEventsSortedByTimestamp(t *testing.T) {
	g := rng.New(9)
	rates := SampleUserMeans(50, RateConfig{MinPerDay: 5, MaxPerDay: 30}, g)
	events := GenerateEvents(rates, CampusCurve{}, 48, g)
	if len(events) == 0 {
		t.Fatalf("expected some events")
	}
	for i := 1; i < len(events); i++ {
		if events[i].TimestampMs < events[i-1].TimestampMs {
			t.Fatalf("events not sorted at index %d", i)
		}
	}
}

func TestCampusCurvePeakAndTrough(t *testing.T) {
	m := CampusCurve{}.Multipliers()
	if m[13] != 1.4 {
		t.Fatalf("expected peak of 1.4 at hour 13, got %v", m[13])
	}
	for _, h := range []int{1, 2, 3, 23} {
		if m[h] != 0.1 {
			t.Fatalf("expected overnight floor of 0.1 at hour %d, got %v", h, m[h])
		}
	}
}

func TestDistributeBucketsWithinRange(t *testing.T) {
	g := rng.New(3)
	rates := SampleUserMeans(30, RateConfig{MinPerDay: 5, MaxPerDay: 15}, g)
	events := GenerateEvents(rates, CampusCurve{}, 24, g)
	d := Distributor{}
	buckets := d.Distribute(events, 24, g)
	if len(buckets) != 24*6 {
		t.Fatalf("expected %d buckets, got %d", 24*6, len(buckets))
	}
	total := 0
	for _, b := range buckets {
		total += len(b)
	}
	if total < len(events) {
		t.Fatalf("distributed fewer entries (%d) than base events (%d) even accounting for bursts", total, len(events))
	}
}

func TestLuaCurveTable(t *testing.T) {
	script := `
local t = {}
for i = 1, 24 do t[i] = 2.0 end
return t
`
	c := &LuaCurve{Script: script}
	m := c.Multipliers()
	for i, v := range m {
		if v != 2.0 {
			t.Fatalf("hour %d: expected 2.0, got %v", i, v)
		}
	}
}

func TestLuaCurveFunction(t *testing.T) {
	script := `return function(hour) return hour / 10.0 end`
	c := &LuaCurve{Script: script}
	m := c.Multipliers()
	if m[10] != 1.0 {
		t.Fatalf("expected m[10]=1.0, got %v", m[10])
	}
}

func TestLuaCurveMalformedFallsBackToFlat(t *testing.T) {
	c := &LuaCurve{Script: `this is not lua`}
	m := c.Multipliers()
	for i, v := range m {
		if v != 1.0 {
			t.Fatalf("hour %d: expected fallback 1.0, got %v", i, v)
		}
	}
}
