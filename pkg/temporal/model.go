// Package temporal implements the per-user send-rate model and the
// diurnal event generator (spec.md §4.3, C3), plus the sub-epoch
// distribution and burst injection that follows it (C4).
package temporal

import (
	"math"
	"sort"

	"meshveil/pkg/rng"
)

// RateConfig parameterizes per-user daily send-rate sampling.
type RateConfig struct {
	MinPerDay int
	MaxPerDay int

	// Skew and HeavyUserFraction default to 0.6 and 0.15 when zero.
	Skew              float64
	HeavyUserFraction float64
}

func (c RateConfig) skew() float64 {
	if c.Skew == 0 {
		return 0.6
	}
	return c.Skew
}

func (c RateConfig) heavyFraction() float64 {
	if c.HeavyUserFraction == 0 {
		return 0.15
	}
	return c.HeavyUserFraction
}

// SampleUserMeans draws each user's integer daily message rate. A
// user is "heavy" with probability HeavyUserFraction and draws
// uniformly from the lower 80% of [MinPerDay, MaxPerDay]; regular
// users draw U^Skew scaled into the lower 40% of that range.
func SampleUserMeans(n int, cfg RateConfig, g *rng.Lehmer) []int {
	spread := float64(cfg.MaxPerDay - cfg.MinPerDay)
	rates := make([]int, n)
	for u := 0; u < n; u++ {
		heavy := g.Bool(cfg.heavyFraction())
		draw := g.Float64()
		var rate float64
		if heavy {
			rate = float64(cfg.MinPerDay) + draw*spread*0.8
		} else {
			rate = float64(cfg.MinPerDay) + math.Pow(draw, cfg.skew())*spread*0.4
		}
		rates[u] = int(rate)
	}
	return rates
}

// Event is a single message-generation event before routing.
type Event struct {
	UserID      uint32
	Hour        int
	TimestampMs int64
}

// HourMs is the number of simulated milliseconds in one epoch/hour.
const HourMs int64 = 3_600_000

// GenerateEvents produces the timestamped send-event stream for
// totalHours hours (spec.md's generateEventsForHours generalized from
// a single day to the full simulation horizon: hour%24 indexes the
// diurnal curve while the absolute hour drives the timestamp, so a
// multi-day run repeats the same daily shape). Events are sorted by
// timestamp.
func GenerateEvents(rates []int, curve Curve, totalHours int, g *rng.Lehmer) []Event {
	mult := curve.Multipliers()
	var events []Event
	for hour := 0; hour < totalHours; hour++ {
		m := mult[hour%24]
		for u, rate := range rates {
			p := math.Min(0.8, (float64(rate)/24.0)*m)
			if !g.Bool(p) {
				continue
			}
			count := 1 + g.Intn(3)
			for i := 0; i < count; i++ {
				jitter := g.Float64()
				ts := int64(hour)*HourMs + int64(jitter*float64(HourMs))
				events = append(events, Event{UserID: uint32(u), Hour: hour, TimestampMs: ts})
			}
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].TimestampMs < events[j].TimestampMs })
	return events
}
