package temporal

import (
	"math"

	"meshveil/pkg/rng"
)

// Distributor maps timestamped events into sub-epoch buckets and
// injects bursty follow-on traffic (spec.md §4.3, C4).
type Distributor struct {
	// SubEpochsPerHour, BurstProbability, and BurstWindow default to
	// 6, 0.2, and 2 respectively when zero.
	SubEpochsPerHour int
	BurstProbability float64
	BurstWindow      int
}

func (d Distributor) subEpochsPerHour() int {
	if d.SubEpochsPerHour <= 0 {
		return 6
	}
	return d.SubEpochsPerHour
}

func (d Distributor) burstProbability() float64 {
	if d.BurstProbability == 0 {
		return 0.2
	}
	return d.BurstProbability
}

func (d Distributor) burstWindow() int {
	if d.BurstWindow <= 0 {
		return 2
	}
	return d.BurstWindow
}

const (
	burstSizeMin = 2
	burstSizeMax = 5
)

// Distribute buckets events into totalHours*subEpochsPerHour buckets
// indexed by sub-epoch, and for each event, with probability
// BurstProbability, appends (burstSize-1) additional copies at nearby
// buckets within BurstWindow.
func (d Distributor) Distribute(events []Event, totalHours int, g *rng.Lehmer) [][]uint32 {
	subEpochsPerHour := d.subEpochsPerHour()
	totalSubEpochs := totalHours * subEpochsPerHour
	horizonMs := int64(totalHours) * HourMs
	buckets := make([][]uint32, totalSubEpochs)

	for _, e := range events {
		bucket := bucketFor(e.TimestampMs, horizonMs, totalSubEpochs, g)
		buckets[bucket] = append(buckets[bucket], e.UserID)

		if !g.Bool(d.burstProbability()) {
			continue
		}
		size := burstSizeMin + g.Intn(burstSizeMax-burstSizeMin+1)
		window := d.burstWindow()
		for i := 0; i < size-1; i++ {
			offset := g.Intn(2*window+1) - window
			nb := clamp(bucket+offset, 0, totalSubEpochs-1)
			buckets[nb] = append(buckets[nb], e.UserID)
		}
	}
	return buckets
}

func bucketFor(t, horizonMs int64, totalSubEpochs int, g *rng.Lehmer) int {
	if horizonMs <= 0 || totalSubEpochs <= 0 {
		return 0
	}
	raw := int(float64(t) / float64(horizonMs) * float64(totalSubEpochs))
	jitter := int(math.Floor((g.Float64() - 0.5) * 2))
	return clamp(raw+jitter, 0, totalSubEpochs-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
