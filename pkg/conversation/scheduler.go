package conversation

import (
	"meshveil/pkg/rng"
	"meshveil/pkg/socialgraph"
)

// Outcome classifies when (if at all) a reply to a given send occurs.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeInstant
	OutcomeDelayed
	OutcomeEventual
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInstant:
		return "instant"
	case OutcomeDelayed:
		return "delayed"
	case OutcomeEventual:
		return "eventual"
	default:
		return "none"
	}
}

const subEpochsPerEpoch = 6

// tierMultiplier scales the base reply-outcome weights by relationship
// strength: intimates reply readily, acquaintances rarely.
func tierMultiplier(tier socialgraph.Tier) float64 {
	switch tier {
	case socialgraph.Intimate:
		return 1.5
	case socialgraph.Friend:
		return 1.0
	default:
		return 0.6
	}
}

// Decision is the result of scheduling a reply: the sub-epoch it
// should fire in, and which outcome band produced it.
type Decision struct {
	SubEpoch int
	Outcome  Outcome
}

// ScheduleReply decides whether a reply will occur to a message sent
// at subEpoch from sender to recipient across the given tier, and if
// so, which sub-epoch it lands in. The four outcome bands (instant,
// delayed, eventual, none) are weighted 0.25, 0.60, 0.10, 0.05,
// scaled by the tier multiplier on every band but "none".
func ScheduleReply(tier socialgraph.Tier, subEpoch int, r *rng.Lehmer) (Decision, bool) {
	m := tierMultiplier(tier)
	wInstant := 0.25 * m
	wDelayed := 0.60 * m
	wEventual := 0.10 * m
	wNone := 0.05

	total := wInstant + wDelayed + wEventual + wNone
	draw := r.Float64() * total

	epoch := subEpoch / subEpochsPerEpoch

	switch {
	case draw < wInstant:
		return Decision{SubEpoch: subEpoch, Outcome: OutcomeInstant}, true

	case draw < wInstant+wDelayed:
		replyEpoch := epoch + 1 + r.Intn(5)
		se := replyEpoch*subEpochsPerEpoch + r.Intn(subEpochsPerEpoch)
		return Decision{SubEpoch: se, Outcome: OutcomeDelayed}, true

	case draw < wInstant+wDelayed+wEventual:
		replyEpoch := epoch + 5 + r.Intn(15)
		se := replyEpoch*subEpochsPerEpoch + r.Intn(subEpochsPerEpoch)
		return Decision{SubEpoch: se, Outcome: OutcomeEventual}, true

	default:
		return Decision{}, false
	}
}
