package adversary

import "meshveil/pkg/rng"

// Results bundles the adversary's final output for evaluation: every
// recipient guess made over the run, the reconstructed graph estimate,
// and community labels. Computing it triggers one final rebuild so
// the estimate reflects every epoch's data even if the run didn't end
// on a multiple-of-20 boundary (spec.md §4.8 "once at results()").
//
// This is purely an output accessor: unlike the original
// implementation's "AdversaryLP.results(sentLog)", it takes no
// ground-truth log. Comparing guesses against the true message log is
// pkg/eval's job, keeping the production inference path free of
// ground-truth leakage (spec.md §9 open question).
type Results struct {
	Guesses     []Guess
	Edges       []EdgeStat
	Communities map[uint32]int
}

// Results computes the engine's final output bundle. communityRNG
// drives the label-propagation shuffle (spec.md §9: "the per-pass
// shuffle uses the shared RNG").
func (e *Engine) Results(communityRNG *rng.Lehmer) Results {
	e.ForceRebuild()
	return Results{
		Guesses:     e.Guesses(),
		Edges:       e.EstimatedEdges(),
		Communities: e.CommunityLabels(communityRNG),
	}
}
