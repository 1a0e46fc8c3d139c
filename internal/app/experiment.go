// Package app wires one experiment's RNG, graph, temporal stream,
// orchestrator, and adversary together and drives it to completion
// (spec.md §5, §10.1 of SPEC_FULL.md). It is the synchronous
// counterpart to cmd/sweep's bounded worker-pool fan-out across many
// experiments.
package app

import (
	"context"
	"fmt"
	"time"

	"meshveil/pkg/adversary"
	"meshveil/pkg/cover"
	"meshveil/pkg/eval"
	"meshveil/pkg/groundtruth"
	"meshveil/pkg/placement"
	"meshveil/pkg/report"
	"meshveil/pkg/rng"
	"meshveil/pkg/simulation"
	"meshveil/pkg/socialgraph"
	"meshveil/pkg/temporal"
)

// GraphParams parameterizes social-graph construction, shared between
// the ground-truth key and the builder config (spec.md §4.2).
type GraphParams struct {
	PIntimate     float64
	PFriend       float64
	PAcquaintance float64
	PBridge       float64
}

// CoverParams parameterizes the cover-traffic manager (spec.md §4.6).
// Zero values of TargetMultiplier, MaxTarget, WindowSize, NoiseStddev
// and ProbabilityThreshold fall back to the defaults set in toConfig;
// MinTarget is used as given.
type CoverParams struct {
	Enabled              bool
	TargetMultiplier     float64
	MinTarget            float64
	MaxTarget            float64
	WindowSize           int
	NoiseStddev          float64
	ProbabilityThreshold float64
}

func (c CoverParams) toConfig() cover.Config {
	cfg := cover.Config{
		Enabled:              c.Enabled,
		TargetMultiplier:     c.TargetMultiplier,
		MinTarget:            c.MinTarget,
		MaxTarget:            c.MaxTarget,
		WindowSize:           c.WindowSize,
		NoiseStddev:          c.NoiseStddev,
		ProbabilityThreshold: c.ProbabilityThreshold,
	}
	if cfg.TargetMultiplier == 0 {
		cfg.TargetMultiplier = 0.5
	}
	if cfg.MaxTarget == 0 {
		cfg.MaxTarget = 20
	}
	if cfg.WindowSize == 0 {
		cfg.WindowSize = 24
	}
	if cfg.NoiseStddev == 0 {
		cfg.NoiseStddev = 1.5
	}
	if cfg.ProbabilityThreshold == 0 {
		cfg.ProbabilityThreshold = 0.8
	}
	return cfg
}

// ExperimentConfig is the full parameter set for one experiment, the
// grid-point shape spec.md §6.3 names (N, Hmax, seed, obsCount,
// placement, cover/poison).
type ExperimentConfig struct {
	N          int
	Hmax       int
	TotalHours int
	Seed       int64

	Graph GraphParams
	Rates temporal.RateConfig
	Curve temporal.Curve // nil defaults to temporal.CampusCurve{}

	ObsCount   int
	Placement  placement.Strategy
	Cover      CoverParams
	PoisonRate float64

	NoiseEdgesPerEpoch int
}

func (c ExperimentConfig) curve() temporal.Curve {
	if c.Curve == nil {
		return temporal.CampusCurve{}
	}
	return c.Curve
}

// groundTruthKey derives the ground-truth store key (N, seed, tier
// probabilities) shared across every Hmax/observer/placement/poison
// grid point that reuses the same social graph.
func (c ExperimentConfig) groundTruthKey() groundtruth.Key {
	return groundtruth.Key{
		N:             c.N,
		Seed:          c.Seed,
		PIntimate:     c.Graph.PIntimate,
		PFriend:       c.Graph.PFriend,
		PAcquaintance: c.Graph.PAcquaintance,
	}
}

// Result bundles everything one experiment produces: the evaluator's
// report plus the raw material report.BuildRunResult needs for the
// full per-run JSON document.
type Result struct {
	Report          eval.Report
	GroundTruthFile string
	ObserverLog     []report.ObserverContact
	SentLog         []simulation.MessageRecord
}

// clockFn lets tests substitute a fixed generation timestamp; real
// callers use time.Now (kept out of the hot simulation path, only
// touched once per ground-truth generation).
var clockFn = func() string { return time.Now().UTC().Format(time.RFC3339) }

// RunExperiment builds one experiment's RNG streams, social graph,
// temporal event stream, orchestrator, and adversary, drives the
// sub-epoch loop to completion, and evaluates the result. It never
// runs the core's loop concurrently with anything else (spec.md §5).
func RunExperiment(ctx context.Context, cfg ExperimentConfig, store groundtruth.Store) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := cfg.groundTruthKey()
	rec, err := groundtruth.LoadOrGenerate(ctx, store, key, func() groundtruth.Record {
		g, tiers := socialgraph.Build(cfg.N, socialgraph.Config{
			PIntimate:     cfg.Graph.PIntimate,
			PFriend:       cfg.Graph.PFriend,
			PAcquaintance: cfg.Graph.PAcquaintance,
			PBridge:       cfg.Graph.PBridge,
			Seed:          cfg.Seed,
		}, nil)
		return groundtruth.NewRecord(key, g, tiers, clockFn())
	})
	if err != nil {
		return nil, fmt.Errorf("app: load ground truth: %w", err)
	}
	graph, tiers := rec.Graph, rec.TierMap

	base := rng.New(cfg.Seed)
	temporalRNG := base.Fork(1)
	routingRNG := base.Fork(2)
	coverRNG := base.Fork(3)
	placementRNG := base.Fork(4)
	communityRNG := base.Fork(5)

	rates := temporal.SampleUserMeans(cfg.N, cfg.Rates, temporalRNG)
	events := temporal.GenerateEvents(rates, cfg.curve(), cfg.TotalHours, temporalRNG)
	dist := temporal.Distributor{}
	buckets := dist.Distribute(events, cfg.TotalHours, temporalRNG)

	observed := placement.Select(cfg.Placement, graph, cfg.ObsCount, placementRNG)

	coverParams := cfg.Cover
	coverParams.Enabled = cfg.Cover.Enabled && cfg.PoisonRate > 0
	cvrMgr := cover.NewManager(coverParams.toConfig())

	engine := adversary.NewEngine(cfg.N, observed)
	recorder := newObserverRecorder(engine, observed)

	orchCfg := simulation.Config{
		Hmax:               cfg.Hmax,
		TotalHours:         cfg.TotalHours,
		NoiseEdgesPerEpoch: cfg.NoiseEdgesPerEpoch,
	}
	orch := simulation.New(graph, tiers, orchCfg, routingRNG, coverRNG, cvrMgr, recorder)
	sentLog := orch.Run(buckets)

	advResults := engine.Results(communityRNG)

	evaluator := eval.Evaluator{
		Graph:   graph,
		Tiers:   tiers,
		SentLog: sentLog,
		Threads: orch.Threads(),
	}
	evalReport := evaluator.Evaluate(advResults)

	return &Result{
		Report:          evalReport,
		GroundTruthFile: key.FileName(),
		ObserverLog:     recorder.contacts,
		SentLog:         sentLog,
	}, nil
}

// observerRecorder wraps the adversary engine to capture the
// contacts the observer actually saw (at least one endpoint in
// observed), independent of the engine's own internal bookkeeping, so
// cmd/sweep/internal reporting can sample the first 100 without
// reaching into adversary internals (spec.md §6.2).
type observerRecorder struct {
	engine   *adversary.Engine
	observed map[uint32]struct{}
	contacts []report.ObserverContact
}

func newObserverRecorder(engine *adversary.Engine, observed []uint32) *observerRecorder {
	obs := make(map[uint32]struct{}, len(observed))
	for _, o := range observed {
		obs[o] = struct{}{}
	}
	return &observerRecorder{engine: engine, observed: obs}
}

func (r *observerRecorder) NoteSend(t int, sender uint32) { r.engine.NoteSend(t, sender) }

func (r *observerRecorder) NoteContact(t int, a, b uint32, count int) {
	_, aObs := r.observed[a]
	_, bObs := r.observed[b]
	if aObs || bObs {
		r.contacts = append(r.contacts, report.ObserverContact{T: t, A: a, B: b, Count: count})
	}
	r.engine.NoteContact(t, a, b, count)
}

func (r *observerRecorder) InferEpoch(t int, g *socialgraph.Graph) { r.engine.InferEpoch(t, g) }
