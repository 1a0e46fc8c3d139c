// Package sweep is the thin driver that fans a parameter grid out to
// many independent RunExperiment calls across a bounded worker pool
// (spec.md §6.3, §10.1 of SPEC_FULL.md). It is the only place this
// module uses intra-process concurrency: every worker owns its own
// RunExperiment call end to end, with no shared mutable state besides
// the read-mostly ground-truth store (spec.md §5).
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
	rendezvous "github.com/dgryski/go-rendezvous"
	"github.com/redis/go-redis/v9"
	"go.uber.org/atomic"

	"meshveil/internal/app"
	"meshveil/pkg/groundtruth"
	"meshveil/pkg/placement"
	"meshveil/pkg/report"
	"meshveil/pkg/temporal"
)

// Grid is the cartesian product of sweep parameters (spec.md §6.3).
type Grid struct {
	N           []int
	Hmax        []int
	Seeds       []int64
	ObsCounts   []int
	Placements  []placement.Strategy
	PoisonRates []float64
}

// Empty reports whether the grid has no dimensions to sweep, the
// configuration-error case cmd/sweep surfaces via log.Fatal (spec.md
// §7).
func (g Grid) Empty() bool {
	return len(g.N) == 0 || len(g.Hmax) == 0 || len(g.Seeds) == 0 ||
		len(g.ObsCounts) == 0 || len(g.Placements) == 0 || len(g.PoisonRates) == 0
}

// Point is one fully-resolved grid point.
type Point struct {
	N          int
	Hmax       int
	Seed       int64
	ObsCount   int
	Placement  placement.Strategy
	PoisonRate float64
}

func (p Point) key() string {
	return fmt.Sprintf("%d|%d|%d|%d|%s|%g", p.N, p.Hmax, p.Seed, p.ObsCount, p.Placement, p.PoisonRate)
}

// Expand enumerates every grid point.
func (g Grid) Expand() []Point {
	var out []Point
	for _, n := range g.N {
		for _, hmax := range g.Hmax {
			for _, seed := range g.Seeds {
				for _, obs := range g.ObsCounts {
					for _, pl := range g.Placements {
						for _, pr := range g.PoisonRates {
							out = append(out, Point{N: n, Hmax: hmax, Seed: seed, ObsCount: obs, Placement: pl, PoisonRate: pr})
						}
					}
				}
			}
		}
	}
	return out
}

// Config parameterizes one sweep run.
type Config struct {
	Grid Grid

	TotalHours int
	Rates      temporal.RateConfig
	Graph      app.GraphParams
	Cover      app.CoverParams

	OutDir         string
	GroundTruthDir string
	Workers        int

	// RedisAddr, when non-empty, fronts the file-backed ground-truth
	// store with a redis read-through cache (§11.2 of SPEC_FULL.md).
	RedisAddr string
}

// Run partitions Grid across cfg.Workers worker slots using
// rendezvous (highest-random-weight) hashing on each point's
// canonical key, so the same grid point always lands on the same
// worker slot regardless of how many other points exist — a resumed
// or partial sweep keeps a stable work assignment (§11.1 of
// SPEC_FULL.md). Each worker drives its assigned points through
// app.RunExperiment sequentially; per-run failures are logged with
// the full parameter tuple and do not abort the sweep (spec.md §7).
func Run(ctx context.Context, cfg Config) error {
	if cfg.Grid.Empty() {
		return errors.New("sweep: empty parameter grid")
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return fmt.Errorf("sweep: create out dir: %w", err)
	}

	fileStore, err := groundtruth.NewFileStore(cfg.GroundTruthDir)
	if err != nil {
		return fmt.Errorf("sweep: ground truth store: %w", err)
	}
	var store groundtruth.Store = fileStore
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		store = groundtruth.NewCachedStore(fileStore, rdb, 24*time.Hour)
	}

	nodes := make([]string, workers)
	for i := range nodes {
		nodes[i] = fmt.Sprintf("worker-%d", i)
	}
	rdv := rendezvous.New(nodes, xxhash.Sum64String)

	points := cfg.Grid.Expand()
	buckets := make([][]Point, workers)
	nodeIndex := make(map[string]int, workers)
	for i, n := range nodes {
		nodeIndex[n] = i
	}
	for _, p := range points {
		w := nodeIndex[rdv.Get(p.key())]
		buckets[w] = append(buckets[w], p)
	}

	var (
		completed atomic.Int64
		failed    atomic.Int64
	)
	total := len(points)

	resultCh := make(chan report.RunResult, total)
	done := make(chan struct{}, workers)

	for w := 0; w < workers; w++ {
		go func(pts []Point) {
			defer func() { done <- struct{}{} }()
			for _, p := range pts {
				if ctx.Err() != nil {
					return
				}
				res, err := runPoint(ctx, cfg, store, p)
				if err != nil {
					failed.Inc()
					log.Printf("sweep: run failed N=%d Hmax=%d seed=%d obs=%d placement=%s poison=%g: %v",
						p.N, p.Hmax, p.Seed, p.ObsCount, p.Placement, p.PoisonRate, err)
					continue
				}
				completed.Inc()
				resultCh <- *res
				log.Printf("sweep: %d/%d done, %d failed", completed.Load(), int64(total), failed.Load())
			}
		}(buckets[w])
	}

	for w := 0; w < workers; w++ {
		<-done
	}
	close(resultCh)

	var results []report.RunResult
	for r := range resultCh {
		results = append(results, r)
	}

	summary := report.Summarize(results)
	if err := report.WriteSummary(cfg.OutDir, summary); err != nil {
		return fmt.Errorf("sweep: write summary: %w", err)
	}
	return nil
}

func runPoint(ctx context.Context, cfg Config, store groundtruth.Store, p Point) (*report.RunResult, error) {
	expCfg := app.ExperimentConfig{
		N:          p.N,
		Hmax:       p.Hmax,
		TotalHours: cfg.TotalHours,
		Seed:       p.Seed,
		Graph:      cfg.Graph,
		Rates:      cfg.Rates,
		ObsCount:   p.ObsCount,
		Placement:  p.Placement,
		Cover:      cfg.Cover,
		PoisonRate: p.PoisonRate,
	}

	result, err := app.RunExperiment(ctx, expCfg, store)
	if err != nil {
		return nil, err
	}

	params := report.RunParams{
		N: p.N, Hmax: p.Hmax, Seed: p.Seed, ObsCount: p.ObsCount,
		Placement: string(p.Placement), CoverEnabled: cfg.Cover.Enabled && p.PoisonRate > 0,
		PoisonRate: p.PoisonRate,
	}
	runResult := report.BuildRunResult(params, result.GroundTruthFile, result.Report, result.ObserverLog, result.SentLog)

	name := fmt.Sprintf("run_N%d_h%d_seed%d_obs%d_%s_p%g", p.N, p.Hmax, p.Seed, p.ObsCount, p.Placement, p.PoisonRate)
	if err := report.WriteRunResult(cfg.OutDir, name, runResult); err != nil {
		return nil, err
	}
	return &runResult, nil
}
