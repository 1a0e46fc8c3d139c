package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"meshveil/internal/app"
	"meshveil/internal/sweep"
	"meshveil/pkg/placement"
	"meshveil/pkg/temporal"
)

func main() {
	n := flag.String("n", "200", "comma-separated node counts")
	hmax := flag.String("hmax", "6", "comma-separated max path lengths")
	seeds := flag.String("seeds", "1", "comma-separated RNG seeds")
	observers := flag.String("observers", "10", "comma-separated observer counts")
	placements := flag.String("placements", "random", "comma-separated placement strategies: random, high-degree, cluster")
	poison := flag.String("poison", "0", "comma-separated cover-traffic poison rates")
	hours := flag.Int("hours", 168, "total simulated hours per run")
	workers := flag.Int("workers", 4, "bounded worker pool size")
	out := flag.String("out", "", "directory for per-run and summary JSON (falls back to $SWEEP_OUT_DIR, then ./out)")
	groundTruthDir := flag.String("groundtruth", "", "directory for cached ground-truth graphs (falls back to $GROUND_TRUTH_DIR, then ./ground_truth)")
	redisAddr := flag.String("redis", "", "optional redis address fronting the ground-truth store (falls back to $SWEEP_REDIS_ADDR)")

	pIntimate := flag.Float64("p-intimate", 0.02, "intimate-tier edge probability")
	pFriend := flag.Float64("p-friend", 0.08, "friend-tier edge probability")
	pAcquaintance := flag.Float64("p-acquaintance", 0.20, "acquaintance-tier edge probability")
	pBridge := flag.Float64("p-bridge", 0.01, "bridge edge probability")

	minPerDay := flag.Int("min-per-day", 1, "minimum per-user daily message rate")
	maxPerDay := flag.Int("max-per-day", 15, "maximum per-user daily message rate")

	coverEnabled := flag.Bool("cover", true, "enable adaptive-baseline cover traffic when poison rate > 0")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	grid := sweep.Grid{
		N:           parseInts(*n),
		Hmax:        parseInts(*hmax),
		Seeds:       parseInt64s(*seeds),
		ObsCounts:   parseInts(*observers),
		Placements:  parseStrategies(*placements),
		PoisonRates: parseFloats(*poison),
	}
	if grid.Empty() {
		log.Fatal("no sweep grid; pass at least one value for -n -hmax -seeds -observers -placements -poison")
	}

	cfg := sweep.Config{
		Grid:       grid,
		TotalHours: *hours,
		Rates:      temporal.RateConfig{MinPerDay: *minPerDay, MaxPerDay: *maxPerDay},
		Graph: app.GraphParams{
			PIntimate:     *pIntimate,
			PFriend:       *pFriend,
			PAcquaintance: *pAcquaintance,
			PBridge:       *pBridge,
		},
		Cover:          app.CoverParams{Enabled: *coverEnabled},
		OutDir:         resolveDir(*out, "SWEEP_OUT_DIR", "./out"),
		GroundTruthDir: resolveDir(*groundTruthDir, "GROUND_TRUTH_DIR", "./ground_truth"),
		Workers:        *workers,
		RedisAddr:      resolveDir(*redisAddr, "SWEEP_REDIS_ADDR", ""),
	}

	if err := sweep.Run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}

func parseInts(s string) []int {
	var out []int
	for _, f := range splitCSV(s) {
		v, err := strconv.Atoi(f)
		if err != nil {
			log.Fatalf("invalid integer %q: %v", f, err)
		}
		out = append(out, v)
	}
	return out
}

func parseInt64s(s string) []int64 {
	var out []int64
	for _, f := range splitCSV(s) {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			log.Fatalf("invalid integer %q: %v", f, err)
		}
		out = append(out, v)
	}
	return out
}

func parseFloats(s string) []float64 {
	var out []float64
	for _, f := range splitCSV(s) {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			log.Fatalf("invalid float %q: %v", f, err)
		}
		out = append(out, v)
	}
	return out
}

func parseStrategies(s string) []placement.Strategy {
	var out []placement.Strategy
	for _, f := range splitCSV(s) {
		out = append(out, placement.Strategy(f))
	}
	return out
}

func splitCSV(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// resolveDir resolves a setting flag first, then the environment
// variable, then def (empty means disabled/default).
func resolveDir(flagVal, envVar, def string) string {
	if flagVal != "" {
		return flagVal
	}
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return def
}
