package simulation

import (
	"testing"

	"meshveil/pkg/cover"
	"meshveil/pkg/rng"
	"meshveil/pkg/socialgraph"
)

type recordingAdversary struct {
	sends    int
	contacts int
	infers   int
}

func (r *recordingAdversary) NoteSend(t int, sender uint32)             { r.sends++ }
func (r *recordingAdversary) NoteContact(t int, a, b uint32, count int) { r.contacts++ }
func (r *recordingAdversary) InferEpoch(t int, g *socialgraph.Graph)    { r.infers++ }

func buildGraph(n int, seed int64) (*socialgraph.Graph, *socialgraph.TierMap) {
	cfg := socialgraph.Config{
		PIntimate:     0.05,
		PFriend:       0.12,
		PAcquaintance: 0.25,
		PBridge:       0.1,
		Seed:          seed,
	}
	return socialgraph.Build(n, cfg, nil)
}

func TestOrchestratorRunProducesMessages(t *testing.T) {
	graph, tiers := buildGraph(30, 7)
	adv := &recordingAdversary{}
	coverCfg := cover.Config{Enabled: false}
	cvrMgr := cover.NewManager(coverCfg)

	o := New(graph, tiers, Config{Hmax: 3, TotalHours: 10}, rng.New(1), rng.New(2), cvrMgr, adv)

	buckets := make([][]uint32, 10*6)
	for se := 0; se < len(buckets); se += 3 {
		buckets[se] = []uint32{0, 1, 2, 3}
	}

	log := o.Run(buckets)
	if len(log) == 0 {
		t.Fatalf("expected some messages to be logged")
	}
	if adv.sends == 0 {
		t.Fatalf("expected adversary to observe sends")
	}
	if adv.infers != 10 {
		t.Fatalf("expected one inferEpoch call per hour, got %d", adv.infers)
	}
	for _, rec := range log {
		if rec.Path[0] != rec.Sender || rec.Path[len(rec.Path)-1] != rec.Recipient {
			t.Fatalf("path endpoints inconsistent with sender/recipient: %+v", rec)
		}
		if len(rec.Path) > 4 {
			t.Fatalf("path exceeds Hmax+1: %+v", rec)
		}
	}
}

func TestOrchestratorCoverDisabledMeansNoDummies(t *testing.T) {
	graph, tiers := buildGraph(20, 3)
	adv := &recordingAdversary{}
	cvrMgr := cover.NewManager(cover.Config{Enabled: false})
	o := New(graph, tiers, Config{Hmax: 3, TotalHours: 5}, rng.New(9), rng.New(10), cvrMgr, adv)

	buckets := make([][]uint32, 5*6)
	buckets[0] = []uint32{0, 1, 2}

	log := o.Run(buckets)
	for _, rec := range log {
		if rec.Dummy {
			t.Fatalf("expected no dummy messages while cover is disabled")
		}
	}
}
