package simulation

import (
	"meshveil/pkg/conversation"
	"meshveil/pkg/cover"
	"meshveil/pkg/rng"
	"meshveil/pkg/routing"
	"meshveil/pkg/socialgraph"
)

// AdversaryNotifier is the subset of the adversary engine's interface
// the orchestrator drives. Keeping it as an interface here (rather
// than importing pkg/adversary directly) keeps the managers' ownership
// one-directional, per spec.md §9's "no cycles in object ownership"
// note: the orchestrator owns everything and pushes notifications
// out, nothing reaches back in.
type AdversaryNotifier interface {
	NoteSend(t int, sender uint32)
	NoteContact(t int, a, b uint32, count int)
	InferEpoch(t int, g *socialgraph.Graph)
}

var tierSendWeight = map[socialgraph.Tier]float64{
	socialgraph.Intimate:     3.0,
	socialgraph.Friend:       1.5,
	socialgraph.Acquaintance: 1.0,
}

// Config parameterizes one orchestrator run.
type Config struct {
	Hmax               int
	TotalHours         int
	NoiseEdgesPerEpoch int
	SubEpochsPerHour   int // defaults to 6 when zero
}

func (c Config) subEpochsPerHour() int {
	if c.SubEpochsPerHour <= 0 {
		return 6
	}
	return c.SubEpochsPerHour
}

// Orchestrator drives one experiment's sub-epoch loop. It owns the
// users, the message log, and every per-run manager; the social graph
// and tier map are read-only views supplied at construction.
type Orchestrator struct {
	cfg   Config
	graph *socialgraph.Graph
	tiers *socialgraph.TierMap
	users []*User

	routingRNG *rng.Lehmer
	coverRNG   *rng.Lehmer

	tracker *routing.DiversityTracker
	convMgr *conversation.Manager
	cvrMgr  *cover.Manager
	adv     AdversaryNotifier

	sentLog          []MessageRecord
	futureLinkEvents map[int][]socialgraph.PairKey
	lastMeet         map[socialgraph.PairKey]int
	nextMsgID        uint64
}

// New builds an orchestrator over graph/tiers. routingRNG drives
// routing and reply-outcome decisions; coverRNG is a separately forked
// stream so toggling cover traffic on or off never perturbs the
// routing/reply stream (spec.md §9 "dual RNG streams", generalized to
// a third independent stream for C7).
func New(graph *socialgraph.Graph, tiers *socialgraph.TierMap, cfg Config, routingRNG, coverRNG *rng.Lehmer, cvrMgr *cover.Manager, adv AdversaryNotifier) *Orchestrator {
	users := make([]*User, graph.N())
	for i := range users {
		users[i] = NewUser(uint32(i))
	}
	return &Orchestrator{
		cfg:              cfg,
		graph:            graph,
		tiers:            tiers,
		users:            users,
		routingRNG:       routingRNG,
		coverRNG:         coverRNG,
		tracker:          routing.NewDiversityTracker(),
		convMgr:          conversation.NewManager(),
		cvrMgr:           cvrMgr,
		adv:              adv,
		futureLinkEvents: make(map[int][]socialgraph.PairKey),
		lastMeet:         make(map[socialgraph.PairKey]int),
	}
}

// Run drives the full sub-epoch loop given the C4-bucketed event
// stream (buckets[se] lists the user ids with a new send event at
// sub-epoch se) and returns the completed message log.
func (o *Orchestrator) Run(buckets [][]uint32) []MessageRecord {
	totalSubEpochs := o.cfg.TotalHours * o.cfg.subEpochsPerHour()
	for se := 0; se < totalSubEpochs; se++ {
		t := se / o.cfg.subEpochsPerHour()

		o.processReplies(se, t)

		if se < len(buckets) {
			o.processNewSends(buckets[se], se, t)
		}

		if se%o.cfg.subEpochsPerHour() == 0 && o.cvrMgr != nil && o.cvrMgr.Enabled() {
			o.injectCover(t)
		}

		if se%o.cfg.subEpochsPerHour() == o.cfg.subEpochsPerHour()-1 {
			o.materialize(t)
		}
	}
	return o.sentLog
}

func (o *Orchestrator) processReplies(se, t int) {
	for _, u := range o.users {
		entries := u.PopReplies(se)
		for _, entry := range entries {
			if !o.convMgr.ShouldContinue(u.ID, entry.To, t, o.routingRNG) {
				continue
			}
			o.route(u.ID, entry.To, t, true)

			tier, _ := o.tiers.Tier(entry.To, u.ID)
			if d, ok := conversation.ScheduleReply(tier, se, o.routingRNG); ok {
				o.users[entry.To].ScheduleReply(d.SubEpoch, u.ID, d.Outcome)
			}
		}
	}
}

func (o *Orchestrator) processNewSends(senders []uint32, se, t int) {
	for _, uid := range senders {
		recipient, ok := o.pickRecipient(uid)
		if !ok {
			continue
		}
		if !o.route(uid, recipient, t, false) {
			continue
		}
		tier, _ := o.tiers.Tier(uid, recipient)
		if d, ok := conversation.ScheduleReply(tier, se, o.routingRNG); ok {
			o.users[recipient].ScheduleReply(d.SubEpoch, uid, d.Outcome)
		}
	}
}

// pickRecipient chooses among uid's neighbors by tier-weighted
// sampling (intimate:3.0, friend:1.5, acquaintance:1.0).
func (o *Orchestrator) pickRecipient(uid uint32) (uint32, bool) {
	neighbors := o.graph.Neighbors(uid)
	if len(neighbors) == 0 {
		return 0, false
	}
	weights := make([]float64, len(neighbors))
	total := 0.0
	for i, v := range neighbors {
		tier, _ := o.tiers.Tier(uid, v)
		w := tierSendWeight[tier]
		if w == 0 {
			w = 1.0
		}
		weights[i] = w
		total += w
	}
	draw := o.routingRNG.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if draw < acc {
			return neighbors[i], true
		}
	}
	return neighbors[len(neighbors)-1], true
}

// route runs C5 path selection for sender->recipient at epoch t,
// appending a MessageRecord on success. It returns false if no path
// was found within the hop budget (spec.md §7: a skip, not an error).
func (o *Orchestrator) route(sender, recipient uint32, t int, isReply bool) bool {
	path, err := routing.SelectPath(o.graph, sender, recipient, o.cfg.Hmax, o.tracker, o.routingRNG)
	if err != nil {
		return false
	}
	o.logMessage(sender, recipient, t, path, false, isReply)
	return true
}

func (o *Orchestrator) logMessage(sender, recipient uint32, t int, path []uint32, dummy, isReply bool) {
	hopTimes := make([]int, 0, len(path))
	for i := range path {
		ht := t + i
		if ht >= o.cfg.TotalHours {
			break
		}
		hopTimes = append(hopTimes, ht)
	}
	rec := MessageRecord{
		ID:        o.nextMsgID,
		T:         t,
		Sender:    sender,
		Recipient: recipient,
		Path:      path,
		HopTimes:  hopTimes,
		Dummy:     dummy,
		IsReply:   isReply,
	}
	o.nextMsgID++
	o.sentLog = append(o.sentLog, rec)

	for i := 0; i+1 < len(hopTimes); i++ {
		epoch := hopTimes[i]
		o.futureLinkEvents[epoch] = append(o.futureLinkEvents[epoch], socialgraph.NewPairKey(path[i], path[i+1]))
	}

	o.adv.NoteSend(t, sender)
	if !dummy && o.cvrMgr != nil {
		o.cvrMgr.RecordRealMessage(sender, recipient, t)
	}
}

func (o *Orchestrator) injectCover(t int) {
	dummies := o.cvrMgr.InjectCover(t, o.graph, o.coverRNG)
	for _, d := range dummies {
		path, err := routing.SelectPath(o.graph, d.From, d.To, o.cfg.Hmax, o.tracker, o.coverRNG)
		if err != nil {
			continue
		}
		o.logMessage(d.From, d.To, t, path, true, false)
	}
}

func (o *Orchestrator) materialize(t int) {
	counts := make(map[socialgraph.PairKey]int)
	for _, pair := range o.futureLinkEvents[t] {
		counts[pair]++
	}
	delete(o.futureLinkEvents, t)

	if o.cfg.NoiseEdgesPerEpoch > 0 {
		edges := o.graph.Edges()
		if len(edges) > 0 {
			for i := 0; i < o.cfg.NoiseEdgesPerEpoch; i++ {
				pair := edges[o.routingRNG.Intn(len(edges))]
				counts[pair]++
			}
		}
	}

	for pair, count := range counts {
		if count <= 0 {
			continue
		}
		o.lastMeet[pair] = t
		o.adv.NoteContact(t, pair.Lo, pair.Hi, count)
	}
	o.adv.InferEpoch(t, o.graph)
}

// SentLog returns the accumulated message log.
func (o *Orchestrator) SentLog() []MessageRecord { return o.sentLog }

// Threads returns every conversation thread created during the run,
// for evaluation (spec.md §4.9 "conversation stats").
func (o *Orchestrator) Threads() []*conversation.Thread { return o.convMgr.Threads() }
