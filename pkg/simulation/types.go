// Package simulation implements the per-experiment data model and the
// sub-epoch orchestrator loop that drives every other component
// (spec.md §3, §4.7, C8).
package simulation

import "meshveil/pkg/conversation"

// ReplyEntry is a pending scheduled reply waiting in a user's queue
// for its sub-epoch to arrive.
type ReplyEntry struct {
	To      uint32
	Outcome conversation.Outcome
}

// User holds the per-user mutable state the orchestrator advances
// each sub-epoch: a bucketed reply queue (spec.md §9 "replies as
// scheduled events, not callbacks") and a last-contact map.
type User struct {
	ID          uint32
	replyQueue  map[int][]ReplyEntry
	LastContact map[uint32]int
}

// NewUser returns an empty user record.
func NewUser(id uint32) *User {
	return &User{
		ID:          id,
		replyQueue:  make(map[int][]ReplyEntry),
		LastContact: make(map[uint32]int),
	}
}

// ScheduleReply enqueues a pending reply to fire at subEpoch.
func (u *User) ScheduleReply(subEpoch int, to uint32, outcome conversation.Outcome) {
	u.replyQueue[subEpoch] = append(u.replyQueue[subEpoch], ReplyEntry{To: to, Outcome: outcome})
}

// PopReplies removes and returns every entry due at subEpoch.
func (u *User) PopReplies(subEpoch int) []ReplyEntry {
	entries := u.replyQueue[subEpoch]
	delete(u.replyQueue, subEpoch)
	return entries
}

// MessageRecord is an immutable log entry for one routed message,
// real or cover (spec.md §3).
type MessageRecord struct {
	ID        uint64
	T         int
	Sender    uint32
	Recipient uint32
	Path      []uint32
	HopTimes  []int
	Dummy     bool
	IsReply   bool
}
