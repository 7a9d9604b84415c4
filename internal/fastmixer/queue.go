package fastmixer

import "sync/atomic"

// StateQueue is a single-producer/single-consumer wait-free publication
// channel for FastMixerState snapshots. The controller publishes; the
// worker polls. Poll never blocks, allocates, or takes a lock.
//
// The queue itself holds only the newest publication. A snapshot that
// Poll returned earlier stays addressable through the caller's own
// pointer, since Publish never reuses a snapshot's storage, so the worker
// can always diff against the snapshot it last observed even while the
// controller races ahead and publishes again.
type StateQueue struct {
	slot atomic.Pointer[publication]
}

type publication struct {
	state   *FastMixerState
	version uint64
}

// NewStateQueue returns an empty queue. Poll returns (nil, false) until
// the first Publish.
func NewStateQueue() *StateQueue {
	return &StateQueue{}
}

// Publish makes state the newest snapshot. Safe to call from exactly one
// producer goroutine; concurrent Publish calls from multiple goroutines
// are not supported (single-writer contract).
func (q *StateQueue) Publish(state *FastMixerState) {
	prev := q.slot.Load()
	version := uint64(1)
	if prev != nil {
		version = prev.version + 1
	}
	q.slot.Store(&publication{state: state, version: version})
}

// Poll returns the newest published snapshot and its monotonically
// increasing version number. ok is false if nothing has ever been
// published. Callers distinguish "nothing new" from "nothing yet" by
// comparing the returned version against the version of the last poll
// that returned ok == true.
func (q *StateQueue) Poll() (state *FastMixerState, version uint64, ok bool) {
	pub := q.slot.Load()
	if pub == nil {
		return nil, 0, false
	}
	return pub.state, pub.version, true
}
