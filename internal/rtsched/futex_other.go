//go:build !linux

package rtsched

import (
	"sync"
	"sync/atomic"
)

// ColdIdleWaiter is the portable fallback for platforms without futex(2):
// it keys a condition variable off the address identity, giving the same
// decrement-then-maybe-block contract at the cost of a small amount of
// bookkeeping that the Linux syscall gets for free from the kernel.
type ColdIdleWaiter struct{}

var (
	coldMu    sync.Mutex
	coldConds = map[*int32]*sync.Cond{}
)

func condFor(addr *int32) *sync.Cond {
	coldMu.Lock()
	defer coldMu.Unlock()
	if c, ok := coldConds[addr]; ok {
		return c
	}
	c := sync.NewCond(&sync.Mutex{})
	coldConds[addr] = c
	return c
}

// Wait mirrors the Linux implementation's contract: decrement, and only
// block if the pre-decrement value wasn't already positive. AddInt32
// returns the post-decrement value, one less than the value being tested,
// so the immediate-return threshold is >= 0 here rather than > 0.
func (ColdIdleWaiter) Wait(addr *int32) {
	if atomic.AddInt32(addr, -1) >= 0 {
		return
	}
	c := condFor(addr)
	c.L.Lock()
	for atomic.LoadInt32(addr) <= 0 {
		c.Wait()
	}
	c.L.Unlock()
}

// Wake releases any thread parked in Wait on addr.
func (ColdIdleWaiter) Wake(addr *int32) {
	c := condFor(addr)
	c.L.Lock()
	c.Broadcast()
	c.L.Unlock()
}
