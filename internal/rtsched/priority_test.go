package rtsched

import (
	"sync/atomic"
	"testing"
)

func TestElevateDefaultNeverFails(t *testing.T) {
	if err := Elevate(PriorityDefault); err != nil {
		t.Fatalf("Elevate(PriorityDefault) = %v, want nil", err)
	}
	Release()
}

func TestElevateMixerDegradesGracefully(t *testing.T) {
	// Elevate may fail to actually raise priority when the test runner
	// lacks CAP_SYS_NICE; the caller decides whether that's fatal, so
	// this only checks the call completes and unlocks cleanly.
	_ = Elevate(PriorityMixer)
	Release()
}

func TestColdIdleWaiterWakeUnblocksWait(t *testing.T) {
	addr := new(int32)
	*addr = 0 // not yet released: Wait decrements to -1 and parks until Wake

	var w ColdIdleWaiter
	done := make(chan struct{})
	go func() {
		w.Wait(addr)
		close(done)
	}()

	select {
	case <-done:
	default:
	}

	atomic.StoreInt32(addr, 1)
	w.Wake(addr)
	<-done
}
