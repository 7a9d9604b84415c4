// Package rtsched pins the calling goroutine to a dedicated OS thread and
// elevates its scheduling priority, and supplies the futex-based park/wake
// primitive the fast mixer worker uses for cold-idle wakeups.
package rtsched

import "runtime"

// Priority is a scheduling boost level. On Linux, Elevate applies it as a
// nice value of -p to the calling thread; 0 leaves the thread's priority
// unchanged. The thread stays on the normal time-sharing scheduler: no
// realtime policy such as SCHED_FIFO is set.
type Priority int

const (
	// PriorityDefault leaves the thread's priority unchanged.
	PriorityDefault Priority = 0
	// PriorityMixer is the boost the fast mixer worker thread runs with
	// (nice -10).
	PriorityMixer Priority = 10
)

// Elevate locks the calling goroutine to its current OS thread (a
// prerequisite for any per-thread priority change to stick, and for the
// futex word's identity to remain stable across the worker's lifetime)
// and attempts to raise that thread's scheduling priority to p.
//
// Elevate is best-effort: it returns the underlying syscall error when the
// priority change fails (insufficient privilege is the common case outside
// a container with CAP_SYS_NICE). The caller decides whether that's fatal;
// cmd/fastmixer-demo logs it and keeps running in a degraded-but-running
// mode rather than treating it as a startup failure, so a fast mixer
// worker can still be exercised, tested, and demoed without root.
func Elevate(p Priority) error {
	runtime.LockOSThread()
	return setPriority(p)
}

// Release unlocks the calling goroutine from its OS thread.
// cmd/fastmixer-demo defers it on the worker goroutine, so the thread is
// unlocked once Worker.Run returns.
func Release() {
	runtime.UnlockOSThread()
}
