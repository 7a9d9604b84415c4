//go:build linux

package rtsched

import "golang.org/x/sys/unix"

// setPriority raises the calling thread's nice value. PRIO_PROCESS with a
// pid of 0 targets the calling thread on Linux, not the whole process,
// because LockOSThread has already bound this goroutine to it.
func setPriority(p Priority) error {
	if p == PriorityDefault {
		return nil
	}
	return unix.Setpriority(unix.PRIO_PROCESS, 0, -int(p))
}
