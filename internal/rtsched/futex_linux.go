//go:build linux

package rtsched

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// FUTEX_WAIT and FUTEX_WAKE are the futex(2) operation codes from
// linux/futex.h. golang.org/x/sys/unix exposes the SYS_FUTEX syscall
// number but not these operation constants, so they're defined here.
const (
	futexWait = 0
	futexWake = 1
)

// ColdIdleWaiter implements fastmixer.FutexWaiter using the Linux futex(2)
// syscall directly: FUTEX_WAIT blocks the calling thread only while the
// word at addr still equals the value the kernel was told to expect,
// which is exactly the "decrement, then wait unless someone already
// signaled us" contract cold-idle needs, with no possibility of a lost
// wakeup between the decrement and the syscall.
type ColdIdleWaiter struct{}

// Wait atomically decrements *addr and blocks in the kernel unless the
// pre-decrement value was already positive, until a matching Wake call.
// atomic.AddInt32 returns the post-decrement value, so the pre-decrement
// value is one more than that; Wait returns immediately without a syscall
// when that post-decrement result is >= 0.
func (ColdIdleWaiter) Wait(addr *int32) {
	v := atomic.AddInt32(addr, -1)
	if v >= 0 {
		return
	}
	for {
		_, _, errno := unix.Syscall6(unix.SYS_FUTEX,
			uintptr(unsafe.Pointer(addr)),
			uintptr(futexWait),
			uintptr(uint32(v)),
			0, 0, 0)
		if errno == 0 || errno == unix.EAGAIN {
			return
		}
		if errno == unix.EINTR {
			continue
		}
		return
	}
}

// Wake releases one thread parked in Wait on addr. The publisher calls
// this after incrementing *addr back to a non-negative value.
func (ColdIdleWaiter) Wake(addr *int32) {
	unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexWake),
		uintptr(1),
		0, 0, 0)
}
