//go:build !linux

package rtsched

// setPriority is a no-op outside Linux: the worker still runs correctly,
// just without a scheduling priority boost.
func setPriority(Priority) error {
	return nil
}
