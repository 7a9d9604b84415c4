// Package controller is the non-realtime side of the fast mixer: it owns
// the mutable "next" snapshot, bumps the generation counters the worker
// uses to detect what changed, and publishes immutable copies onto a
// fastmixer.StateQueue. Every exported method here may allocate, lock,
// and block — none of that runs anywhere near the worker's thread.
package controller

import (
	"sync"

	"github.com/STS-Dev-Team/platform-frameworks-av/internal/fastmixer"
)

// ColdWaker releases a worker parked in cold-idle. It is the write side
// of fastmixer.FutexWaiter, implemented by package rtsched.
type ColdWaker interface {
	Wake(addr *int32)
}

// Controller builds and publishes FastMixerState snapshots.
type Controller struct {
	mu sync.Mutex

	queue *fastmixer.StateQueue
	waker ColdWaker
	dump  *fastmixer.DumpState

	next fastmixer.FastMixerState

	fastTracksGen uint32
	outputSinkGen uint32
	coldGen       uint32
	coldFutex     int32
}

// New returns a Controller publishing onto queue. dump may be nil.
func New(queue *fastmixer.StateQueue, waker ColdWaker, dump *fastmixer.DumpState) *Controller {
	c := &Controller{queue: queue, waker: waker, dump: dump}
	c.next.Command = fastmixer.CommandInitial
	c.next.DumpState = dump
	return c
}

// SetCommand changes the command word the worker sees on its next
// publish. Callers are responsible for using the CommandFSM legally
// (e.g. never leaving MIX set without WRITE if that's not what's wanted).
func (c *Controller) SetCommand(cmd fastmixer.Command) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next.Command = cmd
}

// SetFormat sets the frame count and sample rate the worker will
// reconfigure its engine and mix buffer for.
func (c *Controller) SetFormat(frameCount, sampleRate int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next.FrameCount = frameCount
	c.next.SampleRate = sampleRate
}

// SetOutputSink rebinds the sink the worker writes to, advancing the
// sink generation so the worker knows to re-read its format.
func (c *Controller) SetOutputSink(sink fastmixer.OutputSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outputSinkGen++
	c.next.OutputSink = sink
	c.next.OutputSinkGen = c.outputSinkGen
}

// AddTrack activates slot i with the given providers, bumping both the
// slot's own generation and the table-wide generation.
func (c *Controller) AddTrack(i int, buf fastmixer.BufferProvider, vol fastmixer.VolumeProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next.Tracks[i] = fastmixer.FastTrack{BufferProvider: buf, VolumeProvider: vol, Generation: c.next.Tracks[i].Generation + 1}
	c.next.TrackMask = c.next.TrackMask.Set(i)
	c.bumpTracksGenLocked()
}

// ModifyTrack rebinds slot i's providers without changing its active
// state, bumping only that slot's generation.
func (c *Controller) ModifyTrack(i int, buf fastmixer.BufferProvider, vol fastmixer.VolumeProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next.Tracks[i] = fastmixer.FastTrack{BufferProvider: buf, VolumeProvider: vol, Generation: c.next.Tracks[i].Generation + 1}
	c.bumpTracksGenLocked()
}

// RemoveTrack deactivates slot i.
func (c *Controller) RemoveTrack(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next.TrackMask = c.next.TrackMask.Clear(i)
	c.next.Tracks[i] = fastmixer.FastTrack{}
	c.bumpTracksGenLocked()
}

func (c *Controller) bumpTracksGenLocked() {
	c.fastTracksGen++
	c.next.FastTracksGen = c.fastTracksGen
}

// TriggerColdWake starts a new cold-idle epoch and wakes any worker
// currently parked from a previous one.
func (c *Controller) TriggerColdWake() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.coldGen++
	c.coldFutex = 1
	c.next.ColdGen = c.coldGen
	c.next.ColdFutexAddr = &c.coldFutex
	if c.waker != nil {
		c.waker.Wake(&c.coldFutex)
	}
}

// Publish copies the current builder state by value and hands it to the
// queue. Every call publishes a fresh, immutable snapshot even if nothing
// changed since the last one.
func (c *Controller) Publish() {
	c.mu.Lock()
	snapshot := c.next
	c.mu.Unlock()
	c.queue.Publish(&snapshot)
}
