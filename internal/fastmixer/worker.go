package fastmixer

import (
	"context"
	"time"
)

// HotIdleNs is the fixed sleep used for INITIAL, HOT_IDLE, and every
// COLD_IDLE cycle after the first in an epoch.
const HotIdleNs int64 = 1_000_000

// EngineFactory builds a fresh MixEngine sized for one snapshot's format.
// The worker calls it exactly once per reconfiguration: whenever the
// snapshot's frame count or sample rate changes, the old engine is closed
// and a new one built from scratch rather than resized in place. Binding
// a different sink with the same frame count and sample rate keeps the
// existing engine.
type EngineFactory func(frameCount, sampleRate int) (MixEngine, error)

// Worker runs the mixing cycle described by the fastmixer package on the
// calling goroutine. Callers are expected to pin it to a dedicated,
// elevated-priority OS thread (package rtsched) before calling Run.
type Worker struct {
	queue   *StateQueue
	newEng  EngineFactory
	waiter  FutexWaiter
	dump    *DumpState
	sleeper func(int64)

	lastVersion uint64
	previous    *FastMixerState
	current     *FastMixerState
	preIdle     FastMixerState

	timing *TimingController

	engine    MixEngine
	mixBuffer []float32
	bufState  MixBufferState

	boundFrameCount int
	boundSampleRate int
	sinkGen         uint32

	fastTracksGen uint32
	trackHandles  [KMaxFastTracks]TrackHandle
	trackGens     [KMaxFastTracks]uint32

	coldGen uint32
}

// NewWorker constructs a Worker that polls queue for state and builds
// engines via newEng. dump may be nil (telemetry becomes a no-op).
func NewWorker(queue *StateQueue, newEng EngineFactory, waiter FutexWaiter, dump *DumpState) *Worker {
	if waiter == nil {
		waiter = noopFutexWaiter{}
	}
	w := &Worker{
		queue:  queue,
		newEng: newEng,
		waiter: waiter,
		dump:   dump,
	}
	w.sleeper = defaultSleep
	for i := range w.trackHandles {
		w.trackHandles[i] = NoHandle
	}
	w.timing = NewTimingController(0, 0, dump)
	return w
}

func defaultSleep(ns int64) {
	switch {
	case ns == SleepBusyWait:
		return
	case ns == SleepYield:
		return
	case ns > 0:
		time.Sleep(time.Duration(ns))
	}
}

// Run drives the cycle until the queue delivers CommandExit, an
// unrecoverable error occurs, or ctx is canceled. ctx cancellation is an
// escape valve for orderly shutdown in tests and command-line tooling; it
// is not part of the cycle's own state machine, which only ever exits on
// CommandExit.
func (w *Worker) Run(ctx context.Context) error {
	var sleepNs int64 = HotIdleNs
	for {
		w.sleeper(sleepNs)
		if err := ctx.Err(); err != nil {
			w.releaseEngine()
			return err
		}

		if state, version, ok := w.queue.Poll(); ok && version != w.lastVersion {
			w.lastVersion = version
			w.observe(state)
		}

		if w.current == nil {
			sleepNs = HotIdleNs
			continue
		}
		cur := w.current

		if !cur.Command.Valid() {
			w.releaseEngine()
			return ErrUnknownCommand
		}
		if w.dump != nil {
			w.dump.SetCommand(cur.Command)
		}

		if cur.Command == CommandExit {
			w.releaseEngine()
			return nil
		}

		if err := w.reconfigure(cur); err != nil {
			w.releaseEngine()
			return err
		}
		if err := w.applyTrackDiff(cur); err != nil {
			w.releaseEngine()
			return err
		}

		switch {
		case cur.Command == CommandInitial || cur.Command == CommandHotIdle:
			sleepNs = HotIdleNs

		case cur.Command == CommandColdIdle:
			sleepNs = w.handleColdIdle(cur)

		case cur.Command.HasMix() || cur.Command.HasWrite():
			// bound() gates MIX/WRITE on an engine and mix buffer being
			// in place for a positive frame count; a snapshot that
			// arrives while frame count or sample rate is still zero
			// produces no mix and no write this cycle. A sink that fails
			// validation never gets here: reconfigure's error ends Run.
			if w.bound() {
				w.mixStep(cur)
				w.writeStep(cur)
			}
			_, sleepNs = w.timing.Measure()

		default:
			w.releaseEngine()
			return ErrUnknownCommand
		}
	}
}

// observe applies one newly polled snapshot, updating current/previous per
// the pinning rules: previous only ever advances across a non-idle cycle,
// and the moment the worker steps from non-idle to idle it takes an owned
// by-value copy of the last non-idle snapshot so the diff on eventual
// resume compares against a stable reference instead of a state-queue slot
// that may since have been recycled.
func (w *Worker) observe(newState *FastMixerState) {
	old := w.current
	switch {
	case old == nil:
		// Bootstrap: nothing has ever been tracked, so leave previous nil
		// and let applyTrackDiff's nil-previous fallback (empty mask,
		// empty track table) treat every active slot as newly added.

	case !old.Command.IsIdle() && !newState.Command.IsIdle():
		w.previous = old

	case !old.Command.IsIdle() && newState.Command.IsIdle():
		w.preIdle = old.Clone()
		w.previous = &w.preIdle
		w.timing.ResetBaseline()

	default:
		// idle -> idle, idle -> non-idle: previous stays pinned.
	}
	w.current = newState
}

func (w *Worker) bound() bool {
	return w.engine != nil && w.mixBuffer != nil && w.boundFrameCount > 0
}

// reconfigure validates and rebinds the sink whenever its generation
// changed, and rebuilds the engine and mix buffer whenever frame count or
// sample rate changed since the last cycle; a sink change alone does not
// rebuild the engine. After a rebuild every active track is treated as freshly added against
// the new engine instance by diffing against an empty previous mask for
// this one pass.
func (w *Worker) reconfigure(cur *FastMixerState) (err error) {
	sinkChanged := cur.OutputSink != nil && cur.OutputSinkGen != w.sinkGen
	if sinkChanged {
		format := cur.OutputSink.Format()
		if format.ChannelCount != 2 {
			return ErrSinkNotStereo
		}
		if !cur.OutputSink.NonBlocking() {
			return ErrSinkMayBlock
		}
		w.sinkGen = cur.OutputSinkGen
	}

	formatChanged := cur.FrameCount != w.boundFrameCount || cur.SampleRate != w.boundSampleRate
	if !formatChanged {
		return nil
	}

	w.releaseEngine()
	w.boundFrameCount = cur.FrameCount
	w.boundSampleRate = cur.SampleRate
	w.timing.Reconfigure(cur.FrameCount, cur.SampleRate)

	if cur.FrameCount <= 0 || cur.SampleRate <= 0 {
		return nil
	}

	w.engine, err = w.newEng(cur.FrameCount, cur.SampleRate)
	if err != nil {
		return err
	}
	w.mixBuffer = make([]float32, cur.FrameCount*2)
	w.bufState = MixBufferUndefined

	// Force the next diff to see every active slot as newly added: the
	// fresh engine holds no track handles at all.
	w.forceFullDiff(cur)
	return nil
}

func (w *Worker) forceFullDiff(cur *FastMixerState) {
	for i := range w.trackHandles {
		w.trackHandles[i] = NoHandle
		w.trackGens[i] = 0
	}
	w.fastTracksGen = cur.FastTracksGen // mark caught-up; diff already ran
	diff := DiffTracks(0, cur.TrackMask, &[KMaxFastTracks]FastTrack{}, &cur.Tracks)
	w.applyDiff(cur, diff)
}

func (w *Worker) releaseEngine() {
	if w.engine != nil {
		w.engine.Close()
		w.engine = nil
	}
	w.mixBuffer = nil
	w.bufState = MixBufferUndefined
	w.boundFrameCount = 0
	w.boundSampleRate = 0
}

// applyTrackDiff runs the incremental removed/added/modified pass when the
// current snapshot's track generation has moved past what the worker last
// applied. It is a no-op on cycles where nothing changed.
func (w *Worker) applyTrackDiff(cur *FastMixerState) error {
	if cur.FastTracksGen == w.fastTracksGen {
		return nil
	}
	prevMask, prevTracks := TrackMask(0), &[KMaxFastTracks]FastTrack{}
	if w.previous != nil {
		prevMask, prevTracks = w.previous.TrackMask, &w.previous.Tracks
	}
	diff := DiffTracks(prevMask, cur.TrackMask, prevTracks, &cur.Tracks)
	w.fastTracksGen = cur.FastTracksGen
	return w.applyDiff(cur, diff)
}

func (w *Worker) applyDiff(cur *FastMixerState, diff TrackDiff) error {
	for _, i := range diff.RemovedSlots() {
		if w.engine != nil && w.trackHandles[i] != NoHandle {
			w.engine.DeleteTrackName(w.trackHandles[i])
		}
		w.trackHandles[i] = NoHandle
		w.trackGens[i] = 0
	}

	for _, i := range diff.AddedSlots() {
		track := cur.Tracks[i]
		if track.BufferProvider == nil {
			return ErrMissingBufferProvider
		}
		if w.engine == nil {
			continue
		}
		h, err := w.engine.GetTrackName()
		if err != nil {
			return err
		}
		w.engine.SetBufferProvider(h, track.BufferProvider)
		w.engine.SetParameter(h, ParamClassTrack, ParamKeyMainBuffer, 0)
		l, r := unityOrProvided(track.VolumeProvider)
		w.engine.SetParameter(h, ParamClassVolume, ParamKeyVolume0, uint32(l))
		w.engine.SetParameter(h, ParamClassVolume, ParamKeyVolume1, uint32(r))
		w.engine.Enable(h)
		w.trackHandles[i] = h
		w.trackGens[i] = track.Generation
	}

	for _, i := range diff.ModifiedSlots() {
		track := cur.Tracks[i]
		if track.BufferProvider == nil {
			return ErrMissingBufferProvider
		}
		if w.engine == nil || w.trackHandles[i] == NoHandle {
			continue
		}
		h := w.trackHandles[i]
		w.engine.SetBufferProvider(h, track.BufferProvider)
		if track.VolumeProvider == nil {
			w.engine.SetParameter(h, ParamClassVolume, ParamKeyVolume0, uint32(UnityVolume))
			w.engine.SetParameter(h, ParamClassVolume, ParamKeyVolume1, uint32(UnityVolume))
		}
		w.trackGens[i] = track.Generation
	}
	if w.dump != nil {
		w.dump.SetNumTracks(cur.TrackMask.Count())
	}
	return nil
}

func unityOrProvided(vp VolumeProvider) (left, right uint16) {
	if vp == nil {
		return UnityVolume, UnityVolume
	}
	return UnpackVolumeLR(vp.GetVolumeLR())
}

// mixStep pushes per-cycle volumes and runs the engine when the command
// carries MIX; when it doesn't (a WRITE-only cycle), a previously mixed
// buffer is downgraded to undefined so writeStep knows to zero it instead
// of replaying stale samples.
func (w *Worker) mixStep(cur *FastMixerState) {
	if !cur.Command.HasMix() {
		if w.bufState == MixBufferMixed {
			w.bufState = MixBufferUndefined
		}
		return
	}
	for i := 0; i < KMaxFastTracks; i++ {
		if !cur.TrackMask.Bit(i) {
			continue
		}
		vp := cur.Tracks[i].VolumeProvider
		if vp == nil || w.trackHandles[i] == NoHandle {
			continue
		}
		l, r := UnpackVolumeLR(vp.GetVolumeLR())
		w.engine.SetParameter(w.trackHandles[i], ParamClassVolume, ParamKeyVolume0, uint32(l))
		w.engine.SetParameter(w.trackHandles[i], ParamClassVolume, ParamKeyVolume1, uint32(r))
	}
	pts := time.Now().UnixNano()
	if err := w.engine.Process(w.mixBuffer, w.boundFrameCount, pts); err != nil {
		w.bufState = MixBufferUndefined
		return
	}
	w.bufState = MixBufferMixed
}

// writeStep submits the mix buffer to the sink when the command carries
// WRITE, zeroing it first if mixStep left it undefined. A write is never
// retried: a short write or error is only counted.
func (w *Worker) writeStep(cur *FastMixerState) {
	if !cur.Command.HasWrite() || cur.OutputSink == nil {
		return
	}
	if w.bufState == MixBufferUndefined {
		for i := range w.mixBuffer {
			w.mixBuffer[i] = 0
		}
		w.bufState = MixBufferZeroed
	}
	if w.dump != nil {
		w.dump.BeginWrite()
	}
	n, err := cur.OutputSink.Write(w.mixBuffer, w.boundFrameCount)
	if w.dump != nil {
		w.dump.EndWrite()
	}
	if err != nil {
		if w.dump != nil {
			w.dump.IncWriteErrors()
		}
		return
	}
	if w.dump != nil {
		w.dump.AddFramesWritten(n)
	}
}

// handleColdIdle acknowledges a cold-idle epoch's futex wakeup exactly
// once: the first cycle observing a new ColdGen decrements the shared
// word and parks if it didn't already win the race, then busy-waits into
// the next cycle so the worker reacts immediately to whatever the
// controller published next. Subsequent cycles within the same epoch fall
// back to the ordinary hot-idle sleep.
func (w *Worker) handleColdIdle(cur *FastMixerState) int64 {
	if cur.ColdGen == w.coldGen {
		return HotIdleNs
	}
	w.coldGen = cur.ColdGen
	if cur.ColdFutexAddr != nil {
		w.waiter.Wait(cur.ColdFutexAddr)
	}
	return SleepBusyWait
}
