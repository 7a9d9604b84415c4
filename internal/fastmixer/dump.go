package fastmixer

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// DumpState is the out-of-band telemetry structure the worker writes
// freely and external readers (a lower-priority dumper or the demo's
// terminal dashboard) observe without synchronization. WriteSequence's
// odd/even protocol is how a reader detects an in-flight write: it is
// even whenever no write is in progress and increments by exactly two
// around every attempted sink write.
//
// SessionID is minted once, by NewDumpState (never per cycle, and never
// changed by the worker), so multiple mixer lifetimes logged to the same
// process's telemetry stream can be told apart.
type DumpState struct {
	SessionID uuid.UUID

	command atomic.Uint32

	writeSequence atomic.Uint64
	framesWritten atomic.Uint64
	writeErrors   atomic.Uint64
	numTracks     atomic.Uint32
	underruns     atomic.Uint64
	overruns      atomic.Uint64
	nominalCycles atomic.Uint64

	// Jitter statistics, snapshotted every N samples by TimingController.
	jitterMean   atomic.Uint64 // math.Float64bits
	jitterMin    atomic.Uint64
	jitterMax    atomic.Uint64
	jitterStddev atomic.Uint64
}

// NewDumpState allocates a fresh telemetry block tagged with a new session
// identifier.
func NewDumpState() *DumpState {
	return &DumpState{SessionID: uuid.New()}
}

// SetCommand records the command word active during the cycle that just
// ran.
func (d *DumpState) SetCommand(c Command) { d.command.Store(uint32(c)) }

// Command returns the most recently recorded command.
func (d *DumpState) Command() Command { return Command(d.command.Load()) }

// BeginWrite bumps WriteSequence to an odd value, signaling a write is
// in flight, and must be paired with EndWrite.
func (d *DumpState) BeginWrite() { d.writeSequence.Add(1) }

// EndWrite bumps WriteSequence back to even, signaling the write
// completed.
func (d *DumpState) EndWrite() { d.writeSequence.Add(1) }

// WriteSequence returns the current sequence counter. Odd means a write
// is currently in flight.
func (d *DumpState) WriteSequence() uint64 { return d.writeSequence.Load() }

func (d *DumpState) AddFramesWritten(n int)  { d.framesWritten.Add(uint64(n)) }
func (d *DumpState) IncWriteErrors()         { d.writeErrors.Add(1) }
func (d *DumpState) SetNumTracks(n int)      { d.numTracks.Store(uint32(n)) }
func (d *DumpState) IncUnderruns()           { d.underruns.Add(1) }
func (d *DumpState) IncOverruns()            { d.overruns.Add(1) }
func (d *DumpState) IncNominalCycles()       { d.nominalCycles.Add(1) }

// Snapshot is a point-in-time, non-atomic-as-a-whole copy of the counters
// suitable for logging or JSON rendering. Callers should treat a snapshot
// taken while WriteSequence is odd as possibly torn.
type Snapshot struct {
	SessionID     uuid.UUID `json:"session_id"`
	Command       string    `json:"command"`
	WriteSequence uint64    `json:"write_sequence"`
	FramesWritten uint64    `json:"frames_written"`
	NumTracks     uint32    `json:"num_tracks"`
	WriteErrors   uint64    `json:"write_errors"`
	Underruns     uint64    `json:"underruns"`
	Overruns      uint64    `json:"overruns"`
	NominalCycles uint64    `json:"nominal_cycles"`

	JitterMean   float64 `json:"jitter_mean_seconds,omitempty"`
	JitterMin    float64 `json:"jitter_min_seconds,omitempty"`
	JitterMax    float64 `json:"jitter_max_seconds,omitempty"`
	JitterStddev float64 `json:"jitter_stddev_seconds,omitempty"`
}

// Snapshot copies the current counters. It is safe to call from any
// goroutine.
func (d *DumpState) Snapshot() Snapshot {
	return Snapshot{
		SessionID:     d.SessionID,
		Command:       d.Command().String(),
		WriteSequence: d.WriteSequence(),
		FramesWritten: d.framesWritten.Load(),
		NumTracks:     d.numTracks.Load(),
		WriteErrors:   d.writeErrors.Load(),
		Underruns:     d.underruns.Load(),
		Overruns:      d.overruns.Load(),
		NominalCycles: d.nominalCycles.Load(),
		JitterMean:    float64frombits(d.jitterMean.Load()),
		JitterMin:     float64frombits(d.jitterMin.Load()),
		JitterMax:     float64frombits(d.jitterMax.Load()),
		JitterStddev:  float64frombits(d.jitterStddev.Load()),
	}
}

func (d *DumpState) setJitterStats(mean, min, max, stddev float64) {
	d.jitterMean.Store(float64bits(mean))
	d.jitterMin.Store(float64bits(min))
	d.jitterMax.Store(float64bits(max))
	d.jitterStddev.Store(float64bits(stddev))
}
