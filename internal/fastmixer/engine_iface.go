package fastmixer

// TrackHandle is an opaque small integer identifying one track within the
// mixing engine, issued by GetTrackName and released by DeleteTrackName.
type TrackHandle int

// NoHandle is the "no handle" sentinel. It is -1, not the zero value,
// since 0 is a valid handle.
const NoHandle TrackHandle = -1

// ParamClass groups the per-track parameters accepted by SetParameter.
type ParamClass int

const (
	ParamClassTrack ParamClass = iota
	ParamClassVolume
)

// ParamKey selects a specific parameter within a ParamClass.
type ParamKey int

const (
	// ParamKeyMainBuffer (ParamClassTrack) binds the track's output
	// destination to the shared interleaved mix buffer.
	ParamKeyMainBuffer ParamKey = iota
	// ParamKeyVolume0 / ParamKeyVolume1 (ParamClassVolume) set the left
	// and right channel gain, Q4.12 fixed point, 0x1000 == unity.
	ParamKeyVolume0
	ParamKeyVolume1
)

// MixEngine is the mixing engine external collaborator: it accepts
// per-track buffer and volume parameters and produces one interleaved
// stereo buffer per Process call. Implementations must not block or
// allocate inside Process.
type MixEngine interface {
	// GetTrackName allocates and returns a new track handle.
	GetTrackName() (TrackHandle, error)
	// DeleteTrackName releases a track handle.
	DeleteTrackName(h TrackHandle)
	// SetBufferProvider binds the frame source for a track.
	SetBufferProvider(h TrackHandle, provider BufferProvider)
	// SetParameter sets one parameter identified by (class, key) to value.
	SetParameter(h TrackHandle, class ParamClass, key ParamKey, value uint32)
	// Enable activates a track for mixing.
	Enable(h TrackHandle)
	// Process mixes all enabled tracks into dst, producing frameCount
	// interleaved stereo frames. Tracks are still expected to have been
	// bound via SetParameter(h, ParamClassTrack, ParamKeyMainBuffer, ...)
	// beforehand; dst is the concrete destination for this call since Go
	// parameters can't carry a buffer pointer as a uint32 value. pts is a
	// presentation timestamp in nanoseconds, informational only.
	Process(dst []float32, frameCount int, pts int64) error
	// Close releases all engine resources (handles, internal buffers).
	Close() error
}

// MixBufferState tracks whether the shared interleaved mix buffer holds
// freshly mixed samples, explicit silence, or neither.
type MixBufferState int

const (
	MixBufferUndefined MixBufferState = iota
	MixBufferMixed
	MixBufferZeroed
)
