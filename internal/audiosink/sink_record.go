package audiosink

import (
	"sync"

	"github.com/STS-Dev-Team/platform-frameworks-av/internal/fastmixer"
)

// RecordSink is a fastmixer.OutputSink that appends every buffer it
// receives to an in-memory slice instead of touching real hardware. It's
// built unconditionally (no build tag) so unit tests can assert on exactly
// what the worker wrote, and the demo's "record" backend can run, without
// a live audio device.
type RecordSink struct {
	mu     sync.Mutex
	format fastmixer.SinkFormat
	frames [][]float32
	fail   bool
}

// NewRecordSink returns an empty RecordSink reporting the given format.
func NewRecordSink(sampleRate int) *RecordSink {
	return &RecordSink{format: fastmixer.SinkFormat{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Encoding:     fastmixer.EncodingFloat32,
	}}
}

func (r *RecordSink) Format() fastmixer.SinkFormat { return r.format }
func (r *RecordSink) NonBlocking() bool            { return true }

// FailNextWrites makes subsequent Write calls report an error instead of
// recording, for exercising the worker's write-error counting path.
func (r *RecordSink) FailNextWrites(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = fail
}

func (r *RecordSink) Write(buf []float32, frameCount int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return 0, errWriteFailed
	}
	cp := make([]float32, len(buf))
	copy(cp, buf)
	r.frames = append(r.frames, cp)
	return frameCount, nil
}

func (r *RecordSink) Close() error { return nil }

// Buffers returns every buffer written so far, in order.
func (r *RecordSink) Buffers() [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]float32, len(r.frames))
	copy(out, r.frames)
	return out
}

var errWriteFailed = writeFailedError{}

type writeFailedError struct{}

func (writeFailedError) Error() string { return "audiosink: injected write failure" }
