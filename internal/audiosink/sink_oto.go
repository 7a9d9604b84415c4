//go:build !headless

// Package audiosink adapts platform audio output to fastmixer.OutputSink.
// This file binds github.com/ebitengine/oto/v3, whose player pulls bytes
// from an io.Reader on its own goroutine — the opposite polarity of
// OutputSink's push-style Write. sampleRing bridges the two without
// either side ever blocking on the other.
package audiosink

import (
	"time"
	"unsafe"

	"github.com/ebitengine/oto/v3"

	"github.com/STS-Dev-Team/platform-frameworks-av/internal/fastmixer"
)

const otoBufferFrames = 4096

// OtoSink is a fastmixer.OutputSink backed by the host's default audio
// device via oto.
type OtoSink struct {
	ctx     *oto.Context
	player  *oto.Player
	ring    *sampleRing
	format  fastmixer.SinkFormat
	scratch []float32 // reused across Read calls to avoid allocating on oto's callback goroutine
}

// NewOtoSink opens the default audio device at sampleRate, stereo,
// float32 samples, and starts pulling from an internally owned ring
// buffer immediately.
func NewOtoSink(sampleRate int) (*OtoSink, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   25 * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	s := &OtoSink{
		ctx:  ctx,
		ring: newSampleRing(otoBufferFrames),
		format: fastmixer.SinkFormat{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Encoding:     fastmixer.EncodingFloat32,
		},
	}
	s.player = ctx.NewPlayer(s)
	s.player.Play()
	return s, nil
}

// Read implements io.Reader for oto's pull-based player goroutine. It
// never blocks: an underrun (the worker hasn't written enough yet) is
// filled with silence rather than waiting.
func (s *OtoSink) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	frames := len(p) / 8 // 2 channels * 4 bytes/float32
	if frames == 0 {
		return len(p), nil
	}
	if cap(s.scratch) < frames*2 {
		s.scratch = make([]float32, frames*2)
	}
	samples := s.scratch[:frames*2]
	s.ring.Read(samples, frames)
	copy(p, unsafe.Slice((*byte)(unsafe.Pointer(&samples[0])), frames*8))
	return len(p), nil
}

// Format implements fastmixer.OutputSink.
func (s *OtoSink) Format() fastmixer.SinkFormat { return s.format }

// NonBlocking implements fastmixer.OutputSink: sampleRing.Write never
// blocks or allocates.
func (s *OtoSink) NonBlocking() bool { return true }

// Write implements fastmixer.OutputSink by copying into the ring buffer
// the oto callback drains; a full ring yields a short write, never a
// block.
func (s *OtoSink) Write(buf []float32, frameCount int) (int, error) {
	return s.ring.Write(buf, frameCount), nil
}

// Close closes the player; the oto context stays open.
func (s *OtoSink) Close() error {
	if s.player != nil {
		s.player.Close()
	}
	return nil
}
