// Package trackfile turns WAV files on disk into fastmixer.BufferProvider
// values. Since FillFrames must never block on I/O, a WavProvider decodes
// its entire file up front into an in-memory interleaved stereo float32
// buffer and FillFrames only ever copies out of it.
package trackfile

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/STS-Dev-Team/platform-frameworks-av/internal/fastmixer"
)

// ErrUnsupportedFormat is returned when a file's WAV header cannot be
// decoded, or decodes to something a WavProvider cannot represent.
var ErrUnsupportedFormat = errors.New("trackfile: unsupported or invalid WAV format")

// WavProvider is a fastmixer.BufferProvider backed by a fully decoded WAV
// file. It has exactly one reader (the fast mixer worker's Process call)
// and, at most, one writer resetting playback position from elsewhere, so
// its position is an atomic rather than a mutex-guarded field.
type WavProvider struct {
	frames     []float32 // interleaved stereo, len is even
	sampleRate int
	loop       bool
	pos        atomic.Int64
}

// Load decodes path in full and returns a WavProvider over its samples,
// resampled to nothing (no rate conversion is performed) but always
// widened or narrowed to interleaved stereo. loop controls whether
// FillFrames wraps back to the start on exhaustion or reports silence.
func Load(path string, loop bool) (*WavProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("trackfile: open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	dec.ReadInfo()

	numChans := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	if numChans == 0 || bitDepth == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: numChans, SampleRate: int(dec.SampleRate)},
		Data:   make([]int, 4096*numChans),
	}

	maxVal := float32(int(1) << uint(bitDepth-1))
	var stereo []float32

	for {
		n, err := dec.PCMBuffer(buf)
		if err != nil {
			return nil, fmt.Errorf("trackfile: decode %s: %w", path, err)
		}
		if n == 0 {
			break
		}
		samples := buf.Data[:n]
		framesInChunk := n / numChans
		for i := 0; i < framesInChunk; i++ {
			base := i * numChans
			left := float32(samples[base]) / maxVal
			right := left
			if numChans > 1 {
				right = float32(samples[base+1]) / maxVal
			}
			stereo = append(stereo, left, right)
		}
	}

	return &WavProvider{frames: stereo, sampleRate: int(dec.SampleRate), loop: loop}, nil
}

// SampleRate returns the rate the file was encoded at. No resampling is
// performed, so a caller mixing this against an engine configured for a
// different rate will hear it at the wrong pitch and speed.
func (p *WavProvider) SampleRate() int { return p.sampleRate }

// FrameCount returns the total number of stereo frames decoded.
func (p *WavProvider) FrameCount() int { return len(p.frames) / 2 }

// Reset rewinds playback to the first frame. Safe to call concurrently
// with FillFrames.
func (p *WavProvider) Reset() { p.pos.Store(0) }

// FillFrames implements fastmixer.BufferProvider. It never allocates or
// blocks: exhaustion either wraps (loop) or returns fewer frames than
// requested, leaving the remainder of dst untouched.
func (p *WavProvider) FillFrames(dst []float32) int {
	total := len(p.frames) / 2
	if total == 0 {
		return 0
	}
	want := len(dst) / 2
	pos := int(p.pos.Load())
	written := 0

	for written < want {
		if pos >= total {
			if !p.loop {
				break
			}
			pos = 0
		}
		avail := total - pos
		n := want - written
		if n > avail {
			n = avail
		}
		copy(dst[written*2:(written+n)*2], p.frames[pos*2:(pos+n)*2])
		written += n
		pos += n
	}

	p.pos.Store(int64(pos))
	return written
}

var _ fastmixer.BufferProvider = (*WavProvider)(nil)
