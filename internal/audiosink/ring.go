package audiosink

import "sync/atomic"

// sampleRing is a single-producer/single-consumer ring buffer of
// interleaved stereo float32 frames, sized to a power of two so index
// wrapping is a mask instead of a modulo. The producer is the fast mixer
// worker's Write call; the consumer is the platform audio callback
// pulling samples on its own goroutine. Neither side blocks: a producer
// that outruns the consumer drops the overflow (short write), and a
// consumer that outruns the producer reads silence.
type sampleRing struct {
	buf      []float32 // len is capacityFrames*2, capacityFrames a power of two
	capMask  uint64
	writePos atomic.Uint64 // frames written, monotonic
	readPos  atomic.Uint64 // frames read, monotonic
}

func newSampleRing(capacityFrames int) *sampleRing {
	n := 1
	for n < capacityFrames {
		n <<= 1
	}
	return &sampleRing{buf: make([]float32, n*2), capMask: uint64(n - 1)}
}

// Write copies as many whole frames from src as there is free space for,
// returning the number of frames actually copied.
func (r *sampleRing) Write(src []float32, frameCount int) int {
	free := r.capMask + 1 - (r.writePos.Load() - r.readPos.Load())
	n := frameCount
	if uint64(n) > free {
		n = int(free)
	}
	pos := r.writePos.Load()
	for f := 0; f < n; f++ {
		idx := (pos + uint64(f)) & r.capMask
		r.buf[2*idx] = src[2*f]
		r.buf[2*idx+1] = src[2*f+1]
	}
	r.writePos.Add(uint64(n))
	return n
}

// Read fills dst with up to frameCount available frames, zero-filling the
// remainder, and returns the number of real frames copied.
func (r *sampleRing) Read(dst []float32, frameCount int) int {
	available := r.writePos.Load() - r.readPos.Load()
	n := frameCount
	if uint64(n) > available {
		n = int(available)
	}
	pos := r.readPos.Load()
	for f := 0; f < n; f++ {
		idx := (pos + uint64(f)) & r.capMask
		dst[2*f] = r.buf[2*idx]
		dst[2*f+1] = r.buf[2*idx+1]
	}
	for f := n; f < frameCount; f++ {
		dst[2*f] = 0
		dst[2*f+1] = 0
	}
	r.readPos.Add(uint64(n))
	return n
}
