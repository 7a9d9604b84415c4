package trackfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeTestWav encodes a short stereo 16-bit WAV file whose left channel
// samples count up from zero, so tests can check the decoded frames land
// where expected.
func writeTestWav(t *testing.T, frames int, sampleRate int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 2, 1)
	data := make([]int, frames*2)
	for i := 0; i < frames; i++ {
		data[i*2] = i * 100
		data[i*2+1] = -i * 100
	}
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		Data:   data,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close fixture: %v", err)
	}
	return path
}

func TestLoadDecodesFrameCount(t *testing.T) {
	path := writeTestWav(t, 10, 44100)

	p, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.FrameCount() != 10 {
		t.Fatalf("FrameCount = %d, want 10", p.FrameCount())
	}
	if p.SampleRate() != 44100 {
		t.Fatalf("SampleRate = %d, want 44100", p.SampleRate())
	}
}

func TestFillFramesNonLoopingStopsShortAtEnd(t *testing.T) {
	path := writeTestWav(t, 4, 44100)
	p, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	dst := make([]float32, 12) // room for 6 frames, file only has 4
	n := p.FillFrames(dst)
	if n != 4 {
		t.Fatalf("FillFrames = %d, want 4", n)
	}

	n = p.FillFrames(dst)
	if n != 0 {
		t.Fatalf("second FillFrames past end = %d, want 0", n)
	}
}

func TestFillFramesLoopingWrapsAround(t *testing.T) {
	path := writeTestWav(t, 3, 44100)
	p, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	dst := make([]float32, 14) // 7 frames requested from a 3 frame file
	n := p.FillFrames(dst)
	if n != 7 {
		t.Fatalf("FillFrames = %d, want 7 (looped)", n)
	}
	// Frame index 3 in the request is frame index 0 of the file again.
	if dst[0] != dst[6] {
		t.Fatalf("looped sample mismatch: dst[0]=%v dst[6]=%v", dst[0], dst[6])
	}
}

func TestResetRewindsPlayback(t *testing.T) {
	path := writeTestWav(t, 5, 44100)
	p, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	dst := make([]float32, 10)
	p.FillFrames(dst)
	first := dst[0]

	p.Reset()
	p.FillFrames(dst)
	if dst[0] != first {
		t.Fatalf("after Reset, first sample = %v, want %v", dst[0], first)
	}
}
