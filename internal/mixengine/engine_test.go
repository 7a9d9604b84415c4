package mixengine

import (
	"testing"

	"github.com/STS-Dev-Team/platform-frameworks-av/internal/fastmixer"
)

type constProvider struct{ l, r float32 }

func (c constProvider) FillFrames(dst []float32) int {
	for i := 0; i < len(dst); i += 2 {
		dst[i] = c.l
		dst[i+1] = c.r
	}
	return len(dst) / 2
}

func TestProcessSumsEnabledVoices(t *testing.T) {
	e, err := New(4, 44100, fastmixer.KMaxFastTracks)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h1, _ := e.GetTrackName()
	e.SetBufferProvider(h1, constProvider{0.1, 0.1})
	e.Enable(h1)

	h2, _ := e.GetTrackName()
	e.SetBufferProvider(h2, constProvider{0.2, 0.2})
	e.Enable(h2)

	dst := make([]float32, 8)
	if err := e.Process(dst, 4, 0); err != nil {
		t.Fatalf("Process: %v", err)
	}
	for i, v := range dst {
		if diff := v - 0.3; diff > 1e-5 || diff < -1e-5 {
			t.Fatalf("dst[%d] = %v, want ~0.3", i, v)
		}
	}
}

func TestProcessSkipsDisabledAndUnbound(t *testing.T) {
	e, _ := New(2, 44100, fastmixer.KMaxFastTracks)
	h1, _ := e.GetTrackName() // never enabled
	_ = h1
	h2, _ := e.GetTrackName()
	e.Enable(h2) // enabled but no provider bound

	dst := make([]float32, 4)
	if err := e.Process(dst, 2, 0); err != nil {
		t.Fatalf("Process: %v", err)
	}
	for i, v := range dst {
		if v != 0 {
			t.Fatalf("dst[%d] = %v, want 0", i, v)
		}
	}
}

func TestProcessAppliesVolume(t *testing.T) {
	e, _ := New(1, 44100, fastmixer.KMaxFastTracks)
	h, _ := e.GetTrackName()
	e.SetBufferProvider(h, constProvider{1.0, 1.0})
	e.SetParameter(h, fastmixer.ParamClassVolume, fastmixer.ParamKeyVolume0, uint32(fastmixer.UnityVolume)/2)
	e.SetParameter(h, fastmixer.ParamClassVolume, fastmixer.ParamKeyVolume1, uint32(fastmixer.UnityVolume))
	e.Enable(h)

	dst := make([]float32, 2)
	if err := e.Process(dst, 1, 0); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if diff := dst[0] - 0.5; diff > 1e-4 || diff < -1e-4 {
		t.Fatalf("left = %v, want ~0.5", dst[0])
	}
	if diff := dst[1] - 1.0; diff > 1e-4 || diff < -1e-4 {
		t.Fatalf("right = %v, want ~1.0", dst[1])
	}
}

func TestGetTrackNameRejectsBeyondCapacity(t *testing.T) {
	e, _ := New(1, 44100, 1)
	if _, err := e.GetTrackName(); err != nil {
		t.Fatalf("first GetTrackName: %v", err)
	}
	if _, err := e.GetTrackName(); err != fastmixer.ErrTooManyTracks {
		t.Fatalf("second GetTrackName err = %v, want ErrTooManyTracks", err)
	}
}

func TestDeleteTrackNameFreesCapacity(t *testing.T) {
	e, _ := New(1, 44100, 1)
	h, _ := e.GetTrackName()
	e.DeleteTrackName(h)
	if _, err := e.GetTrackName(); err != nil {
		t.Fatalf("GetTrackName after delete: %v", err)
	}
}
