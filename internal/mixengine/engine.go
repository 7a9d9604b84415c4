// Package mixengine implements the additive mixing engine the fast mixer
// worker drives once per cycle: it holds one voice per active track,
// pulls frames from each track's buffer provider, applies independent
// left/right gain, and sums into the caller-supplied destination buffer.
//
// Every exported method is called from exactly one goroutine — the fast
// mixer worker's own — so nothing here takes a lock. A lock would
// reintroduce the priority-inversion risk the whole point of a dedicated
// realtime worker is to avoid.
package mixengine

import (
	"fmt"

	"github.com/STS-Dev-Team/platform-frameworks-av/internal/fastmixer"
)

type voice struct {
	provider   fastmixer.BufferProvider
	volL, volR uint32 // Q4.12, independently settable via SetParameter
	enabled    bool
	inUse      bool
	scratch    []float32
}

// Engine is the concrete fastmixer.MixEngine used outside of tests. Every
// voice slot, including its scratch buffer, is allocated up front by New
// so that GetTrackName and Process never allocate on the worker's
// realtime goroutine: all track slots are sized at construction instead
// of growing lazily as tracks get added.
type Engine struct {
	frameCount int
	sampleRate int
	voices     []voice // len == maxTracks, indexed directly by TrackHandle
}

// New builds an Engine sized for exactly frameCount frames per Process
// call at sampleRate, preallocating maxTracks voice slots and their
// scratch buffers.
func New(frameCount, sampleRate, maxTracks int) (*Engine, error) {
	if frameCount <= 0 {
		return nil, fmt.Errorf("mixengine: frame count must be positive, got %d", frameCount)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("mixengine: sample rate must be positive, got %d", sampleRate)
	}
	e := &Engine{
		frameCount: frameCount,
		sampleRate: sampleRate,
		voices:     make([]voice, maxTracks),
	}
	for i := range e.voices {
		e.voices[i].scratch = make([]float32, frameCount*2)
	}
	return e, nil
}

// NewFactory returns a fastmixer.EngineFactory bound to KMaxFastTracks
// voices, the shape the worker's reconfiguration path expects.
func NewFactory() fastmixer.EngineFactory {
	return func(frameCount, sampleRate int) (fastmixer.MixEngine, error) {
		return New(frameCount, sampleRate, fastmixer.KMaxFastTracks)
	}
}

// voiceAt returns the voice for h, or nil if h is out of range or not
// currently claimed.
func (e *Engine) voiceAt(h fastmixer.TrackHandle) *voice {
	if h < 0 || int(h) >= len(e.voices) || !e.voices[h].inUse {
		return nil
	}
	return &e.voices[h]
}

func (e *Engine) GetTrackName() (fastmixer.TrackHandle, error) {
	for i := range e.voices {
		if e.voices[i].inUse {
			continue
		}
		scratch := e.voices[i].scratch
		e.voices[i] = voice{
			volL:    uint32(fastmixer.UnityVolume),
			volR:    uint32(fastmixer.UnityVolume),
			inUse:   true,
			scratch: scratch,
		}
		return fastmixer.TrackHandle(i), nil
	}
	return fastmixer.NoHandle, fastmixer.ErrTooManyTracks
}

func (e *Engine) DeleteTrackName(h fastmixer.TrackHandle) {
	if v := e.voiceAt(h); v != nil {
		scratch := v.scratch
		*v = voice{scratch: scratch}
	}
}

func (e *Engine) SetBufferProvider(h fastmixer.TrackHandle, p fastmixer.BufferProvider) {
	if v := e.voiceAt(h); v != nil {
		v.provider = p
	}
}

func (e *Engine) SetParameter(h fastmixer.TrackHandle, class fastmixer.ParamClass, key fastmixer.ParamKey, value uint32) {
	v := e.voiceAt(h)
	if v == nil {
		return
	}
	switch class {
	case fastmixer.ParamClassVolume:
		switch key {
		case fastmixer.ParamKeyVolume0:
			v.volL = value
		case fastmixer.ParamKeyVolume1:
			v.volR = value
		}
	case fastmixer.ParamClassTrack:
		// ParamKeyMainBuffer: this engine has exactly one destination,
		// supplied directly to Process, so binding is a lifecycle no-op
		// kept only to satisfy the external interface's call shape.
	}
}

func (e *Engine) Enable(h fastmixer.TrackHandle) {
	if v := e.voiceAt(h); v != nil {
		v.enabled = true
	}
}

// Process sums every enabled voice's frames into dst at its own gain,
// then soft-limits anything that summed past full scale.
func (e *Engine) Process(dst []float32, frameCount int, pts int64) error {
	_ = pts
	for i := range dst {
		dst[i] = 0
	}
	for i := range e.voices {
		v := &e.voices[i]
		if !v.inUse || !v.enabled || v.provider == nil {
			continue
		}
		scratch := v.scratch[:frameCount*2]
		n := v.provider.FillFrames(scratch)
		if n <= 0 {
			continue
		}
		if n > frameCount {
			n = frameCount
		}
		gL := float32(v.volL) / float32(fastmixer.UnityVolume)
		gR := float32(v.volR) / float32(fastmixer.UnityVolume)
		for f := 0; f < n; f++ {
			dst[2*f] += scratch[2*f] * gL
			dst[2*f+1] += scratch[2*f+1] * gR
		}
	}
	for i, s := range dst {
		if s > 1 || s < -1 {
			dst[i] = fastTanh(s)
		}
	}
	return nil
}

func (e *Engine) Close() error {
	e.voices = nil
	return nil
}
