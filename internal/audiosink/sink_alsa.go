//go:build linux && !headless && cgo

package audiosink

/*
#cgo LDFLAGS: -lasound
#include <alsa/asoundlib.h>
#include <stdlib.h>

static snd_pcm_t* openPCM(const char* device, int* err) {
    snd_pcm_t* handle;
    *err = snd_pcm_open(&handle, device, SND_PCM_STREAM_PLAYBACK, 0);
    return handle;
}

static int setupPCM(snd_pcm_t* handle, unsigned int rate, unsigned int channels) {
    snd_pcm_hw_params_t* params;
    int err;

    snd_pcm_hw_params_alloca(&params);
    err = snd_pcm_hw_params_any(handle, params);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_access(handle, params, SND_PCM_ACCESS_RW_INTERLEAVED);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_format(handle, params, SND_PCM_FORMAT_FLOAT);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_channels(handle, params, channels);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_rate(handle, params, rate, 0);
    if (err < 0) return err;

    err = snd_pcm_hw_params(handle, params);
    if (err < 0) return err;

    return snd_pcm_prepare(handle);
}

static snd_pcm_sframes_t writePCM(snd_pcm_t* handle, float* buffer, snd_pcm_uframes_t frames) {
    return snd_pcm_writei(handle, buffer, frames);
}

static void closePCM(snd_pcm_t* handle) {
    if (handle != NULL) {
        snd_pcm_drain(handle);
        snd_pcm_close(handle);
    }
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/STS-Dev-Team/platform-frameworks-av/internal/fastmixer"
)

// alsaDrainFrames is how many frames the background drain goroutine pulls
// from the ring per snd_pcm_writei call.
const alsaDrainFrames = 512

// ALSASink is a fastmixer.OutputSink over ALSA's PCM API. snd_pcm_writei
// blocks until the device has room, which the OutputSink contract
// forbids on the caller's goroutine; a background goroutine owns the
// blocking call and drains a sampleRing the same way sink_oto.go
// decouples oto's pull callback, so the realtime worker's Write is
// always just a bounded memory copy.
type ALSASink struct {
	handle *C.snd_pcm_t
	ring   *sampleRing
	format fastmixer.SinkFormat
	done   chan struct{}
}

// NewALSASink opens the default ALSA device at sampleRate, stereo,
// native-float32 samples, and starts the background drain goroutine.
func NewALSASink(sampleRate int) (*ALSASink, error) {
	device := C.CString("default")
	defer C.free(unsafe.Pointer(device))

	var cerr C.int
	handle := C.openPCM(device, &cerr)
	if cerr < 0 {
		return nil, fmt.Errorf("audiosink: open PCM device: %s", C.GoString(C.snd_strerror(cerr)))
	}
	if cerr = C.setupPCM(handle, C.uint(sampleRate), 2); cerr < 0 {
		C.closePCM(handle)
		return nil, fmt.Errorf("audiosink: setup PCM: %s", C.GoString(C.snd_strerror(cerr)))
	}

	s := &ALSASink{
		handle: handle,
		ring:   newSampleRing(alsaDrainFrames * 8),
		format: fastmixer.SinkFormat{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Encoding:     fastmixer.EncodingFloat32,
		},
		done: make(chan struct{}),
	}
	go s.drainLoop()
	return s, nil
}

func (s *ALSASink) drainLoop() {
	buf := make([]float32, alsaDrainFrames*2)
	for {
		select {
		case <-s.done:
			return
		default:
		}
		s.ring.Read(buf, alsaDrainFrames)
		frames := C.writePCM(s.handle, (*C.float)(unsafe.Pointer(&buf[0])), C.snd_pcm_uframes_t(alsaDrainFrames))
		if frames < 0 && C.int(frames) == -C.EPIPE {
			C.snd_pcm_prepare(s.handle)
		}
	}
}

func (s *ALSASink) Format() fastmixer.SinkFormat { return s.format }
func (s *ALSASink) NonBlocking() bool            { return true }

func (s *ALSASink) Write(buf []float32, frameCount int) (int, error) {
	return s.ring.Write(buf, frameCount), nil
}

func (s *ALSASink) Close() error {
	close(s.done)
	C.closePCM(s.handle)
	return nil
}
