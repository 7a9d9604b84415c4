//go:build headless

package audiosink

import "github.com/STS-Dev-Team/platform-frameworks-av/internal/fastmixer"

// HeadlessSink discards every frame it's given. It exists so the worker
// and controller can be built and driven in environments with no audio
// device at all (CI containers, the test suite).
type HeadlessSink struct {
	format fastmixer.SinkFormat
}

// NewHeadlessSink returns a sink that reports sampleRate/stereo/float32
// and drops everything written to it.
func NewHeadlessSink(sampleRate int) (*HeadlessSink, error) {
	return &HeadlessSink{format: fastmixer.SinkFormat{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Encoding:     fastmixer.EncodingFloat32,
	}}, nil
}

func (h *HeadlessSink) Format() fastmixer.SinkFormat { return h.format }
func (h *HeadlessSink) NonBlocking() bool            { return true }
func (h *HeadlessSink) Write(buf []float32, frameCount int) (int, error) {
	return frameCount, nil
}
func (h *HeadlessSink) Close() error { return nil }
