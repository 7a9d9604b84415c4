//go:build headless

package main

import (
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/audiosink"
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/fastmixer"
)

// newOutputSink ignores backend in a headless build: there is no real
// device to open, so every backend name gets the same discard sink.
func newOutputSink(_ string, sampleRate int) (fastmixer.OutputSink, error) {
	return audiosink.NewHeadlessSink(sampleRate)
}
