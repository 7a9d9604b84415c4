//go:build linux && !headless && cgo

package main

import (
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/audiosink"
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/fastmixer"
)

func newALSASink(sampleRate int) (fastmixer.OutputSink, error) {
	return audiosink.NewALSASink(sampleRate)
}
