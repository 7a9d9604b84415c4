//go:build !headless

package main

import (
	"fmt"

	"github.com/STS-Dev-Team/platform-frameworks-av/internal/audiosink"
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/fastmixer"
)

// newOutputSink builds the OutputSink named by backend. "alsa" is only
// wired in on linux builds with cgo enabled; everywhere else it reports
// an error rather than silently falling back, since a demo run believing
// it opened a real device when it didn't would be confusing.
func newOutputSink(backend string, sampleRate int) (fastmixer.OutputSink, error) {
	switch backend {
	case "", "oto":
		return audiosink.NewOtoSink(sampleRate)
	case "alsa":
		return newALSASink(sampleRate)
	case "record":
		return audiosink.NewRecordSink(sampleRate), nil
	default:
		return nil, fmt.Errorf("unknown output backend %q (want oto, alsa, or record)", backend)
	}
}
