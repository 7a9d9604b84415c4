//go:build !headless && !(linux && cgo)

package main

import (
	"errors"

	"github.com/STS-Dev-Team/platform-frameworks-av/internal/fastmixer"
)

func newALSASink(int) (fastmixer.OutputSink, error) {
	return nil, errors.New("alsa backend requires linux with cgo enabled")
}
