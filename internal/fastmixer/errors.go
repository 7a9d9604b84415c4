package fastmixer

import "errors"

var (
	// ErrSinkMayBlock is returned when binding a sink that reports
	// NonBlocking() == false. Blocking sinks are rejected at bind time
	// rather than tolerated with an internal timeout.
	ErrSinkMayBlock = errors.New("fastmixer: sink does not guarantee non-blocking Write")

	// ErrSinkNotStereo is returned when a bound sink reports a channel
	// count other than 2; the fast mixer never produces more or fewer
	// than stereo output.
	ErrSinkNotStereo = errors.New("fastmixer: sink format is not stereo")

	// ErrMissingBufferProvider signals that a slot marked active in
	// TrackMask has a nil BufferProvider. The worker treats this as
	// fatal.
	ErrMissingBufferProvider = errors.New("fastmixer: active track slot has no buffer provider")

	// ErrUnknownCommand signals a command word outside the seven the FSM
	// recognizes.
	ErrUnknownCommand = errors.New("fastmixer: unknown command value")

	// ErrTooManyTracks is returned by a MixEngine's GetTrackName when
	// every track handle it can issue is already in use.
	ErrTooManyTracks = errors.New("fastmixer: no free track handle")
)
