package fastmixer_test

import (
	"context"
	"testing"
	"time"

	"github.com/STS-Dev-Team/platform-frameworks-av/internal/audiosink"
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/fastmixer"
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/mixengine"
)

type constProvider struct{ l, r float32 }

func (c constProvider) FillFrames(dst []float32) int {
	for i := 0; i < len(dst); i += 2 {
		dst[i], dst[i+1] = c.l, c.r
	}
	return len(dst) / 2
}

// startWorker runs w on its own goroutine and returns a function that
// waits for Run to return, failing the test unless it returns nil (a clean
// EXIT) within timeout.
func startWorker(t *testing.T, w *fastmixer.Worker, timeout time.Duration) (waitExit func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	return func() {
		t.Helper()
		defer cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("Run returned %v, want nil (clean EXIT)", err)
			}
		case <-time.After(timeout):
			t.Fatal("Worker.Run did not exit in time")
		}
	}
}

func TestWorkerMixWriteProducesOutput(t *testing.T) {
	queue := fastmixer.NewStateQueue()
	sink := audiosink.NewRecordSink(44100)
	dump := fastmixer.NewDumpState()
	w := fastmixer.NewWorker(queue, mixengine.NewFactory(), nil, dump)

	var tracks [fastmixer.KMaxFastTracks]fastmixer.FastTrack
	tracks[0] = fastmixer.FastTrack{BufferProvider: constProvider{0.5, 0.5}, Generation: 1}

	queue.Publish(&fastmixer.FastMixerState{
		Command:       fastmixer.CommandMixWrite,
		Tracks:        tracks,
		TrackMask:     fastmixer.TrackMask(0).Set(0),
		FastTracksGen: 1,
		FrameCount:    64,
		SampleRate:    44100,
		OutputSink:    sink,
		OutputSinkGen: 1,
	})
	waitExit := startWorker(t, w, 4*time.Second)

	waitForFrames(t, sink, 1, 2*time.Second)

	queue.Publish(&fastmixer.FastMixerState{Command: fastmixer.CommandExit})
	waitExit()

	bufs := sink.Buffers()
	if len(bufs) == 0 {
		t.Fatal("expected at least one buffer written")
	}
	for _, s := range bufs[0] {
		if s < 0.49 || s > 0.51 {
			t.Fatalf("sample = %v, want ~0.5", s)
		}
	}
}

func TestWorkerRemovedTrackStopsContributing(t *testing.T) {
	queue := fastmixer.NewStateQueue()
	sink := audiosink.NewRecordSink(44100)
	w := fastmixer.NewWorker(queue, mixengine.NewFactory(), nil, nil)

	var tracks [fastmixer.KMaxFastTracks]fastmixer.FastTrack
	tracks[0] = fastmixer.FastTrack{BufferProvider: constProvider{1, 1}, Generation: 1}
	queue.Publish(&fastmixer.FastMixerState{
		Command: fastmixer.CommandMixWrite, Tracks: tracks,
		TrackMask: fastmixer.TrackMask(0).Set(0), FastTracksGen: 1,
		FrameCount: 32, SampleRate: 44100, OutputSink: sink, OutputSinkGen: 1,
	})
	waitExit := startWorker(t, w, 4*time.Second)
	waitForFrames(t, sink, 1, 2*time.Second)

	queue.Publish(&fastmixer.FastMixerState{
		Command: fastmixer.CommandMixWrite, TrackMask: fastmixer.TrackMask(0), FastTracksGen: 2,
		FrameCount: 32, SampleRate: 44100, OutputSink: sink, OutputSinkGen: 1,
	})
	// A cycle that polled before this publish may still write one buffer
	// from the old table; the second buffer after it comes from a cycle
	// that has observed the removal.
	waitForFrames(t, sink, len(sink.Buffers())+2, 2*time.Second)

	queue.Publish(&fastmixer.FastMixerState{Command: fastmixer.CommandExit})
	waitExit()

	bufs := sink.Buffers()
	last := bufs[len(bufs)-1]
	for _, s := range last {
		if s != 0 {
			t.Fatalf("expected silence after track removal, got %v", s)
		}
	}
}

func TestWorkerWriteErrorsAreCounted(t *testing.T) {
	queue := fastmixer.NewStateQueue()
	sink := audiosink.NewRecordSink(44100)
	sink.FailNextWrites(true)
	dump := fastmixer.NewDumpState()
	w := fastmixer.NewWorker(queue, mixengine.NewFactory(), nil, dump)

	var tracks [fastmixer.KMaxFastTracks]fastmixer.FastTrack
	tracks[0] = fastmixer.FastTrack{BufferProvider: constProvider{1, 1}, Generation: 1}
	queue.Publish(&fastmixer.FastMixerState{
		Command: fastmixer.CommandMixWrite, Tracks: tracks,
		TrackMask: fastmixer.TrackMask(0).Set(0), FastTracksGen: 1,
		FrameCount: 32, SampleRate: 44100, OutputSink: sink, OutputSinkGen: 1,
	})
	waitExit := startWorker(t, w, 4*time.Second)

	deadline := time.Now().Add(2 * time.Second)
	for dump.Snapshot().WriteErrors == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if dump.Snapshot().WriteErrors == 0 {
		t.Fatal("expected at least one write error to be counted")
	}

	queue.Publish(&fastmixer.FastMixerState{Command: fastmixer.CommandExit})
	waitExit()
}

func TestWorkerMissingBufferProviderIsFatal(t *testing.T) {
	queue := fastmixer.NewStateQueue()
	w := fastmixer.NewWorker(queue, mixengine.NewFactory(), nil, nil)

	var tracks [fastmixer.KMaxFastTracks]fastmixer.FastTrack
	tracks[0] = fastmixer.FastTrack{Generation: 1} // no BufferProvider, but slot active
	queue.Publish(&fastmixer.FastMixerState{
		Command: fastmixer.CommandHotIdle, Tracks: tracks,
		TrackMask: fastmixer.TrackMask(0).Set(0), FastTracksGen: 1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case err := <-done:
		if err != fastmixer.ErrMissingBufferProvider {
			t.Fatalf("Run returned %v, want ErrMissingBufferProvider", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return the fatal error in time")
	}
}

func waitForFrames(t *testing.T, sink *audiosink.RecordSink, n int, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if len(sink.Buffers()) >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d buffers, got %d", n, len(sink.Buffers()))
}
