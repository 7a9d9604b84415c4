package scenario

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/STS-Dev-Team/platform-frameworks-av/internal/audiosink"
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/controller"
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/fastmixer"
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/mixengine"
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/rtsched"
)

type toneProvider struct{ level float32 }

func (t toneProvider) FillFrames(dst []float32) int {
	for i := 0; i < len(dst); i += 2 {
		dst[i], dst[i+1] = t.level, t.level
	}
	return len(dst) / 2
}

func TestScenarioBringUpMixWriteThenExit(t *testing.T) {
	queue := fastmixer.NewStateQueue()
	sink := audiosink.NewRecordSink(44100)
	var waker rtsched.ColdIdleWaiter
	ctrl := controller.New(queue, waker, nil)
	worker := fastmixer.NewWorker(queue, mixengine.NewFactory(), waker, nil)

	r := NewRunner(ctrl)
	defer r.Close()
	toneHandle := r.RegisterBuffer(toneProvider{level: 0.25})

	script := `
		set_format(64, 44100)
		add_track(0, ` + strconv.Itoa(toneHandle) + `)
		set_command("MIX_WRITE")
		publish()
		advance(50)
		set_command("EXIT")
		publish()
	`
	ctrl.SetOutputSink(sink)
	ctrl.Publish() // establish the sink binding before the worker's first poll

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	// The worker must already be polling the queue before the script
	// publishes MIX_WRITE, since the queue is a single-slot latest-wins
	// mailbox: publishing EXIT before the worker ever observes MIX_WRITE
	// would mean it never mixes or writes anything.
	if err := r.Run(script); err != nil {
		t.Fatalf("scenario run: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("worker.Run = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not exit after EXIT command")
	}

	bufs := sink.Buffers()
	if len(bufs) == 0 {
		t.Fatal("expected the scenario to produce at least one write")
	}
	for _, s := range bufs[0] {
		if s < 0.24 || s > 0.26 {
			t.Fatalf("sample = %v, want ~0.25", s)
		}
	}
}
