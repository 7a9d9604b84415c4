// Command fastmixer-demo brings up one fast mixer worker on a dedicated,
// priority-elevated thread, feeds it either WAV file tracks or a Lua
// scenario script, and prints its telemetry until interrupted.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/STS-Dev-Team/platform-frameworks-av/internal/controller"
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/controller/scenario"
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/fastmixer"
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/mixengine"
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/rtsched"
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/trackfile"
)

// trackFlag collects repeated --track=path[,loop] flags.
type trackFlag struct {
	paths []string
	loop  []bool
}

func (t *trackFlag) String() string { return strings.Join(t.paths, ",") }

func (t *trackFlag) Set(value string) error {
	path, loop := value, false
	if idx := strings.LastIndex(value, ","); idx >= 0 && value[idx+1:] == "loop" {
		path, loop = value[:idx], true
	}
	t.paths = append(t.paths, path)
	t.loop = append(t.loop, loop)
	return nil
}

func main() {
	var (
		backend      string
		frameCount   int
		sampleRate   int
		scenarioPath string
		telemetry    time.Duration
		dashboard    bool
		tracks       trackFlag
	)

	flag.StringVar(&backend, "backend", "oto", "output backend: oto, alsa, record")
	flag.IntVar(&frameCount, "frames", 512, "mix cycle frame count")
	flag.IntVar(&sampleRate, "rate", 44100, "sample rate in Hz")
	flag.StringVar(&scenarioPath, "scenario", "", "run this Lua scenario script instead of the WAV-track demo")
	flag.DurationVar(&telemetry, "telemetry", time.Second, "telemetry print interval (0 disables)")
	flag.BoolVar(&dashboard, "dashboard", false, "clear and redraw telemetry in place using a raw terminal")
	flag.Var(&tracks, "track", "WAV file to play as a track (repeatable); append \",loop\" to loop it")
	flag.Parse()

	logger := log.New(os.Stderr, "fastmixer-demo: ", log.LstdFlags)

	if err := run(logger, backend, frameCount, sampleRate, scenarioPath, telemetry, dashboard, tracks); err != nil {
		logger.Fatalf("%v", err)
	}
}

func run(logger *log.Logger, backend string, frameCount, sampleRate int, scenarioPath string, telemetryInterval time.Duration, dashboard bool, tracks trackFlag) error {
	sink, err := newOutputSink(backend, sampleRate)
	if err != nil {
		return fmt.Errorf("open output sink: %w", err)
	}
	defer sink.Close()

	queue := fastmixer.NewStateQueue()
	dump := fastmixer.NewDumpState()
	waker := &rtsched.ColdIdleWaiter{}

	ctrl := controller.New(queue, waker, dump)
	worker := fastmixer.NewWorker(queue, mixengine.NewFactory(), waker, dump)

	ctrl.SetOutputSink(sink)
	ctrl.SetFormat(frameCount, sampleRate)
	ctrl.Publish()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if telemetryInterval > 0 {
		go printTelemetry(ctx, dump, telemetryInterval, dashboard)
	}

	workerDone := make(chan error, 1)
	go func() {
		if err := rtsched.Elevate(rtsched.PriorityMixer); err != nil {
			logger.Printf("scheduling: %v (continuing at default priority)", err)
		}
		defer rtsched.Release()
		workerDone <- worker.Run(ctx)
	}()

	if scenarioPath != "" {
		if err := runScenario(ctrl, scenarioPath); err != nil {
			stop()
			<-workerDone
			return err
		}
	} else {
		if err := bindTracks(ctrl, tracks); err != nil {
			stop()
			<-workerDone
			return err
		}
		ctrl.SetCommand(fastmixer.CommandMixWrite)
		ctrl.Publish()
		logger.Printf("mixing %d track(s) at %d Hz, %d frames/cycle; ctrl-c to stop", len(tracks.paths), sampleRate, frameCount)
	}

	select {
	case <-ctx.Done():
	case err := <-workerDone:
		return err
	}

	ctrl.SetCommand(fastmixer.CommandExit)
	ctrl.Publish()

	select {
	case err := <-workerDone:
		return err
	case <-time.After(2 * time.Second):
		return fmt.Errorf("worker did not exit within 2s of the exit command")
	}
}

func bindTracks(ctrl *controller.Controller, tracks trackFlag) error {
	for i, path := range tracks.paths {
		provider, err := trackfile.Load(path, tracks.loop[i])
		if err != nil {
			return fmt.Errorf("load track %d (%s): %w", i, path, err)
		}
		ctrl.AddTrack(i, provider, nil)
	}
	return nil
}

func runScenario(ctrl *controller.Controller, path string) error {
	script, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read scenario %s: %w", path, err)
	}
	r := scenario.NewRunner(ctrl)
	defer r.Close()
	if err := r.Run(string(script)); err != nil {
		return scenario.FormatError(path, err)
	}
	return nil
}

func printTelemetry(ctx context.Context, dump *fastmixer.DumpState, interval time.Duration, dashboard bool) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var restore func()
	if dashboard && term.IsTerminal(int(os.Stdout.Fd())) {
		if state, err := term.MakeRaw(int(os.Stdout.Fd())); err == nil {
			restore = func() { term.Restore(int(os.Stdout.Fd()), state) }
			defer restore()
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := dump.Snapshot()
			line, err := json.Marshal(snap)
			if err != nil {
				continue
			}
			if dashboard && restore != nil {
				fmt.Fprintf(os.Stdout, "\r\x1b[K%s", line)
			} else {
				fmt.Fprintf(os.Stdout, "%s\r\n", line)
			}
		}
	}
}
