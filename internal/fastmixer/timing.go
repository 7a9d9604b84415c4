package fastmixer

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// Sleep encodes the worker's next suspension. SleepBusyWait means never
// suspend; SleepYield means a cooperative yield; any other non-negative
// value is a nanosecond suspension strictly less than one second.
const (
	SleepBusyWait int64 = -1
	SleepYield    int64 = 0
)

// jitterSampleWindow is how many cycle intervals are accumulated before
// the aggregate mean/min/max/stddev are snapshotted into DumpState and the
// accumulator resets.
const jitterSampleWindow = 1000

// Classification is the outcome of comparing one cycle's measured
// interval against the ideal period.
type Classification int

const (
	ClassificationNominal Classification = iota
	ClassificationUnderrun
	ClassificationOverrun
)

// TimingController measures the worker's cycle interval against the
// device period and classifies underruns/overruns, deriving the next
// sleep duration to stay locked to the period.
//
// It intentionally has no long-term drift anchor: each cycle is classified
// purely against the ideal period, not against an audio clock or sink
// fill level.
type TimingController struct {
	periodNs   int64
	underrunNs int64
	overrunNs  int64

	oldTs             time.Time
	oldTsValid        bool
	ignoreNextOverrun bool

	samples []float64 // interval seconds, accumulated for the current window

	dump *DumpState

	// TODO(phase-correction): a PhaseCorrection hook belongs here once a
	// drift anchor (audio clock or sink fill level) is available.
}

// NewTimingController derives period/underrun/overrun thresholds from the
// frame count and sample rate:
//
//	period_ns    = frame_count * 1e9 / sample_rate
//	underrun_ns  = 1.75 * period_ns
//	overrun_ns   = 0.25 * period_ns
func NewTimingController(frameCount, sampleRate int, dump *DumpState) *TimingController {
	tc := &TimingController{
		dump:    dump,
		samples: make([]float64, 0, jitterSampleWindow),
	}
	tc.Reconfigure(frameCount, sampleRate)
	return tc
}

// Reconfigure recomputes the period thresholds and resets the timing
// baseline, as happens whenever frame count or sample rate change.
func (tc *TimingController) Reconfigure(frameCount, sampleRate int) {
	if frameCount <= 0 || sampleRate <= 0 {
		tc.periodNs, tc.underrunNs, tc.overrunNs = 0, 0, 0
		tc.ResetBaseline()
		return
	}
	period := int64(frameCount) * 1_000_000_000 / int64(sampleRate)
	tc.periodNs = period
	tc.underrunNs = period * 175 / 100
	tc.overrunNs = period * 25 / 100
	tc.ResetBaseline()
}

// PeriodNs, UnderrunNs, OverrunNs expose the derived thresholds (used by
// tests and telemetry).
func (tc *TimingController) PeriodNs() int64   { return tc.periodNs }
func (tc *TimingController) UnderrunNs() int64 { return tc.underrunNs }
func (tc *TimingController) OverrunNs() int64  { return tc.overrunNs }

// ResetBaseline invalidates the previous timestamp and arms
// ignoreNextOverrun, so the first cycle after a reset and the first cycle
// coming out of an idle period are never misclassified as overruns.
func (tc *TimingController) ResetBaseline() {
	tc.oldTsValid = false
	tc.ignoreNextOverrun = true
}

// clockNow is the monotonic clock read. Returns ok == false to model a
// clock read failure; the real implementation using time.Now() cannot
// fail, so tests exercise the failure path by substituting this var.
var clockNow = func() (time.Time, bool) { return time.Now(), true }

// Measure reads the clock, classifies the interval since the last
// measured cycle (if any), and returns the classification and the next
// sleep to use. It also feeds DumpState counters and the jitter
// statistics accumulator.
func (tc *TimingController) Measure() (classification Classification, sleepNs int64) {
	now, ok := clockNow()
	if !ok {
		tc.oldTsValid = false
		return ClassificationNominal, tc.periodNs
	}

	if !tc.oldTsValid {
		tc.oldTs = now
		tc.oldTsValid = true
		tc.ignoreNextOverrun = true
		return ClassificationNominal, tc.periodNs
	}

	delta := now.Sub(tc.oldTs)
	tc.oldTs = now
	tc.recordSample(delta.Seconds())

	switch {
	case delta.Nanoseconds() > tc.underrunNs:
		if tc.dump != nil {
			tc.dump.IncUnderruns()
		}
		tc.ignoreNextOverrun = true
		return ClassificationUnderrun, SleepBusyWait

	case delta.Nanoseconds() < tc.overrunNs:
		if tc.ignoreNextOverrun {
			tc.ignoreNextOverrun = false
			if tc.dump != nil {
				tc.dump.IncNominalCycles()
			}
			return ClassificationNominal, SleepBusyWait
		}
		if tc.dump != nil {
			tc.dump.IncOverruns()
		}
		return ClassificationOverrun, tc.periodNs - tc.overrunNs

	default:
		tc.ignoreNextOverrun = false
		if tc.dump != nil {
			tc.dump.IncNominalCycles()
		}
		return ClassificationNominal, SleepBusyWait
	}
}

func (tc *TimingController) recordSample(seconds float64) {
	tc.samples = append(tc.samples, seconds)
	if len(tc.samples) < jitterSampleWindow {
		return
	}
	tc.flushWindow()
}

func (tc *TimingController) flushWindow() {
	if len(tc.samples) == 0 || tc.dump == nil {
		tc.samples = tc.samples[:0]
		return
	}
	mean, stddev := stat.MeanStdDev(tc.samples, nil)
	min, max := tc.samples[0], tc.samples[0]
	for _, v := range tc.samples {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	tc.dump.setJitterStats(mean, min, max, stddev)
	tc.samples = tc.samples[:0]
}
