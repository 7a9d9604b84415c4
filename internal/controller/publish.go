package controller

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Run publishes the builder's current snapshot every publishInterval, and
// logs a DumpState snapshot every telemetryInterval via onTelemetry (nil
// disables telemetry), until ctx is canceled or stop is closed. It
// mirrors the run/cancel/errgroup shape a producer with an independent
// stop signal needs: whichever of ctx or stop fires first tears down the
// other loop too.
func (c *Controller) Run(ctx context.Context, publishInterval, telemetryInterval time.Duration, stop <-chan struct{}, onTelemetry func()) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(publishInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				c.Publish()
			}
		}
	})

	if onTelemetry != nil && telemetryInterval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(telemetryInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					onTelemetry()
				}
			}
		})
	}

	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-stop:
		}
		cancel()
		return nil
	})

	return g.Wait()
}
