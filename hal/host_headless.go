//go:build !tinygo

package hal

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Enabled    bool
	Hz         int
	Ticks      uint64
	StepBudget int
	// Touches are replayed one per frame from the first frame on.
	Touches []TouchSample
}

// RunHeadless runs the OS without opening a window.
func RunHeadless(ctx context.Context, opts HostOptions, newApp func(HAL) func() error, cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	if cfg.StepBudget <= 0 {
		cfg.StepBudget = 1
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}

	h := newHostHAL(opts)
	defer h.close()
	step := newApp(h)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t := time.NewTicker(d)
		defer t.Stop()

		var tick uint64
		touches := cfg.Touches
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				if len(touches) > 0 {
					h.touch.Inject(touches[0])
					touches = touches[1:]
				}
				h.t.step(1)
				for i := 0; i < cfg.StepBudget && step != nil; i++ {
					if err := step(); err != nil {
						return err
					}
				}
				tick++
				if cfg.Ticks > 0 && tick >= cfg.Ticks {
					return nil
				}
			}
		}
	})
	return g.Wait()
}

func (h *hostHAL) close() {
	h.lines.closeAll()
	_ = h.flash.Close()
}
