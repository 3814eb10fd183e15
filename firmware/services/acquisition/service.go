// Package acquisition runs the flush scheduler: every tick it drains the
// ping-pong halves that are due into their logs and mirrors the overrun flag
// on the LED.
package acquisition

import (
	"busscope/firmware/acq"
	logclient "busscope/firmware/client/logger"
	"busscope/firmware/kernel"
	"busscope/hal"
)

type Service struct {
	sched  *acq.Scheduler
	led    hal.LED
	logCap kernel.Capability

	now uint64
	lit bool
}

// New returns the task. led may be nil.
func New(sched *acq.Scheduler, led hal.LED, logCap kernel.Capability) *Service {
	return &Service{sched: sched, led: led, logCap: logCap}
}

func (s *Service) Run(ctx *kernel.Context) {
	s.now = ctx.NowTick()
	s.setLED(false)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ctx.TickChan(s.now):
		}
		s.now = ctx.NowTick()
		s.step(ctx)
	}
}

func (s *Service) step(ctx *kernel.Context) {
	if err := s.sched.Tick(s.now); err != nil {
		logclient.Logf(ctx, s.logCap, "acq: %v", err)
	}
	if over := s.sched.Overrun(); over != s.lit {
		if over {
			logclient.Log(ctx, s.logCap, "acq: overrun")
		}
		s.setLED(over)
	}
}

func (s *Service) setLED(on bool) {
	s.lit = on
	if s.led == nil {
		return
	}
	if on {
		s.led.High()
	} else {
		s.led.Low()
	}
}
