// Package debugtx transmits the debug line on every UART channel that is
// connected in debug TX mode, once per interval.
package debugtx

import (
	"busscope/firmware/channel"
	logclient "busscope/firmware/client/logger"
	timerclient "busscope/firmware/client/timer"
	"busscope/firmware/kernel"
)

// DefaultInterval is the transmit period in ticks.
const DefaultInterval = 1000

type Service struct {
	chans    []*channel.Channel
	timeCap  kernel.Capability
	logCap   kernel.Capability
	interval uint32
}

func New(chans []*channel.Channel, timeCap, logCap kernel.Capability, interval uint32) *Service {
	if interval == 0 {
		interval = DefaultInterval
	}
	return &Service{chans: chans, timeCap: timeCap, logCap: logCap, interval: interval}
}

func (s *Service) Run(ctx *kernel.Context) {
	sl, err := timerclient.NewSleeper(ctx, s.timeCap)
	if err != nil {
		logclient.Logf(ctx, s.logCap, "debugtx: %v", err)
		return
	}
	for {
		ok, err := sl.Sleep(ctx, s.interval)
		if err != nil {
			logclient.Logf(ctx, s.logCap, "debugtx: %v", err)
			select {
			case <-ctx.Done():
				return
			default:
			}
			ctx.BlockOnTick()
			continue
		}
		if !ok {
			return
		}
		for _, c := range s.chans {
			c.SendDebug()
		}
	}
}
