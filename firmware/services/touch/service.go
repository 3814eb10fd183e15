// Package touch forwards touch panel samples to the UI task as MsgTouch.
package touch

import (
	"busscope/firmware/kernel"
	"busscope/firmware/proto"
	"busscope/hal"
)

// sendRetry bounds how many ticks a sample waits for room in the UI queue.
const sendRetry = 5

type Service struct {
	in hal.Input
	ui kernel.Capability
}

func New(in hal.Input, ui kernel.Capability) *Service {
	return &Service{in: in, ui: ui}
}

func (s *Service) Run(ctx *kernel.Context) {
	if s.in == nil {
		return
	}
	t := s.in.Touch()
	if t == nil {
		return
	}
	samples := t.Samples()
	if samples == nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case sm, ok := <-samples:
			if !ok {
				return
			}
			limit := sendRetry
			if sm.Event == hal.TouchUp {
				// A dropped release leaves a button tracked.
				limit *= 4
			}
			payload := proto.TouchPayload(uint8(sm.Event), sm.X, sm.Y)
			_ = ctx.SendToCapRetry(s.ui, uint16(proto.MsgTouch), payload, kernel.Capability{}, limit)
		}
	}
}
