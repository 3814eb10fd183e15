package timer

import (
	"fmt"

	"busscope/firmware/kernel"
	"busscope/firmware/proto"
)

// Sleeper issues MsgSleep requests to the timer service and waits for the wake.
//
// A Sleeper belongs to one task; it owns a private reply endpoint.
type Sleeper struct {
	timeCap kernel.Capability
	reply   kernel.Capability
	nextID  uint32
}

func NewSleeper(ctx *kernel.Context, timeCap kernel.Capability) (*Sleeper, error) {
	if ctx == nil {
		return nil, fmt.Errorf("timer sleeper: nil context")
	}
	reply := ctx.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	if !reply.Valid() {
		return nil, fmt.Errorf("timer sleeper: allocate reply endpoint")
	}
	return &Sleeper{timeCap: timeCap, reply: reply}, nil
}

// Sleep blocks for dt ticks. It returns false without error when the kernel shuts down.
func (s *Sleeper) Sleep(ctx *kernel.Context, dt uint32) (bool, error) {
	s.nextID++
	if s.nextID == 0 {
		s.nextID++
	}
	waitingID := s.nextID

	payload := proto.SleepPayload(waitingID, dt)
	res := ctx.SendToCapRetry(s.timeCap, uint16(proto.MsgSleep), payload, s.reply.Restrict(kernel.RightSend), 10)
	if res != kernel.SendOK {
		return false, fmt.Errorf("timer sleep send: %s", res)
	}

	for {
		msg, ok := ctx.Recv(s.reply.Restrict(kernel.RightRecv))
		if !ok {
			return false, nil
		}

		switch proto.Kind(msg.Kind) {
		case proto.MsgWake:
			reqID, ok := proto.DecodeWakePayload(msg.Payload())
			if !ok {
				return false, fmt.Errorf("timer wake: bad payload")
			}
			if reqID != waitingID {
				continue
			}
			return true, nil

		case proto.MsgError:
			code, ref, reqID, ok := proto.DecodeErrorPayload(msg.Payload())
			if !ok {
				return false, fmt.Errorf("timer error: bad payload")
			}
			if reqID != 0 && reqID != waitingID {
				continue
			}
			return false, fmt.Errorf("timer error: code=%s ref=%s", code, ref)
		}
	}
}
