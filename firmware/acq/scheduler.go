package acq

import (
	"errors"
	"fmt"

	"busscope/internal/errcode"
)

// DefaultFlushDelay is the one-shot drain delay in ticks.
const DefaultFlushDelay = 10

type flush struct {
	p    *PingPong
	half int
	seq  uint32
	due  uint64
}

// Scheduler runs the one-shot drain of every armed half. It is owned by one
// task; Tick must not be called concurrently.
type Scheduler struct {
	delay   uint64
	buffers []*PingPong
	queue   []flush
}

func NewScheduler(delay uint64) *Scheduler {
	if delay == 0 {
		delay = DefaultFlushDelay
	}
	return &Scheduler{delay: delay}
}

// Add registers a buffer. Add is not safe to call concurrently with Tick.
func (s *Scheduler) Add(p *PingPong) {
	s.buffers = append(s.buffers, p)
}

func (s *Scheduler) Buffers() []*PingPong { return s.buffers }

// Pending returns the number of armed halves waiting for their drain.
func (s *Scheduler) Pending() int { return len(s.queue) }

// seqBefore orders arm sequence numbers across wraparound.
func seqBefore(a, b uint32) bool { return int32(a-b) < 0 }

func (s *Scheduler) arm(now uint64) {
	for _, p := range s.buffers {
		var fresh [2]flush
		n := 0
		for i := range p.halves {
			h := &p.halves[i]
			if h.scheduled || !h.armed.Load() {
				continue
			}
			h.scheduled = true
			fresh[n] = flush{p: p, half: i, seq: h.seq.Load(), due: now + s.delay}
			n++
		}
		if n == 2 && seqBefore(fresh[1].seq, fresh[0].seq) {
			fresh[0], fresh[1] = fresh[1], fresh[0]
		}
		s.queue = append(s.queue, fresh[:n]...)
	}
}

func blockedBy(blocked []*PingPong, p *PingPong) bool {
	for _, b := range blocked {
		if b == p {
			return true
		}
	}
	return false
}

// Tick arms newly filled halves and drains every half that is due, in the
// order they were armed. A drain refused as Busy is retried on the next tick
// and holds back later halves of the same buffer. Other drain errors are
// returned joined; their bytes are released.
func (s *Scheduler) Tick(now uint64) error {
	s.arm(now)

	var (
		errs    []error
		blocked []*PingPong
		keep    = s.queue[:0]
	)
	for _, f := range s.queue {
		h := &f.p.halves[f.half]
		if !h.armed.Load() {
			// Reset since it was armed.
			h.scheduled = false
			continue
		}
		if f.due > now || blockedBy(blocked, f.p) {
			keep = append(keep, f)
			continue
		}
		err := f.p.drain(f.half)
		if errcode.Of(err) == errcode.Busy {
			f.due = now + 1
			keep = append(keep, f)
			blocked = append(blocked, f.p)
			continue
		}
		h.scheduled = false
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.p.name, err))
		}
	}
	s.queue = keep
	return errors.Join(errs...)
}

// Overrun reports whether any buffer dropped bytes.
func (s *Scheduler) Overrun() bool {
	for _, p := range s.buffers {
		if p.Overrun() {
			return true
		}
	}
	return false
}
