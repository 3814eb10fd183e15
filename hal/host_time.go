//go:build !tinygo

package hal

import (
	"sync/atomic"
	"time"
)

// HostTickPeriod is the duration of one host tick.
const HostTickPeriod = time.Millisecond

// hostTime converts wall time elapsed between frames into 1 ms ticks.
//
// Ticks are delivered on a buffered channel; when the consumer lags, ticks are
// coalesced (the consumer only ever needs the latest sequence number).
type hostTime struct {
	ch  chan uint64
	seq atomic.Uint64

	last time.Time
	acc  time.Duration
}

func newHostTime() *hostTime {
	return &hostTime{ch: make(chan uint64, 1024)}
}

func (t *hostTime) Ticks() <-chan uint64 { return t.ch }

func (t *hostTime) now() uint64 { return t.seq.Load() }

func (t *hostTime) step(n uint64) {
	now := time.Now()
	if t.last.IsZero() {
		t.last = now
		t.acc = 0
		t.stepN(n)
		return
	}

	t.acc += now.Sub(t.last)
	t.last = now

	ticks := uint64(t.acc / HostTickPeriod)
	if ticks == 0 {
		return
	}
	t.acc = t.acc % HostTickPeriod
	t.stepN(ticks)
}

func (t *hostTime) stepN(n uint64) {
	seq := t.seq.Add(n)
	select {
	case t.ch <- seq:
	default:
	}
}
