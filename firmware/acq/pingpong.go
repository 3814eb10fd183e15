// Package acq buffers bytes arriving in interrupt context and drains them to
// the persistent log from task context.
package acq

import (
	"runtime"
	"sync/atomic"

	"busscope/internal/errcode"
)

const (
	HalfBytes = 256
	// Capacity is how many bytes can be absorbed between two drains.
	Capacity = 2 * HalfBytes
)

// HalfState is the ownership state of one half.
type HalfState uint32

const (
	// Writing: free for the producer.
	Writing HalfState = iota
	// Producing: the producer is appending.
	Producing
	// Reading: the consumer is draining.
	Reading
)

func (s HalfState) String() string {
	switch s {
	case Writing:
		return "writing"
	case Producing:
		return "producing"
	case Reading:
		return "reading"
	default:
		return "unknown"
	}
}

type half struct {
	state atomic.Uint32
	n     atomic.Uint32
	armed atomic.Bool
	seq   atomic.Uint32

	// Owned by the scheduler.
	scheduled bool

	buf [HalfBytes]byte
}

// Sink receives drained bytes. Returning an error coded errcode.Busy keeps the
// bytes buffered for a later drain; any other result releases them.
type Sink interface {
	Drain(p []byte) error
}

// PingPong is a single-producer single-consumer double buffer. Put never
// blocks or allocates. The producer fills one half until it is full, then
// moves to the other half only once that one has been drained, so bytes reach
// the sink in arrival order.
type PingPong struct {
	name string
	sink Sink

	halves [2]half
	cur    atomic.Uint32
	seq    uint32

	overrun atomic.Bool
	dropped atomic.Uint32
}

func NewPingPong(name string, sink Sink) *PingPong {
	return &PingPong{name: name, sink: sink}
}

func (p *PingPong) Name() string { return p.name }

func (h *half) tryPut(b byte) (first, ok bool) {
	if !h.state.CompareAndSwap(uint32(Writing), uint32(Producing)) {
		return false, false
	}
	n := h.n.Load()
	if n >= HalfBytes {
		h.state.Store(uint32(Writing))
		return false, false
	}
	h.buf[n] = b
	h.n.Store(n + 1)
	h.state.Store(uint32(Writing))
	return n == 0, true
}

func (h *half) free() uint32 {
	if HalfState(h.state.Load()) == Reading {
		return 0
	}
	return HalfBytes - h.n.Load()
}

func (h *half) idle() bool {
	return HalfState(h.state.Load()) != Reading && h.n.Load() == 0
}

// Put appends b. It reports false when both halves are unavailable; the byte
// is dropped and the overrun flag raised.
func (p *PingPong) Put(b byte) bool {
	cur := p.cur.Load()
	for try := 0; try < 2; try++ {
		h := &p.halves[cur]
		if first, ok := h.tryPut(b); ok {
			if first {
				p.seq++
				h.seq.Store(p.seq)
				h.armed.Store(true)
			}
			return true
		}
		other := cur ^ 1
		if !p.halves[other].idle() {
			break
		}
		cur = other
		p.cur.Store(cur)
	}
	p.dropped.Add(1)
	p.overrun.Store(true)
	return false
}

// Available returns how many bytes Put would accept right now. Only the
// producer may rely on the result.
func (p *PingPong) Available() int {
	cur := p.cur.Load()
	n := p.halves[cur].free()
	if other := &p.halves[cur^1]; other.idle() {
		n += HalfBytes
	}
	return int(n)
}

// PutRecord appends rec only if it fits entirely. A rejected record counts
// every byte as dropped.
func (p *PingPong) PutRecord(rec []byte) bool {
	if len(rec) > p.Available() {
		p.dropped.Add(uint32(len(rec)))
		p.overrun.Store(true)
		return false
	}
	for _, b := range rec {
		p.Put(b)
	}
	return true
}

// Buffered returns the bytes waiting for a drain.
func (p *PingPong) Buffered() int {
	return int(p.halves[0].n.Load() + p.halves[1].n.Load())
}

func (p *PingPong) Overrun() bool   { return p.overrun.Load() }
func (p *PingPong) Dropped() uint32 { return p.dropped.Load() }

// Discard counts n bytes the sink could not keep as dropped and raises the
// overrun flag.
func (p *PingPong) Discard(n int) {
	if n <= 0 {
		return
	}
	p.dropped.Add(uint32(n))
	p.overrun.Store(true)
}

// ClearOverrun resets the overrun flag and the dropped counter.
func (p *PingPong) ClearOverrun() {
	p.overrun.Store(false)
	p.dropped.Store(0)
}

// State returns the state of half i (0 or 1).
func (p *PingPong) State(i int) HalfState {
	return HalfState(p.halves[i&1].state.Load())
}

// Reset discards buffered bytes. The producer must be stopped.
func (p *PingPong) Reset() {
	for i := range p.halves {
		h := &p.halves[i]
		for !h.state.CompareAndSwap(uint32(Writing), uint32(Reading)) {
			runtime.Gosched()
		}
		h.n.Store(0)
		h.armed.Store(false)
		h.state.Store(uint32(Writing))
	}
	p.cur.Store(0)
}

// drain hands half i to the sink.
func (p *PingPong) drain(i int) error {
	h := &p.halves[i]
	if !h.state.CompareAndSwap(uint32(Writing), uint32(Reading)) {
		return errcode.New(errcode.Busy, "acq.drain", p.name)
	}
	n := h.n.Load()
	var err error
	if n > 0 {
		err = p.sink.Drain(h.buf[:n])
		if errcode.Of(err) == errcode.Busy {
			h.state.Store(uint32(Writing))
			return err
		}
	}
	h.n.Store(0)
	h.armed.Store(false)
	h.state.Store(uint32(Writing))
	return err
}
