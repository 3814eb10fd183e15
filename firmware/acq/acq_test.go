package acq

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"busscope/internal/errcode"
)

type recordSink struct {
	got   []byte
	calls int
	busy  int
	err   error
}

func (s *recordSink) Drain(p []byte) error {
	s.calls++
	if s.busy > 0 {
		s.busy--
		return errcode.New(errcode.Busy, "test", "locked")
	}
	s.got = append(s.got, p...)
	return s.err
}

func pattern(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i % 251)
	}
	return out
}

func putAll(p *PingPong, data []byte) (accepted int) {
	for _, b := range data {
		if p.Put(b) {
			accepted++
		}
	}
	return accepted
}

func TestBurstUpToCapacityIsLossless(t *testing.T) {
	sink := &recordSink{}
	p := NewPingPong("uart1", sink)
	s := NewScheduler(DefaultFlushDelay)
	s.Add(p)

	in := pattern(Capacity)
	require.Equal(t, Capacity, putAll(p, in))
	require.Zero(t, p.Available())

	require.NoError(t, s.Tick(0))
	require.Equal(t, 2, s.Pending())
	require.NoError(t, s.Tick(DefaultFlushDelay-1))
	require.Empty(t, sink.got)

	require.NoError(t, s.Tick(DefaultFlushDelay))
	require.Equal(t, in, sink.got)
	require.False(t, p.Overrun())
	require.Zero(t, p.Dropped())
	require.Zero(t, p.Buffered())
	require.Zero(t, s.Pending())
}

func TestBurstPastCapacityDropsExcess(t *testing.T) {
	sink := &recordSink{}
	p := NewPingPong("uart1", sink)
	s := NewScheduler(DefaultFlushDelay)
	s.Add(p)

	in := pattern(Capacity + 88)
	require.Equal(t, Capacity, putAll(p, in))
	require.True(t, p.Overrun())
	require.Equal(t, uint32(88), p.Dropped())
	require.True(t, s.Overrun())

	require.NoError(t, s.Tick(0))
	require.NoError(t, s.Tick(DefaultFlushDelay))
	require.Equal(t, in[:Capacity], sink.got)

	p.ClearOverrun()
	require.False(t, p.Overrun())
	require.Zero(t, p.Dropped())
}

func TestProducerKeepsArrivalOrder(t *testing.T) {
	sink := &recordSink{}
	p := NewPingPong("uart1", sink)
	s := NewScheduler(DefaultFlushDelay)
	s.Add(p)

	in := pattern(566)

	putAll(p, in[:HalfBytes])
	require.NoError(t, s.Tick(0))

	putAll(p, in[HalfBytes:HalfBytes+10])
	require.NoError(t, s.Tick(5))

	require.NoError(t, s.Tick(10))
	require.Equal(t, in[:HalfBytes], sink.got)

	// The second half still has room; it fills before the drained one is reused.
	require.Equal(t, 300, putAll(p, in[HalfBytes+10:]))
	require.NoError(t, s.Tick(15))
	require.Equal(t, in[:2*HalfBytes], sink.got)

	require.NoError(t, s.Tick(25))
	require.Equal(t, in, sink.got)
}

func TestBusyDrainIsRetried(t *testing.T) {
	sink := &recordSink{busy: 1}
	p := NewPingPong("uart1", sink)
	s := NewScheduler(DefaultFlushDelay)
	s.Add(p)

	in := pattern(300)
	putAll(p, in)
	require.NoError(t, s.Tick(0))

	require.NoError(t, s.Tick(10))
	require.Empty(t, sink.got)
	require.Equal(t, 1, sink.calls)
	require.Equal(t, 300, p.Buffered())

	require.NoError(t, s.Tick(11))
	require.Equal(t, in, sink.got)
}

func TestDrainErrorReleasesBytes(t *testing.T) {
	sink := &recordSink{err: errcode.New(errcode.LogFull, "test", "full")}
	p := NewPingPong("can1", sink)
	s := NewScheduler(1)
	s.Add(p)

	putAll(p, pattern(20))
	require.NoError(t, s.Tick(0))
	err := s.Tick(1)
	require.ErrorIs(t, err, errcode.LogFull)
	require.Contains(t, err.Error(), "can1")
	require.Zero(t, p.Buffered())
}

func TestPutRecordIsAllOrNothing(t *testing.T) {
	p := NewPingPong("can1", &recordSink{})
	rec := make([]byte, 14)

	n := 0
	for p.PutRecord(rec) {
		n++
	}
	require.Equal(t, Capacity/14, n)
	require.Equal(t, n*14, p.Buffered())
	require.Equal(t, uint32(14), p.Dropped())
	require.True(t, p.Overrun())
}

func TestResetDiscardsBufferedBytes(t *testing.T) {
	sink := &recordSink{}
	p := NewPingPong("uart2", sink)
	s := NewScheduler(DefaultFlushDelay)
	s.Add(p)

	putAll(p, pattern(400))
	require.NoError(t, s.Tick(0))
	p.Reset()
	require.Zero(t, p.Buffered())
	require.Equal(t, Capacity, p.Available())

	require.NoError(t, s.Tick(DefaultFlushDelay))
	require.Empty(t, sink.got)
	require.Zero(t, s.Pending())
	require.Equal(t, Writing, p.State(0))
	require.Equal(t, Writing, p.State(1))
}

func TestConcurrentProducerAcceptedBytesArriveInOrder(t *testing.T) {
	sink := &recordSink{}
	p := NewPingPong("rs232", sink)
	s := NewScheduler(1)
	s.Add(p)

	const total = 20000
	in := pattern(total)
	var accepted []byte

	var wg sync.WaitGroup
	wg.Add(1)
	done := make(chan struct{})
	go func() {
		defer wg.Done()
		defer close(done)
		for _, b := range in {
			if p.Put(b) {
				accepted = append(accepted, b)
			}
		}
	}()

	now := uint64(0)
	running := true
	for running {
		select {
		case <-done:
			running = false
		default:
		}
		now++
		require.NoError(t, s.Tick(now))
	}
	wg.Wait()
	for i := 0; i < 10 && (p.Buffered() > 0 || s.Pending() > 0); i++ {
		now++
		require.NoError(t, s.Tick(now))
	}

	require.Equal(t, accepted, sink.got)
	require.Equal(t, uint32(total-len(accepted)), p.Dropped())
}
