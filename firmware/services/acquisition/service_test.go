package acquisition

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"busscope/firmware/acq"
	"busscope/firmware/kernel"
)

type sink struct {
	mu  sync.Mutex
	got []byte
}

func (s *sink) Drain(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, p...)
	return nil
}

func (s *sink) bytes() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.got)
}

type led struct{ on atomic.Bool }

func (l *led) High() { l.on.Store(true) }
func (l *led) Low()  { l.on.Store(false) }

func start(t *testing.T, sched *acq.Scheduler, l *led) *kernel.Kernel {
	t.Helper()
	k := kernel.New()
	logEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	k.AddTask(New(sched, l, logEP.Restrict(kernel.RightSend)))
	t.Cleanup(k.Close)
	return k
}

func tickUntil(t *testing.T, k *kernel.Kernel, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		k.Tick()
		return cond()
	}, time.Second, time.Millisecond)
}

func TestServiceDrainsAfterFlushDelay(t *testing.T) {
	out := &sink{}
	pp := acq.NewPingPong("uart1", out)
	sched := acq.NewScheduler(3)
	sched.Add(pp)
	k := start(t, sched, &led{})

	for _, b := range []byte("abc") {
		require.True(t, pp.Put(b))
	}
	tickUntil(t, k, func() bool { return out.bytes() == "abc" })
	require.Zero(t, pp.Buffered())
}

func TestServiceMirrorsOverrunOnLED(t *testing.T) {
	pp := acq.NewPingPong("can1", &sink{})
	sched := acq.NewScheduler(1)
	sched.Add(pp)
	l := &led{}
	k := start(t, sched, l)

	pp.Discard(4)
	tickUntil(t, k, l.on.Load)

	pp.ClearOverrun()
	tickUntil(t, k, func() bool { return !l.on.Load() })
}
