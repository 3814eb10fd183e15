package settings

import (
	"fmt"
	"sync/atomic"

	"busscope/internal/errcode"
)

// Default bounded waits in ticks.
const (
	DefaultLockWait  = 100
	DefaultClearWait = 1000
)

// Clock is the tick source a bounded wait measures against.
// *kernel.Context implements it.
type Clock interface {
	NowTick() uint64
	// TickChan returns a channel closed once the tick is past after.
	TickChan(after uint64) <-chan struct{}
}

// Store guards one channel's settings. Writers hold the lock; readers take
// lock-free snapshots published after each update.
type Store struct {
	def  Def
	sem  chan struct{}
	ch   Channel
	snap atomic.Pointer[Channel]
	gen  atomic.Uint32
}

func NewStore(d Def, ch Channel) *Store {
	s := &Store{def: d, sem: make(chan struct{}, 1), ch: ch}
	s.publish()
	return s
}

func (s *Store) Def() Def { return s.def }

func (s *Store) publish() {
	c := s.ch
	s.snap.Store(&c)
	s.gen.Add(1)
}

// Snapshot returns the settings as of the last completed update.
func (s *Store) Snapshot() Channel { return *s.snap.Load() }

// Generation increases on every completed update.
func (s *Store) Generation() uint32 { return s.gen.Load() }

func (s *Store) acquire(clk Clock, wait uint64) bool {
	select {
	case s.sem <- struct{}{}:
		return true
	default:
	}
	if wait == 0 || clk == nil {
		return false
	}
	deadline := clk.NowTick() + wait
	for {
		now := clk.NowTick()
		if now >= deadline {
			return false
		}
		select {
		case s.sem <- struct{}{}:
			return true
		case <-clk.TickChan(now):
		}
	}
}

// Update runs fn with the lock held, waiting at most wait ticks for it. On
// timeout it returns an errcode.Busy error and fn is not called. An error
// from fn is returned as is; changes fn made are kept.
func (s *Store) Update(clk Clock, wait uint64, fn func(*Channel) error) error {
	if !s.acquire(clk, wait) {
		return errcode.New(errcode.Busy, "settings.Update", fmt.Sprintf("%s lock not acquired in %d ticks", s.def.Name, wait))
	}
	defer func() { <-s.sem }()

	err := fn(&s.ch)
	s.publish()
	return err
}

// TryLock takes the lock without waiting. It is for tests and diagnostics
// that need to hold the lock across calls.
func (s *Store) TryLock() bool {
	select {
	case s.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

// Unlock releases a lock taken with TryLock.
func (s *Store) Unlock() { <-s.sem }
