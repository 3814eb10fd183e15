package kernel

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countTask struct {
	n atomic.Int32
}

func (t *countTask) Run(ctx *Context) {
	for {
		after := ctx.NowTick()
		t.n.Add(1)
		select {
		case <-ctx.TickChan(after):
		case <-ctx.Done():
			return
		}
	}
}

type panicTask struct{}

func (panicTask) Run(*Context) { panic("boom") }

func TestTaskRunsOncePerTick(t *testing.T) {
	k := New()
	task := &countTask{}
	k.AddTask(task)

	deadline := time.Now().Add(200 * time.Millisecond)
	for task.n.Load() < 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := task.n.Load(); got != 1 {
		t.Fatalf("expected one step before the first tick, got %d", got)
	}

	for i := uint64(1); i <= 3; i++ {
		k.TickTo(i)
		deadline := time.Now().Add(200 * time.Millisecond)
		for task.n.Load() < int32(i+1) && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
	}
	if got := task.n.Load(); got != 4 {
		t.Fatalf("expected 4 steps, got %d", got)
	}

	k.Close()
}

func TestTaskPanicInvokesHandler(t *testing.T) {
	t.Cleanup(resetPanicState)

	got := make(chan PanicInfo, 1)
	SetPanicHandler(func(info PanicInfo) { got <- info })

	k := New()
	id := k.AddTask(panicTask{})

	select {
	case info := <-got:
		if info.TaskID != id || info.Value != "boom" {
			t.Fatalf("unexpected panic info %+v", info)
		}
		if len(info.Stack) == 0 {
			t.Fatal("expected a stack dump")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("panic handler not called")
	}
	if !InPanicMode() {
		t.Fatal("expected panic mode")
	}
	k.Close()
}

func resetPanicState() {
	panicActive.Store(false)
	panicOnce = sync.Once{}
	SetPanicHandler(func(PanicInfo) {})
}

func TestTickToIgnoresPast(t *testing.T) {
	k := New()
	ctx := k.NewContext()
	k.TickTo(5)
	k.TickTo(3)
	if got := ctx.NowTick(); got != 5 {
		t.Fatalf("expected tick 5, got %d", got)
	}
	select {
	case <-ctx.TickChan(4):
	default:
		t.Fatal("expected closed tick channel for past tick")
	}
	select {
	case <-ctx.TickChan(5):
		t.Fatal("tick channel closed early")
	default:
	}
}

func TestRestrictDropsRights(t *testing.T) {
	c := Capability{ep: 1, rights: RightSend}
	if c.Restrict(RightRecv).Valid() {
		t.Fatal("expected empty capability")
	}
	if !c.Restrict(RightSend | RightRecv).canSend() {
		t.Fatal("expected send right to survive")
	}
}
