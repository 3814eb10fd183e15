package kernel

import (
	"sync"
	"sync/atomic"
)

// PanicInfo describes the first task panic.
type PanicInfo struct {
	TaskID TaskID
	Value  any
	Stack  []byte
}

var (
	panicActive  atomic.Bool
	panicOnce    sync.Once
	panicHandler atomic.Pointer[func(PanicInfo)]
)

// InPanicMode reports whether a task has panicked. Tasks started afterwards
// do not run.
func InPanicMode() bool { return panicActive.Load() }

// SetPanicHandler installs the handler called for the first task panic only.
func SetPanicHandler(fn func(PanicInfo)) {
	if fn == nil {
		panicHandler.Store(nil)
		return
	}
	panicHandler.Store(&fn)
}

func triggerPanic(info PanicInfo) {
	panicOnce.Do(func() {
		panicActive.Store(true)
		info.Stack = captureStack()
		if fn := panicHandler.Load(); fn != nil {
			(*fn)(info)
		}
	})
}
