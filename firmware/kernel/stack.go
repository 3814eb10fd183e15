//go:build !tinygo

package kernel

import "runtime"

const maxStackBytes = 16 << 10

// captureStack returns the panicking goroutine's stack, truncated.
func captureStack() []byte {
	buf := make([]byte, maxStackBytes)
	return buf[:runtime.Stack(buf, false)]
}
