//go:build !tinygo

package hal

// hostTouch turns pointer state into touch samples.
//
// The window feeds it once per frame; tests and the headless runner inject samples directly.
type hostTouch struct {
	ch chan TouchSample

	down  bool
	lastX int16
	lastY int16
}

func newHostTouch() *hostTouch {
	return &hostTouch{ch: make(chan TouchSample, 64)}
}

func (t *hostTouch) Samples() <-chan TouchSample { return t.ch }

// pointer records the pointer state for one frame.
func (t *hostTouch) pointer(pressed bool, x, y int) {
	switch {
	case pressed:
		t.down = true
		t.lastX, t.lastY = clampCoord(x), clampCoord(y)
		t.emit(TouchSample{Event: TouchDown, X: t.lastX, Y: t.lastY})
	case t.down:
		t.down = false
		t.emit(TouchSample{Event: TouchUp, X: t.lastX, Y: t.lastY})
	}
}

// Inject queues a sample as if it came from the panel.
func (t *hostTouch) Inject(s TouchSample) bool {
	return t.emit(s)
}

func (t *hostTouch) emit(s TouchSample) bool {
	select {
	case t.ch <- s:
		return true
	default:
		return false
	}
}

func clampCoord(v int) int16 {
	if v < 0 {
		return 0
	}
	if v > 0x7FFF {
		return 0x7FFF
	}
	return int16(v)
}
