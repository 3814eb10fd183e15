//go:build tinygo && baremetal && rp2350

package hal

import (
	"machine"
	"time"

	"tinygo.org/x/drivers/touch"
	"tinygo.org/x/drivers/xpt2046"
)

const (
	touchPollInterval = 10 * time.Millisecond
	touchRawMax       = 0xFFFF
)

type boardTouch struct {
	ch chan TouchSample
}

func (t *boardTouch) Samples() <-chan TouchSample { return t.ch }

// newBoardTouch starts polling an XPT2046 resistive controller wired to GP16..GP20.
func newBoardTouch(w, h int) *boardTouch {
	dev := xpt2046.New(machine.GP18, machine.GP17, machine.GP19, machine.GP16, machine.GP20)
	dev.Configure(&xpt2046.Config{Precision: 10})

	t := &boardTouch{ch: make(chan TouchSample, 16)}
	go func() {
		var down bool
		var last TouchSample
		for {
			if dev.Touched() {
				p := dev.ReadTouchPoint()
				last = scaleTouch(p, w, h)
				last.Event = TouchDown
				down = true
				t.emit(last)
			} else if down {
				down = false
				last.Event = TouchUp
				t.emit(last)
			}
			time.Sleep(touchPollInterval)
		}
	}()
	return t
}

func (t *boardTouch) emit(s TouchSample) {
	select {
	case t.ch <- s:
	default:
	}
}

func scaleTouch(p touch.Point, w, h int) TouchSample {
	x := p.X * w / touchRawMax
	y := p.Y * h / touchRawMax
	return TouchSample{X: int16(x), Y: int16(y)}
}
