//go:build tinygo && baremetal

package hal

import (
	"machine"
	"time"
)

type tinyGoDisplay struct {
	fb Framebuffer
}

func (d tinyGoDisplay) Framebuffer() Framebuffer { return d.fb }

type tinyGoInput struct {
	touch Touch
}

func (in tinyGoInput) Touch() Touch { return in.touch }

type tinyGoTime struct {
	ch  chan uint64
	seq uint64
}

func newTinyGoTime() *tinyGoTime {
	t := &tinyGoTime{ch: make(chan uint64, 16)}
	go func() {
		ticker := time.NewTicker(1 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			t.seq++
			select {
			case t.ch <- t.seq:
			default:
			}
		}
	}()
	return t
}

func (t *tinyGoTime) Ticks() <-chan uint64 { return t.ch }

// serialLogger writes log lines to the USB CDC console; the UARTs carry channel data.
type serialLogger struct {
	out machine.Serialer
}

func (l *serialLogger) WriteLineString(s string) {
	for i := 0; i < len(s); i++ {
		_ = l.out.WriteByte(s[i])
	}
	_ = l.out.WriteByte('\r')
	_ = l.out.WriteByte('\n')
}

func (l *serialLogger) WriteLineBytes(b []byte) {
	_, _ = l.out.Write(b)
	_ = l.out.WriteByte('\r')
	_ = l.out.WriteByte('\n')
}

type pinLED struct {
	pin machine.Pin
}

func (l *pinLED) High() { l.pin.High() }
func (l *pinLED) Low()  { l.pin.Low() }
