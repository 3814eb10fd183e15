// Package window maps a text box onto a slice of a channel's persistent log.
package window

import (
	"busscope/firmware/gui"
	"busscope/firmware/plog"
	"busscope/firmware/settings"
)

// Reader reads the log. *plog.Log implements it.
type Reader interface {
	ReadAt(dst []byte, addr uint32) (int, error)
}

// Window tracks which log bytes a text box shows and whether it must be
// repainted. In follow mode it shows the newest bytes and appends as the log
// grows; paging back leaves follow mode until the end is reached again.
type Window struct {
	e   *gui.Engine
	box gui.ID
	log Reader
	r   plog.Range

	format gui.WriteFormat
	follow bool

	// Shown bytes [first, last), absolute addresses.
	first, last uint32

	rendered  bool
	lastSaved uint32
	lastFirst uint32
	lastLast  uint32

	buf [256]byte
}

func New(e *gui.Engine, box gui.ID, log Reader, r plog.Range) *Window {
	return &Window{
		e:      e,
		box:    box,
		log:    log,
		r:      r,
		follow: true,
		first:  r.Base,
		last:   r.Base,
	}
}

func (w *Window) Box() gui.ID { return w.box }

// Following reports whether the window tracks the newest bytes.
func (w *Window) Following() bool { return w.follow }

// Shown returns the shown bytes as offsets from the start of the range;
// last is exclusive.
func (w *Window) Shown() (first, last uint32) {
	return w.first - w.r.Base, w.last - w.r.Base
}

// NeedsRefresh reports whether a render is due: when forced, when the bytes
// saved changed, or when the shown range moved since the last render.
func (w *Window) NeedsRefresh(force bool, saved uint32) bool {
	return force || !w.rendered ||
		saved != w.lastSaved ||
		w.first != w.lastFirst || w.last != w.lastLast
}

// Reset returns to follow mode at the start of the range and forces the next
// render. Use after the log was cleared.
func (w *Window) Reset() {
	w.follow = true
	w.first, w.last = w.r.Base, w.r.Base
	w.rendered = false
}

func toGUI(f settings.Format) gui.WriteFormat {
	if f == settings.FormatHex {
		return gui.FormatHexWithSpaces
	}
	return gui.FormatASCII
}

func charsPerByte(f gui.WriteFormat) uint32 {
	if f == gui.FormatHexWithSpaces {
		return 3
	}
	return 1
}

// screenBytes is how many log bytes fill the box once.
func (w *Window) screenBytes() uint32 {
	cols, rows, err := w.e.TextGrid(w.box)
	if err != nil || cols <= 0 || rows <= 0 {
		return 1
	}
	return max(uint32(cols*rows)/charsPerByte(w.format), 1)
}

func (w *Window) clampCursor(cursor uint32) uint32 {
	return min(max(cursor, w.r.Base), w.r.End())
}

// PageBack shows the screen before the current one and leaves follow mode.
func (w *Window) PageBack(cursor uint32) {
	cursor = w.clampCursor(cursor)
	n := w.screenBytes()
	w.follow = false
	if w.first-w.r.Base < n {
		w.first = w.r.Base
	} else {
		w.first -= n
	}
	w.last = min(w.first+n, cursor)
}

// PageForward shows the next screen. Reaching the newest bytes re-enters
// follow mode.
func (w *Window) PageForward(cursor uint32) {
	if w.follow {
		return
	}
	cursor = w.clampCursor(cursor)
	n := w.screenBytes()
	w.first += n
	if w.first+n >= cursor {
		w.follow = true
		w.last = cursor
		w.first = max(w.r.Base, cursor-min(n, cursor-w.r.Base))
		return
	}
	w.last = w.first + n
}

// Refresh repaints the box from the log if NeedsRefresh says so, and reports
// whether it drew. A format change forces a full render.
func (w *Window) Refresh(force bool, ch settings.Channel) (bool, error) {
	if f := toGUI(ch.Format); f != w.format {
		w.format = f
		force = true
	}
	if !w.NeedsRefresh(force, ch.BytesSaved) {
		return false, nil
	}

	cursor := w.clampCursor(ch.WriteCursor)
	n := w.screenBytes()
	var err error

	if !force && w.follow && w.rendered && w.last <= cursor && w.last >= w.r.Base {
		// Append only what arrived; the box wraps over the oldest text.
		err = w.write(w.last, cursor)
		w.last = cursor
		if w.last-w.first > n {
			w.first = w.last - n
		}
	} else {
		if w.follow {
			w.last = cursor
			w.first = cursor - min(n, cursor-w.r.Base)
		} else {
			w.first = min(w.first, cursor)
			w.last = min(w.first+n, cursor)
		}
		if err = w.e.ClearAndResetTextBox(w.box); err == nil {
			err = w.write(w.first, w.last)
		}
	}

	w.rendered = true
	w.lastSaved = ch.BytesSaved
	w.lastFirst, w.lastLast = w.first, w.last
	return true, err
}

func (w *Window) write(from, to uint32) error {
	for from < to {
		chunk := w.buf[:min(uint32(len(w.buf)), to-from)]
		n, err := w.log.ReadAt(chunk, from)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if err := w.e.WriteBuffer(w.box, chunk[:n], w.format); err != nil {
			return err
		}
		from += uint32(n)
	}
	return nil
}
