package gui

import "busscope/hal"

// Dispatch routes one touch sample to the buttons, then the text boxes, then the
// containers. Each kind delivers to at most one widget.
func (e *Engine) Dispatch(ev hal.TouchEvent, x, y int16) {
	e.DispatchButtons(ev, x, y)
	e.DispatchTextBoxes(ev, x, y)
	e.DispatchContainers(ev, x, y)
}

func (e *Engine) hitButton(x, y int16) (ID, bool) {
	for _, i := range e.buttonOrder {
		b := &e.buttons[i]
		if b.DisplayState != NotHidden || b.State == NoState || b.State == DisabledTouch {
			continue
		}
		if b.Layer != e.activeLayer || !b.Rect.Contains(x, y) {
			continue
		}
		return b.ID, true
	}
	return 0, false
}

// DispatchButtons runs the press/drag/release state machine. The first hit in
// registration order wins. A Down on a new button restores the previously
// tracked one; a sample that hits no button cancels tracking.
func (e *Engine) DispatchButtons(ev hal.TouchEvent, x, y int16) {
	id, hit := e.hitButton(x, y)
	if !hit {
		e.cancelTracking()
		return
	}

	switch ev {
	case hal.TouchDown:
		if !e.isTracking || e.tracked != id {
			e.cancelTracking()
			b, _ := e.Button(id)
			e.preTouch = b.State
			e.tracked = id
			e.isTracking = true
			_ = e.SetButtonState(id, TouchDown)
		}
		e.callButton(ev, id)

	case hal.TouchUp:
		e.cancelTracking()
		e.callButton(ev, id)
	}
}

// cancelTracking restores the tracked button to its pre-touch state.
func (e *Engine) cancelTracking() {
	if !e.isTracking {
		return
	}
	id, state := e.tracked, e.preTouch
	e.isTracking = false
	e.tracked = 0
	e.preTouch = NoState
	_ = e.SetButtonState(id, state)
}

// TrackedButton returns the button currently held down, if any.
func (e *Engine) TrackedButton() (ID, bool) {
	return e.tracked, e.isTracking
}

func (e *Engine) callButton(ev hal.TouchEvent, id ID) {
	b, err := e.Button(id)
	if err != nil || b.Callback == NoCallback {
		return
	}
	if fn := e.buttonHandlers[b.Callback]; fn != nil {
		fn(ev, id)
	}
}

func (e *Engine) callPoint(kind CallbackKind, ev hal.TouchEvent, x, y int16) {
	if kind == NoCallback {
		return
	}
	if fn := e.pointHandlers[kind]; fn != nil {
		fn(ev, x, y)
	}
}

// DispatchTextBoxes passes the sample to the first visible text box under it.
func (e *Engine) DispatchTextBoxes(ev hal.TouchEvent, x, y int16) {
	for _, i := range e.textBoxOrder {
		t := &e.textBoxes[i]
		if t.DisplayState != NotHidden || t.Layer != e.activeLayer || !t.Rect.Contains(x, y) {
			continue
		}
		e.callPoint(t.Callback, ev, x, y)
		return
	}
}

// DispatchContainers passes the sample to the first visible container under it.
func (e *Engine) DispatchContainers(ev hal.TouchEvent, x, y int16) {
	for _, i := range e.containerOrder {
		c := &e.containers[i]
		if c.DisplayState != NotHidden || c.Layer != e.activeLayer || !c.Rect.Contains(x, y) {
			continue
		}
		e.callPoint(c.Callback, ev, x, y)
		return
	}
}
