package gui

import (
	"fmt"
	"image/color"

	"busscope/internal/errcode"
)

// Black is the color hidden widgets leave behind.
var Black = color.RGBA{A: 0xFF}

// Transparent text background.
var Transparent = color.RGBA{}

func inactiveLayer(op string, id ID, l Layer) error {
	return errcode.New(errcode.Validation, op, fmt.Sprintf("id %d is on layer %d", id, l))
}

// ActiveLayer returns the layer that draws, hides and receives touches.
func (e *Engine) ActiveLayer() Layer { return e.activeLayer }

// SetActiveLayer switches the active layer. Widgets on other layers keep their
// pixels until the layer is redrawn.
func (e *Engine) SetActiveLayer(l Layer) { e.activeLayer = l }

// RedrawLayer redraws every button and text box on l that is not hidden.
func (e *Engine) RedrawLayer(l Layer) {
	if l != e.activeLayer {
		return
	}
	for _, i := range e.buttonOrder {
		b := &e.buttons[i]
		if b.Layer == l && b.DisplayState != Hidden {
			_ = e.DrawButton(b.ID)
		}
	}
	for _, i := range e.textBoxOrder {
		t := &e.textBoxes[i]
		if t.Layer == l && t.DisplayState != Hidden {
			_ = e.DrawTextBox(t.ID)
		}
	}
}

func (e *Engine) fill(c color.RGBA, r Rect, l Layer) {
	if e.canvas == nil || r.W <= 0 || r.H <= 0 {
		return
	}
	e.canvas.FillRect(c, r, l)
}

func (e *Engine) text(p Point, s string, size TextSize, fg, bg color.RGBA, l Layer) {
	if e.canvas == nil || s == "" {
		return
	}
	e.canvas.WriteText(p, s, size, fg, bg, l)
}

func (e *Engine) drawBorder(o *Object) {
	if o.Border == BorderNone || o.BorderThickness <= 0 {
		return
	}
	r, t := o.Rect, o.BorderThickness
	if o.Border&BorderLeft != 0 {
		e.fill(o.BorderColor, Rect{X: r.X, Y: r.Y, W: t, H: r.H}, o.Layer)
	}
	if o.Border&BorderRight != 0 {
		e.fill(o.BorderColor, Rect{X: r.X + r.W - t, Y: r.Y, W: t, H: r.H}, o.Layer)
	}
	if o.Border&BorderTop != 0 {
		e.fill(o.BorderColor, Rect{X: r.X, Y: r.Y, W: r.W, H: t}, o.Layer)
	}
	if o.Border&BorderBottom != 0 {
		e.fill(o.BorderColor, Rect{X: r.X, Y: r.Y + r.H - t, W: r.W, H: t}, o.Layer)
	}
}

// DrawButton paints the button in the colors of its state.
func (e *Engine) DrawButton(id ID) error {
	const op = "gui.DrawButton"

	i, ok := buttonIndex(id)
	if !ok {
		return invalidID(op, id)
	}
	b := &e.buttons[i]
	if b.Layer != e.activeLayer {
		return inactiveLayer(op, id, b.Layer)
	}

	fg, bg := b.EnabledText, b.EnabledBackground
	switch b.State {
	case Disabled, DisabledTouch:
		fg, bg = b.DisabledText, b.DisabledBackground
	case TouchDown:
		fg, bg = b.PressedText, b.PressedBackground
	}

	r := b.Rect
	e.fill(bg, r, b.Layer)
	if b.twoRows() {
		m0, m1 := b.metrics[0], b.metrics[1]
		e.text(Point{X: r.X + (r.W-m0.width)/2, Y: r.Y + r.H/2 - m0.height - 1},
			b.Text[0].Text, b.Text[0].Size, fg, Transparent, b.Layer)
		e.text(Point{X: r.X + (r.W-m1.width)/2, Y: r.Y + r.H/2 + 1},
			b.Text[1].Text, b.Text[1].Size, fg, Transparent, b.Layer)
	} else {
		m0 := b.metrics[0]
		e.text(Point{X: r.X + (r.W-m0.width)/2, Y: r.Y + (r.H-m0.height)/2 - 2},
			b.Text[0].Text, b.Text[0].Size, fg, Transparent, b.Layer)
	}
	e.drawBorder(&b.Object)
	b.DisplayState = NotHidden
	return nil
}

// HideButton blanks the button if it is on the active layer.
func (e *Engine) HideButton(id ID) error {
	i, ok := buttonIndex(id)
	if !ok {
		return invalidID("gui.HideButton", id)
	}
	b := &e.buttons[i]
	if b.Layer != e.activeLayer {
		return nil
	}
	e.fill(Black, b.Rect, b.Layer)
	b.DisplayState = Hidden
	return nil
}

// SetButtonState changes the state and repaints a visible button.
func (e *Engine) SetButtonState(id ID, s ButtonState) error {
	i, ok := buttonIndex(id)
	if !ok {
		return invalidID("gui.SetButtonState", id)
	}
	b := &e.buttons[i]
	b.State = s
	if b.DisplayState == NotHidden {
		_ = e.DrawButton(id)
	}
	return nil
}

// SetButtonText replaces one row of text and repaints a visible button.
func (e *Engine) SetButtonText(id ID, row int, text string) error {
	const op = "gui.SetButtonText"

	i, ok := buttonIndex(id)
	if !ok {
		return invalidID(op, id)
	}
	if row < 0 || row > 1 {
		return errcode.New(errcode.Validation, op, fmt.Sprintf("row %d", row))
	}
	b := &e.buttons[i]
	b.Text[row].Text = text
	if b.Text[row].Size == 0 {
		b.Text[row].Size = TextSize1
	}
	b.measure()
	if b.DisplayState == NotHidden {
		_ = e.DrawButton(id)
	}
	return nil
}

// SetButtonLayer moves the button to l without repainting it.
func (e *Engine) SetButtonLayer(id ID, l Layer) error {
	i, ok := buttonIndex(id)
	if !ok {
		return invalidID("gui.SetButtonLayer", id)
	}
	e.buttons[i].Layer = l
	return nil
}

// DrawTextBox clears the box to its background, draws the border and any static text.
// Dynamic text is not repainted.
func (e *Engine) DrawTextBox(id ID) error {
	const op = "gui.DrawTextBox"

	i, ok := textBoxIndex(id)
	if !ok {
		return invalidID(op, id)
	}
	t := &e.textBoxes[i]
	if t.Layer != e.activeLayer {
		return inactiveLayer(op, id, t.Layer)
	}
	e.fill(t.Background, t.Rect, t.Layer)
	e.drawBorder(&t.Object)
	t.DisplayState = NotHidden
	if t.StaticText != "" {
		e.text(Point{X: t.Rect.X + t.WriteX, Y: t.Rect.Y + t.WriteY},
			t.StaticText, t.TextSize, t.TextColor, Transparent, t.Layer)
	}
	return nil
}

// HideTextBox blanks the box if it is on the active layer.
func (e *Engine) HideTextBox(id ID) error {
	i, ok := textBoxIndex(id)
	if !ok {
		return invalidID("gui.HideTextBox", id)
	}
	t := &e.textBoxes[i]
	if t.Layer != e.activeLayer {
		return nil
	}
	e.fill(Black, t.Rect, t.Layer)
	t.DisplayState = Hidden
	return nil
}

// DrawContainer clears the container and draws every child on the active page.
func (e *Engine) DrawContainer(id ID) error {
	const op = "gui.DrawContainer"

	i, ok := containerIndex(id)
	if !ok {
		return invalidID(op, id)
	}
	c := &e.containers[i]
	if c.Layer != e.activeLayer {
		return inactiveLayer(op, id, c.Layer)
	}

	e.fill(c.Background, c.Rect, c.Layer)
	for _, child := range c.Buttons {
		if b, err := e.Button(child); err == nil && c.showsPage(b.Page) {
			_ = e.DrawButton(child)
		}
	}
	for _, child := range c.TextBoxes {
		if t, err := e.TextBox(child); err == nil && c.showsPage(t.Page) {
			_ = e.DrawTextBox(child)
		}
	}
	for _, child := range c.Containers {
		if sub, err := e.Container(child); err == nil && c.showsPage(sub.Page) {
			_ = e.DrawContainer(child)
		}
	}
	e.drawBorder(&c.Object)
	c.DisplayState = NotHidden
	return nil
}

// HideContainer blanks the container and hides every child regardless of page.
// A container off the active layer is left alone.
func (e *Engine) HideContainer(id ID) error {
	i, ok := containerIndex(id)
	if !ok {
		return invalidID("gui.HideContainer", id)
	}
	c := &e.containers[i]
	if c.Layer != e.activeLayer {
		return nil
	}
	e.fill(Black, c.Rect, c.Layer)
	for _, child := range c.Buttons {
		_ = e.HideButton(child)
	}
	for _, child := range c.TextBoxes {
		_ = e.HideTextBox(child)
	}
	for _, child := range c.Containers {
		_ = e.HideContainer(child)
	}
	c.DisplayState = Hidden
	return nil
}

// HideContentInContainer hides the visible children and keeps the container's
// border when ContentHide is KeepBorders. A container off the active layer is
// left alone.
func (e *Engine) HideContentInContainer(id ID) error {
	i, ok := containerIndex(id)
	if !ok {
		return invalidID("gui.HideContentInContainer", id)
	}
	c := &e.containers[i]
	if c.Layer != e.activeLayer {
		return nil
	}
	for _, child := range c.Buttons {
		if e.ButtonDisplayState(child) == NotHidden {
			_ = e.HideButton(child)
		}
	}
	for _, child := range c.TextBoxes {
		if e.TextBoxDisplayState(child) == NotHidden {
			_ = e.HideTextBox(child)
		}
	}
	for _, child := range c.Containers {
		if e.ContainerDisplayState(child) == NotHidden {
			_ = e.HideContainer(child)
		}
	}
	if c.ContentHide == KeepBorders {
		e.drawBorder(&c.Object)
	}
	c.DisplayState = ContentHidden
	return nil
}
