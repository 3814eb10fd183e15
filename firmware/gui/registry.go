package gui

import (
	"fmt"
	"image/color"

	"busscope/internal/errcode"
)

// Canvas is the draw primitive the engine sequences. Implementations must not
// call back into the engine.
type Canvas interface {
	FillRect(c color.RGBA, r Rect, l Layer)
	// WriteText draws s with its top-left corner at p. A bg with zero alpha is transparent.
	WriteText(p Point, s string, size TextSize, fg, bg color.RGBA, l Layer)
}

// Engine owns every widget and the touch tracking state. It is not safe for
// concurrent use; one task owns it.
type Engine struct {
	canvas Canvas

	buttons    [ButtonCapacity]Button
	textBoxes  [TextBoxCapacity]TextBox
	containers [ContainerCapacity]Container

	// Slot indices in registration order; hit tests scan in this order.
	buttonOrder    []uint8
	textBoxOrder   []uint8
	containerOrder []uint8

	activeLayer Layer

	tracked    ID
	isTracking bool
	preTouch   ButtonState

	buttonHandlers map[CallbackKind]ButtonHandler
	pointHandlers  map[CallbackKind]PointHandler
}

func NewEngine(c Canvas) *Engine {
	e := &Engine{canvas: c}
	e.Reset()
	return e
}

// Reset clears every widget, the handler tables and touch tracking.
func (e *Engine) Reset() {
	e.buttons = [ButtonCapacity]Button{}
	e.textBoxes = [TextBoxCapacity]TextBox{}
	e.containers = [ContainerCapacity]Container{}
	e.buttonOrder = make([]uint8, 0, ButtonCapacity)
	e.textBoxOrder = make([]uint8, 0, TextBoxCapacity)
	e.containerOrder = make([]uint8, 0, ContainerCapacity)
	e.activeLayer = Layer0
	e.isTracking = false
	e.preTouch = NoState
	e.buttonHandlers = make(map[CallbackKind]ButtonHandler)
	e.pointHandlers = make(map[CallbackKind]PointHandler)
}

// HandleButton registers fn for buttons whose Callback is kind.
func (e *Engine) HandleButton(kind CallbackKind, fn ButtonHandler) {
	if kind == NoCallback {
		return
	}
	e.buttonHandlers[kind] = fn
}

// HandlePoint registers fn for text boxes and containers whose Callback is kind.
func (e *Engine) HandlePoint(kind CallbackKind, fn PointHandler) {
	if kind == NoCallback {
		return
	}
	e.pointHandlers[kind] = fn
}

func buttonIndex(id ID) (int, bool) {
	i := uint32(id - ButtonOffset)
	return int(i), i < ButtonCapacity
}

func textBoxIndex(id ID) (int, bool) {
	i := uint32(id - TextBoxOffset)
	return int(i), i < TextBoxCapacity
}

func containerIndex(id ID) (int, bool) {
	i := uint32(id - ContainerOffset)
	return int(i), i < ContainerCapacity
}

func invalidID(op string, id ID) error {
	return errcode.New(errcode.Validation, op, fmt.Sprintf("id %d out of range", id))
}

func notFound(op string, id ID) error {
	return errcode.New(errcode.NotFound, op, fmt.Sprintf("id %d out of range", id))
}

func appendOrder(order []uint8, i int) []uint8 {
	for _, v := range order {
		if int(v) == i {
			return order
		}
	}
	return append(order, uint8(i))
}

// AddButton copies *b into its slot. On an invalid id *b is zeroed and a
// Validation error returned. A NotHidden button is drawn immediately.
func (e *Engine) AddButton(b *Button) error {
	i, ok := buttonIndex(b.ID)
	if !ok {
		id := b.ID
		*b = Button{}
		return invalidID("gui.AddButton", id)
	}
	e.buttons[i] = *b
	e.buttons[i].measure()
	e.buttonOrder = appendOrder(e.buttonOrder, i)
	*b = Button{}

	if e.buttons[i].DisplayState == NotHidden {
		return e.DrawButton(e.buttons[i].ID)
	}
	return nil
}

// AddTextBox copies *t into its slot, centering static text.
func (e *Engine) AddTextBox(t *TextBox) error {
	i, ok := textBoxIndex(t.ID)
	if !ok {
		id := t.ID
		*t = TextBox{}
		return invalidID("gui.AddTextBox", id)
	}
	e.textBoxes[i] = *t
	e.textBoxes[i].measure()
	e.textBoxOrder = appendOrder(e.textBoxOrder, i)
	*t = TextBox{}

	if e.textBoxes[i].DisplayState == NotHidden {
		return e.DrawTextBox(e.textBoxes[i].ID)
	}
	return nil
}

// AddContainer copies *c into its slot. Every child id must be valid for its
// kind, and a child container may not be c itself or contain c.
func (e *Engine) AddContainer(c *Container) error {
	const op = "gui.AddContainer"

	i, ok := containerIndex(c.ID)
	if !ok {
		id := c.ID
		*c = Container{}
		return invalidID(op, id)
	}
	if err := e.checkChildren(c); err != nil {
		*c = Container{}
		return err
	}

	stored := *c
	stored.Buttons = append([]ID(nil), c.Buttons...)
	stored.TextBoxes = append([]ID(nil), c.TextBoxes...)
	stored.Containers = append([]ID(nil), c.Containers...)
	e.containers[i] = stored
	e.containerOrder = appendOrder(e.containerOrder, i)
	*c = Container{}

	if stored.DisplayState == NotHidden {
		return e.DrawContainer(stored.ID)
	}
	return nil
}

func (e *Engine) checkChildren(c *Container) error {
	const op = "gui.AddContainer"

	if len(c.Buttons) > ButtonCapacity || len(c.TextBoxes) > TextBoxCapacity || len(c.Containers) > ContainerCapacity {
		return errcode.New(errcode.Validation, op, "too many children")
	}
	for _, id := range c.Buttons {
		if _, ok := buttonIndex(id); !ok {
			return invalidID(op, id)
		}
	}
	for _, id := range c.TextBoxes {
		if _, ok := textBoxIndex(id); !ok {
			return invalidID(op, id)
		}
	}
	for _, id := range c.Containers {
		if _, ok := containerIndex(id); !ok {
			return invalidID(op, id)
		}
		if e.reaches(id, c.ID) {
			return errcode.New(errcode.Validation, op, fmt.Sprintf("container %d would contain itself", c.ID))
		}
	}
	return nil
}

// reaches reports whether target is from or a descendant of from.
func (e *Engine) reaches(from, target ID) bool {
	var seen [ContainerCapacity]bool
	stack := []ID{from}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == target {
			return true
		}
		i, ok := containerIndex(id)
		if !ok || seen[i] {
			continue
		}
		seen[i] = true
		stack = append(stack, e.containers[i].Containers...)
	}
	return false
}

// Button returns the slot for id.
func (e *Engine) Button(id ID) (*Button, error) {
	i, ok := buttonIndex(id)
	if !ok {
		return nil, notFound("gui.Button", id)
	}
	return &e.buttons[i], nil
}

// TextBox returns the slot for id.
func (e *Engine) TextBox(id ID) (*TextBox, error) {
	i, ok := textBoxIndex(id)
	if !ok {
		return nil, notFound("gui.TextBox", id)
	}
	return &e.textBoxes[i], nil
}

// Container returns the slot for id.
func (e *Engine) Container(id ID) (*Container, error) {
	i, ok := containerIndex(id)
	if !ok {
		return nil, notFound("gui.Container", id)
	}
	return &e.containers[i], nil
}

// ButtonDisplayState returns NoDisplayState for an invalid id.
func (e *Engine) ButtonDisplayState(id ID) DisplayState {
	if i, ok := buttonIndex(id); ok {
		return e.buttons[i].DisplayState
	}
	return NoDisplayState
}

func (e *Engine) TextBoxDisplayState(id ID) DisplayState {
	if i, ok := textBoxIndex(id); ok {
		return e.textBoxes[i].DisplayState
	}
	return NoDisplayState
}

func (e *Engine) ContainerDisplayState(id ID) DisplayState {
	if i, ok := containerIndex(id); ok {
		return e.containers[i].DisplayState
	}
	return NoDisplayState
}
