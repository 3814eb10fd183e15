package gui

import (
	"image/color"

	"busscope/hal"
)

// ID addresses a widget. Each widget kind owns a disjoint id range starting at its offset.
type ID uint32

const (
	TextBoxOffset   ID = 0
	TextBoxCapacity    = 64

	ButtonOffset   ID = 100
	ButtonCapacity    = 100

	ContainerOffset   ID = 200
	ContainerCapacity    = 32
)

// Cell size of the built-in glyph grid at TextSize 1.
const (
	GlyphWidth  = 8
	GlyphHeight = 16
)

type Layer uint8

const (
	Layer0 Layer = iota
	Layer1
)

type DisplayState uint8

const (
	Hidden DisplayState = iota
	NotHidden
	ContentHidden
	NoDisplayState
)

func (s DisplayState) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case NotHidden:
		return "not_hidden"
	case ContentHidden:
		return "content_hidden"
	default:
		return "no_state"
	}
}

type ButtonState uint8

const (
	NoState ButtonState = iota
	Enabled
	Disabled
	TouchUp
	TouchDown
	DisabledTouch
)

func (s ButtonState) String() string {
	switch s {
	case NoState:
		return "no_state"
	case Enabled:
		return "enabled"
	case Disabled:
		return "disabled"
	case TouchUp:
		return "touch_up"
	case TouchDown:
		return "touch_down"
	case DisabledTouch:
		return "disabled_touch"
	default:
		return "unknown"
	}
}

// Border selects which edges of an object get a border.
type Border uint8

const (
	BorderNone   Border = 0
	BorderLeft   Border = 1 << 0
	BorderRight  Border = 1 << 1
	BorderTop    Border = 1 << 2
	BorderBottom Border = 1 << 3
	BorderAll           = BorderLeft | BorderRight | BorderTop | BorderBottom
)

// Page is a one-hot (or OR'd) container page mask.
type Page uint16

const (
	PageNone Page = 0
	Page1    Page = 1 << 0
	Page2    Page = 1 << 1
	Page3    Page = 1 << 2
	Page4    Page = 1 << 3
	Page5    Page = 1 << 4
	Page6    Page = 1 << 5
	PageAll  Page = 0xFFFF
)

type HideState uint8

const (
	HideAll HideState = iota
	KeepBorders
)

// TextSize multiplies the glyph cell.
type TextSize uint8

const (
	TextSize1 TextSize = 1
	TextSize2 TextSize = 2
)

// WriteFormat selects how raw bytes are rendered into a text box.
type WriteFormat uint8

const (
	FormatASCII WriteFormat = iota
	FormatHexWithSpaces
)

func (f WriteFormat) String() string {
	if f == FormatHexWithSpaces {
		return "Hex"
	}
	return "ASCII"
}

// CallbackKind names a handler registered on the engine. Zero means no callback.
type CallbackKind uint16

const NoCallback CallbackKind = 0

// ButtonHandler receives button touch events.
type ButtonHandler func(ev hal.TouchEvent, id ID)

// PointHandler receives text box and container touch events.
type PointHandler func(ev hal.TouchEvent, x, y int16)

type Point struct {
	X, Y int16
}

type Rect struct {
	X, Y, W, H int16
}

// Contains reports whether (x, y) is inside r. Both far edges are inclusive.
func (r Rect) Contains(x, y int16) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

// Object is the part every widget shares.
type Object struct {
	ID              ID
	Rect            Rect
	Layer           Layer
	DisplayState    DisplayState
	Border          Border
	BorderThickness int16
	BorderColor     color.RGBA
	Page            Page
}

// TextRow is one row of button text.
type TextRow struct {
	Text string
	Size TextSize
}

type textMetrics struct {
	chars  int16
	width  int16
	height int16
}

func measure(s string, size TextSize) textMetrics {
	if size == 0 {
		size = TextSize1
	}
	n := int16(len(s))
	return textMetrics{
		chars:  n,
		width:  n * GlyphWidth * int16(size),
		height: GlyphHeight * int16(size),
	}
}

type Button struct {
	Object

	EnabledText        color.RGBA
	EnabledBackground  color.RGBA
	DisabledText       color.RGBA
	DisabledBackground color.RGBA
	PressedText        color.RGBA
	PressedBackground  color.RGBA

	State    ButtonState
	Callback CallbackKind

	// Text[1] is drawn only when non-empty.
	Text [2]TextRow

	metrics [2]textMetrics
}

func (b *Button) twoRows() bool { return b.Text[1].Text != "" }

// TextWidth returns the pixel width of a text row.
func (b *Button) TextWidth(row int) int16 {
	if row < 0 || row > 1 {
		return 0
	}
	return b.metrics[row].width
}

func (b *Button) measure() {
	for i := range b.Text {
		b.metrics[i] = measure(b.Text[i].Text, b.Text[i].Size)
	}
}

type TextBox struct {
	Object

	TextColor  color.RGBA
	Background color.RGBA
	TextSize   TextSize

	// StaticText is centered and redrawn with the box. A static box keeps no write cursor.
	StaticText string

	// Write cursor relative to the box origin.
	WriteX, WriteY int16

	Callback CallbackKind

	static textMetrics
}

func (t *TextBox) measure() {
	if t.StaticText == "" {
		t.static = textMetrics{}
		return
	}
	t.static = measure(t.StaticText, t.TextSize)
	t.WriteX = (t.Rect.W - t.static.width) / 2
	t.WriteY = (t.Rect.H-t.static.height)/2 - 2
}

type Container struct {
	Object

	Background  color.RGBA
	ContentHide HideState

	// Children by id. Each list is bounded by its kind's capacity.
	Buttons    []ID
	TextBoxes  []ID
	Containers []ID

	ActivePage Page
	LastPage   Page

	Callback CallbackKind
}

func (c *Container) showsPage(p Page) bool {
	return p&c.ActivePage != 0 || p == c.ActivePage
}
