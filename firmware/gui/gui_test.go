package gui

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"busscope/hal"
	"busscope/internal/errcode"
)

type fillCall struct {
	c color.RGBA
	r Rect
	l Layer
}

type textCall struct {
	p  Point
	s  string
	fg color.RGBA
	bg color.RGBA
}

type recordingCanvas struct {
	fills []fillCall
	texts []textCall
}

func (c *recordingCanvas) FillRect(col color.RGBA, r Rect, l Layer) {
	c.fills = append(c.fills, fillCall{c: col, r: r, l: l})
}

func (c *recordingCanvas) WriteText(p Point, s string, size TextSize, fg, bg color.RGBA, l Layer) {
	c.texts = append(c.texts, textCall{p: p, s: s, fg: fg, bg: bg})
}

func (c *recordingCanvas) calls() int { return len(c.fills) + len(c.texts) }

func (c *recordingCanvas) reset() {
	c.fills = nil
	c.texts = nil
}

var (
	white = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	grey  = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}
	blue  = color.RGBA{B: 0xFF, A: 0xFF}
)

func testButton(id ID, r Rect, kind CallbackKind) Button {
	return Button{
		Object: Object{
			ID:           id,
			Rect:         r,
			DisplayState: NotHidden,
			Page:         Page1,
		},
		EnabledText:        white,
		EnabledBackground:  blue,
		DisabledText:       grey,
		DisabledBackground: Black,
		PressedText:        Black,
		PressedBackground:  white,
		State:              Enabled,
		Callback:           kind,
		Text:               [2]TextRow{{Text: "Enable", Size: TextSize1}},
	}
}

type touchRecord struct {
	ev hal.TouchEvent
	id ID
}

func TestAddGetButtonRoundTrip(t *testing.T) {
	e := NewEngine(&recordingCanvas{})

	for id := ButtonOffset; id < ButtonOffset+ButtonCapacity; id++ {
		b := testButton(id, Rect{X: 1, Y: 2, W: 100, H: 40}, 1)
		want := b
		require.NoError(t, e.AddButton(&b))
		require.Equal(t, Button{}, b, "input must be cleared")

		got, err := e.Button(id)
		require.NoError(t, err)
		want.measure()
		require.Equal(t, want, *got)
		require.Equal(t, int16(6*GlyphWidth), got.TextWidth(0))
	}
}

func TestAddRejectsOutOfRangeIDs(t *testing.T) {
	e := NewEngine(&recordingCanvas{})

	for _, id := range []ID{ButtonOffset - 1, ButtonOffset + ButtonCapacity, 0xFFFFFFFF} {
		b := testButton(id, Rect{W: 10, H: 10}, 0)
		err := e.AddButton(&b)
		require.ErrorIs(t, err, errcode.Validation)
		require.Equal(t, Button{}, b)

		_, err = e.Button(id)
		require.Equal(t, errcode.NotFound, errcode.Of(err))
	}

	tb := TextBox{Object: Object{ID: TextBoxOffset + TextBoxCapacity}}
	require.ErrorIs(t, e.AddTextBox(&tb), errcode.Validation)
	require.Equal(t, TextBox{}, tb)

	c := Container{Object: Object{ID: ContainerOffset + ContainerCapacity}}
	require.ErrorIs(t, e.AddContainer(&c), errcode.Validation)

	require.ErrorIs(t, e.DrawButton(5), errcode.Validation)
	require.ErrorIs(t, e.HideTextBox(TextBoxOffset+TextBoxCapacity), errcode.Validation)
	require.Equal(t, NoDisplayState, e.ButtonDisplayState(3))
}

func TestAddContainerRejectsCycles(t *testing.T) {
	e := NewEngine(&recordingCanvas{})

	self := Container{Object: Object{ID: ContainerOffset}, Containers: []ID{ContainerOffset}}
	require.ErrorIs(t, e.AddContainer(&self), errcode.Validation)

	// b is registered first, pointing at a; a may then not point back at b.
	b := Container{Object: Object{ID: ContainerOffset + 1}, Containers: []ID{ContainerOffset}}
	require.NoError(t, e.AddContainer(&b))
	a := Container{Object: Object{ID: ContainerOffset}, Containers: []ID{ContainerOffset + 1}}
	require.ErrorIs(t, e.AddContainer(&a), errcode.Validation)

	bad := Container{Object: Object{ID: ContainerOffset + 2}, Buttons: []ID{ButtonOffset + ButtonCapacity}}
	require.ErrorIs(t, e.AddContainer(&bad), errcode.Validation)
}

func TestDrawButtonCentersOneRow(t *testing.T) {
	cv := &recordingCanvas{}
	e := NewEngine(cv)

	b := testButton(ButtonOffset, Rect{X: 10, Y: 20, W: 100, H: 40}, 0)
	require.NoError(t, e.AddButton(&b))

	require.Len(t, cv.fills, 1)
	require.Equal(t, fillCall{c: blue, r: Rect{X: 10, Y: 20, W: 100, H: 40}, l: Layer0}, cv.fills[0])
	require.Len(t, cv.texts, 1)
	// "Enable" is 48 px wide and 16 px tall.
	require.Equal(t, Point{X: 10 + (100-48)/2, Y: 20 + (40-16)/2 - 2}, cv.texts[0].p)
	require.Equal(t, white, cv.texts[0].fg)
	require.Equal(t, Transparent, cv.texts[0].bg)
}

func TestDrawButtonTwoRowsAndColors(t *testing.T) {
	cv := &recordingCanvas{}
	e := NewEngine(cv)

	b := testButton(ButtonOffset, Rect{X: 0, Y: 0, W: 100, H: 50}, 0)
	b.Text[1] = TextRow{Text: "Off", Size: TextSize1}
	b.State = Disabled
	b.Border = BorderAll
	b.BorderThickness = 1
	b.BorderColor = white
	require.NoError(t, e.AddButton(&b))

	require.Len(t, cv.texts, 2)
	require.Equal(t, Point{X: (100 - 48) / 2, Y: 25 - 16 - 1}, cv.texts[0].p)
	require.Equal(t, Point{X: (100 - 24) / 2, Y: 25 + 1}, cv.texts[1].p)
	require.Equal(t, grey, cv.texts[0].fg)
	require.Equal(t, Black, cv.fills[0].c)
	// Background plus four border edges.
	require.Len(t, cv.fills, 5)
}

func TestLayerGatesDrawAndHide(t *testing.T) {
	cv := &recordingCanvas{}
	e := NewEngine(cv)

	b := testButton(ButtonOffset, Rect{W: 50, H: 20}, 0)
	b.Layer = Layer1
	b.DisplayState = Hidden
	require.NoError(t, e.AddButton(&b))

	require.ErrorIs(t, e.DrawButton(ButtonOffset), errcode.Validation)
	require.Zero(t, cv.calls())

	e.SetActiveLayer(Layer1)
	require.NoError(t, e.DrawButton(ButtonOffset))
	require.Equal(t, NotHidden, e.ButtonDisplayState(ButtonOffset))

	e.SetActiveLayer(Layer0)
	cv.reset()
	require.NoError(t, e.HideButton(ButtonOffset))
	require.Zero(t, cv.calls(), "hide must not paint an inactive layer")
	require.Equal(t, NotHidden, e.ButtonDisplayState(ButtonOffset))
}

func setupTouch(t *testing.T) (*Engine, *[]touchRecord) {
	t.Helper()
	e := NewEngine(&recordingCanvas{})
	var got []touchRecord
	e.HandleButton(1, func(ev hal.TouchEvent, id ID) {
		got = append(got, touchRecord{ev: ev, id: id})
	})

	a := testButton(ButtonOffset, Rect{X: 0, Y: 0, W: 50, H: 50}, 1)
	b := testButton(ButtonOffset+1, Rect{X: 100, Y: 0, W: 50, H: 50}, 1)
	require.NoError(t, e.AddButton(&a))
	require.NoError(t, e.AddButton(&b))
	return e, &got
}

func TestTouchDownUpRestoresState(t *testing.T) {
	e, got := setupTouch(t)

	e.Dispatch(hal.TouchDown, 10, 10)
	a, _ := e.Button(ButtonOffset)
	require.Equal(t, TouchDown, a.State)

	e.Dispatch(hal.TouchUp, 10, 10)
	require.Equal(t, Enabled, a.State)
	require.Equal(t, []touchRecord{{hal.TouchDown, ButtonOffset}, {hal.TouchUp, ButtonOffset}}, *got)
	_, tracking := e.TrackedButton()
	require.False(t, tracking)
}

func TestTouchHoldRepeatsDown(t *testing.T) {
	e, got := setupTouch(t)

	e.Dispatch(hal.TouchDown, 10, 10)
	e.Dispatch(hal.TouchDown, 12, 11)
	e.Dispatch(hal.TouchDown, 50, 50) // inclusive far corner
	require.Len(t, *got, 3)
	a, _ := e.Button(ButtonOffset)
	require.Equal(t, TouchDown, a.State)
}

func TestTouchDragOffCancels(t *testing.T) {
	e, got := setupTouch(t)

	e.Dispatch(hal.TouchDown, 10, 10)
	e.Dispatch(hal.TouchDown, 75, 10)
	a, _ := e.Button(ButtonOffset)
	require.Equal(t, Enabled, a.State)

	e.Dispatch(hal.TouchUp, 75, 10)
	require.Equal(t, []touchRecord{{hal.TouchDown, ButtonOffset}}, *got)
}

func TestTouchDragToOtherButton(t *testing.T) {
	e, got := setupTouch(t)

	e.Dispatch(hal.TouchDown, 10, 10)
	e.Dispatch(hal.TouchDown, 110, 10)
	a, _ := e.Button(ButtonOffset)
	b, _ := e.Button(ButtonOffset + 1)
	require.Equal(t, Enabled, a.State)
	require.Equal(t, TouchDown, b.State)

	e.Dispatch(hal.TouchUp, 110, 10)
	require.Equal(t, Enabled, b.State)
	require.Equal(t, touchRecord{hal.TouchUp, ButtonOffset + 1}, (*got)[len(*got)-1])
}

func TestTouchSkipsDisabledTouchAndOtherLayer(t *testing.T) {
	e, got := setupTouch(t)

	require.NoError(t, e.SetButtonState(ButtonOffset, DisabledTouch))
	e.Dispatch(hal.TouchDown, 10, 10)
	e.Dispatch(hal.TouchUp, 10, 10)
	require.Empty(t, *got)

	require.NoError(t, e.SetButtonLayer(ButtonOffset+1, Layer1))
	e.Dispatch(hal.TouchDown, 110, 10)
	require.Empty(t, *got)
}

func TestTouchFirstRegisteredWins(t *testing.T) {
	e := NewEngine(&recordingCanvas{})
	var got []ID
	e.HandleButton(1, func(ev hal.TouchEvent, id ID) { got = append(got, id) })

	top := testButton(ButtonOffset+5, Rect{W: 50, H: 50}, 1)
	under := testButton(ButtonOffset, Rect{W: 50, H: 50}, 1)
	require.NoError(t, e.AddButton(&top))
	require.NoError(t, e.AddButton(&under))

	e.Dispatch(hal.TouchDown, 5, 5)
	require.Equal(t, []ID{ButtonOffset + 5}, got)
}

func TestTextBoxAndContainerPassThrough(t *testing.T) {
	e := NewEngine(&recordingCanvas{})
	var boxHits, containerHits int
	e.HandlePoint(7, func(ev hal.TouchEvent, x, y int16) { boxHits++ })
	e.HandlePoint(8, func(ev hal.TouchEvent, x, y int16) { containerHits++ })

	tb := TextBox{Object: Object{ID: TextBoxOffset, Rect: Rect{W: 100, H: 100}, DisplayState: NotHidden}, Callback: 7}
	require.NoError(t, e.AddTextBox(&tb))
	c := Container{Object: Object{ID: ContainerOffset, Rect: Rect{W: 200, H: 200}, DisplayState: NotHidden}, Callback: 8}
	require.NoError(t, e.AddContainer(&c))

	e.Dispatch(hal.TouchDown, 50, 50)
	e.Dispatch(hal.TouchUp, 150, 150)
	require.Equal(t, 1, boxHits)
	require.Equal(t, 2, containerHits)
}
