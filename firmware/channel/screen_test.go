package channel

import (
	"bytes"
	"image/color"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"busscope/firmware/gui"
	"busscope/firmware/settings"
	"busscope/hal"
)

type canvas struct {
	mu    sync.Mutex
	texts []string
}

func (c *canvas) FillRect(color.RGBA, gui.Rect, gui.Layer) {}

func (c *canvas) WriteText(_ gui.Point, s string, _ gui.TextSize, _, _ color.RGBA, _ gui.Layer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, s)
}

func (c *canvas) text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.texts, "")
}

type screenRig struct {
	*rig
	cv      *canvas
	s       *Screen
	changed []string
}

func newScreen(t *testing.T) *screenRig {
	t.Helper()
	r := &screenRig{rig: newRig(), cv: &canvas{}}
	var chans []*Channel
	for _, d := range settings.Defs {
		chans = append(chans, r.channel(t, d.Name))
	}
	s, err := NewScreen(gui.NewEngine(r.cv), r.clk, chans, Options{Logf: r.logf}, func(name string) {
		r.changed = append(r.changed, name)
	})
	require.NoError(t, err)
	r.s = s
	t.Cleanup(func() {
		for _, c := range s.Controllers() {
			c.Channel().Disable()
		}
	})
	return r
}

func (r *screenRig) tap(t *testing.T, id gui.ID) {
	t.Helper()
	b, err := r.s.Engine().Button(id)
	require.NoError(t, err)
	x, y := b.Rect.X+b.Rect.W/2, b.Rect.Y+b.Rect.H/2
	r.s.Touch(hal.TouchDown, x, y)
	r.s.Touch(hal.TouchUp, x, y)
}

func (r *screenRig) tapAt(x, y int16) {
	r.s.Touch(hal.TouchDown, x, y)
	r.s.Touch(hal.TouchUp, x, y)
}

func (r *screenRig) index(t *testing.T, name string) int {
	t.Helper()
	for i, c := range r.s.Controllers() {
		if c.Channel().Def().Name == name {
			return i
		}
	}
	t.Fatalf("no channel %s", name)
	return -1
}

func (r *screenRig) state(t *testing.T, id gui.ID) gui.ButtonState {
	t.Helper()
	b, err := r.s.Engine().Button(id)
	require.NoError(t, err)
	return b.State
}

func TestScreenStartsOnFirstChannel(t *testing.T) {
	r := newScreen(t)
	e := r.s.Engine()

	require.Equal(t, 0, r.s.Active().idx)
	require.Equal(t, gui.Enabled, r.state(t, buttonID(0, roleTop)))
	for i := 1; i < len(settings.Defs); i++ {
		require.Equal(t, gui.Disabled, r.state(t, buttonID(i, roleTop)))
		require.Equal(t, gui.Hidden, e.ContainerDisplayState(containerID(i, containerContent)))
	}
	require.Equal(t, gui.NotHidden, e.ContainerDisplayState(containerID(0, containerContent)))
	require.Contains(t, r.cv.text(), "Frames: 0 (0 B), Displayed data: None")
}

func TestTopBarSwitchesChannel(t *testing.T) {
	r := newScreen(t)
	e := r.s.Engine()
	i := r.index(t, "uart1")

	r.tap(t, buttonID(i, roleTop))

	require.Equal(t, i, r.s.Active().idx)
	require.Equal(t, gui.Enabled, r.state(t, buttonID(i, roleTop)))
	require.Equal(t, gui.Disabled, r.state(t, buttonID(0, roleTop)))
	require.Equal(t, gui.Hidden, e.ContainerDisplayState(containerID(0, containerContent)))
	require.Equal(t, gui.NotHidden, e.ContainerDisplayState(containerID(i, containerContent)))
	require.Equal(t, gui.NotHidden, e.ButtonDisplayState(buttonID(i, roleParity)))
}

func TestBaudPopoutAppliesAndRestarts(t *testing.T) {
	r := newScreen(t)
	e := r.s.Engine()
	i := r.index(t, "uart1")
	r.tap(t, buttonID(i, roleTop))

	r.tap(t, buttonID(i, roleEnable))
	c := r.s.Active()
	require.Equal(t, settings.Connected, c.Channel().Settings().Connection)
	require.True(t, c.Channel().Running())

	opener := buttonID(i, roleRate)
	r.tap(t, opener)
	require.True(t, r.s.PopoutOpen())
	require.Equal(t, gui.Layer1, e.ActiveLayer())
	require.Equal(t, gui.NotHidden, e.ContainerDisplayState(baudPopout))
	b, err := e.Button(opener)
	require.NoError(t, err)
	require.Equal(t, gui.Layer1, b.Layer)
	require.Equal(t, gui.Disabled, r.state(t, baudPopoutButtons+8), "115200 marked current")

	// Layer 0 ignores touches while the popout is open.
	r.tap(t, buttonID(0, roleTop))
	require.Equal(t, i, r.s.Active().idx)

	r.tap(t, baudPopoutButtons+2)

	require.False(t, r.s.PopoutOpen())
	require.Equal(t, gui.Layer0, e.ActiveLayer())
	require.Equal(t, gui.Hidden, e.ContainerDisplayState(baudPopout))
	require.Equal(t, gui.Layer0, b.Layer)
	require.Equal(t, gui.Enabled, b.State)
	require.Equal(t, "9600 bps", b.Text[1].Text)
	require.Equal(t, uint32(9600), c.Channel().Settings().BaudRate)
	require.Equal(t, uint32(9600), r.lines.get("uart1").lastConfig().BaudRate)
	require.Equal(t, 2, r.lines.opens)
	require.Contains(t, r.changed, "uart1")
}

func TestParityPopoutClosesOnOpener(t *testing.T) {
	r := newScreen(t)
	e := r.s.Engine()
	i := r.index(t, "rs232")
	r.tap(t, buttonID(i, roleTop))

	opener := buttonID(i, roleParity)
	r.tap(t, opener)
	require.True(t, r.s.PopoutOpen())
	require.Equal(t, gui.NotHidden, e.ContainerDisplayState(parityPopout))

	r.tap(t, opener)
	require.False(t, r.s.PopoutOpen())
	require.Equal(t, gui.Layer0, e.ActiveLayer())
	require.Equal(t, settings.ParityNone, r.s.Active().Channel().Settings().Parity)

	r.tap(t, opener)
	r.tap(t, parityPopoutButtons+2)
	require.Equal(t, settings.ParityEven, r.s.Active().Channel().Settings().Parity)
	require.False(t, r.s.Active().Channel().Running(), "a disconnected channel stays closed")
}

func TestBitRatePopoutOnCANChannel(t *testing.T) {
	r := newScreen(t)
	c := r.s.Active()
	require.Equal(t, settings.KindCAN, c.Channel().Def().Kind)

	r.tap(t, buttonID(0, roleRate))
	require.Equal(t, gui.NotHidden, r.s.Engine().ContainerDisplayState(bitRatePopout))
	r.tap(t, bitRatePopoutButtons+7)

	require.Equal(t, uint32(1_000_000), c.Channel().Settings().BitRate)
	b, err := r.s.Engine().Button(buttonID(0, roleRate))
	require.NoError(t, err)
	require.Equal(t, "1 Mbit/s", b.Text[1].Text)
}

func TestSidebarArrowsDisableAtEnds(t *testing.T) {
	r := newScreen(t)
	e := r.s.Engine()
	i := r.index(t, "uart2")
	r.tap(t, buttonID(i, roleTop))
	back, fwd := buttonID(i, roleBack), buttonID(i, roleForward)

	require.Equal(t, gui.DisabledTouch, r.state(t, back))
	require.Equal(t, gui.Enabled, r.state(t, fwd))
	require.Equal(t, gui.NotHidden, e.ButtonDisplayState(buttonID(i, roleEnable)))
	require.Equal(t, gui.Hidden, e.ButtonDisplayState(buttonID(i, rolePower)))

	r.tap(t, fwd)
	require.Equal(t, gui.Page2, e.ActivePage(containerID(i, containerSidebar)))
	require.Equal(t, gui.Enabled, r.state(t, back))
	require.Equal(t, gui.DisabledTouch, r.state(t, fwd))
	require.Equal(t, gui.Hidden, e.ButtonDisplayState(buttonID(i, roleEnable)))
	require.Equal(t, gui.NotHidden, e.ButtonDisplayState(buttonID(i, rolePower)))

	r.tap(t, fwd)
	require.Equal(t, gui.Page2, e.ActivePage(containerID(i, containerSidebar)))

	r.tap(t, buttonID(i, rolePower))
	require.Equal(t, settings.Power3V3, r.s.Active().Channel().Settings().Power)

	r.tap(t, back)
	require.Equal(t, gui.Page1, e.ActivePage(containerID(i, containerSidebar)))
	require.Equal(t, gui.DisabledTouch, r.state(t, back))
}

func TestBusySettingsLockLeavesValue(t *testing.T) {
	r := newScreen(t)
	c := r.s.Active()
	require.True(t, c.Channel().Store().TryLock())

	r.tap(t, buttonID(0, roleFormat))
	c.Channel().Store().Unlock()

	require.Equal(t, settings.FormatHex, c.Channel().Settings().Format)
	require.Empty(t, r.changed)
	require.NotEmpty(t, r.logged())

	r.tap(t, buttonID(0, roleFormat))
	require.Equal(t, settings.FormatASCII, c.Channel().Settings().Format)
	require.Equal(t, []string{"can1"}, r.changed)
}

func TestCANEnableWithoutControllerShowsFault(t *testing.T) {
	r := newScreen(t)
	c := r.s.Active()
	c.Channel().hw.CAN = nil

	r.tap(t, buttonID(0, roleEnable))
	require.Error(t, c.Channel().Fault())
	require.Equal(t, "Fault", c.OutputLabel())
	require.True(t, strings.HasPrefix(c.InfoText(), "Fault: "))

	r.tap(t, buttonID(0, roleEnable))
	require.NoError(t, c.Channel().Fault())
	require.Equal(t, "Disabled", c.OutputLabel())
	require.Equal(t, settings.Disconnected, c.Channel().Settings().Connection)
}

func TestMainBoxTouchPagesThroughLog(t *testing.T) {
	r := newScreen(t)
	i := r.index(t, "uart1")
	r.tap(t, buttonID(i, roleTop))
	c := r.s.Active()

	require.NoError(t, c.Channel().Drain(bytes.Repeat([]byte{'z'}, 3000)))
	r.s.Refresh(false)
	require.True(t, c.Window().Following())
	first, last := c.Window().Shown()
	require.Equal(t, uint32(3000), last)
	require.Equal(t, "Data Count: 3.0 kB, Displayed data: 976 to 3000", c.InfoText())

	r.tapAt(100, topH+10)
	require.False(t, c.Window().Following())
	first, last = c.Window().Shown()
	require.Equal(t, uint32(0), first)

	r.tapAt(100, topH+mainH-10)
	require.True(t, c.Window().Following())
	_, last = c.Window().Shown()
	require.Equal(t, uint32(3000), last)
}

func TestClearButtonResetsWindow(t *testing.T) {
	r := newScreen(t)
	i := r.index(t, "uart1")
	r.tap(t, buttonID(i, roleTop))
	c := r.s.Active()
	require.NoError(t, c.Channel().Drain([]byte("to be erased")))
	r.s.Refresh(false)

	r.tap(t, buttonID(i, roleClear))

	require.Zero(t, c.Channel().Settings().BytesSaved)
	require.Equal(t, "Data Count: 0 B, Displayed data: None", c.InfoText())
	require.Contains(t, r.changed, "uart1")
}
