package channel

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"busscope/firmware/gui"
	"busscope/firmware/settings"
	"busscope/firmware/window"
)

// Controller is the page of one channel: top bar button, sidebar, main text
// box bound to the log, and info line.
type Controller struct {
	s   *Screen
	idx int
	ch  *Channel
	win *window.Window

	info string
}

func (c *Controller) Channel() *Channel          { return c.ch }
func (c *Controller) Window() *window.Window     { return c.win }
func (c *Controller) button(role int) gui.ID     { return buttonID(c.idx, role) }
func (c *Controller) textBox(role int) gui.ID    { return textBoxID(c.idx, role) }
func (c *Controller) container(r int) gui.ID     { return containerID(c.idx, r) }
func (c *Controller) isCAN() bool                { return c.ch.Def().Kind == settings.KindCAN }
func (c *Controller) sidebar() gui.ID            { return c.container(containerSidebar) }
func (c *Controller) content() gui.ID            { return c.container(containerContent) }
func (c *Controller) mainBox() gui.ID            { return c.textBox(boxMain) }
func (c *Controller) infoBox() gui.ID            { return c.textBox(boxInfo) }
func (c *Controller) topButton() gui.ID          { return c.button(roleTop) }
func (c *Controller) snapshot() settings.Channel { return c.ch.Settings() }

func newButton(id gui.ID, r gui.Rect, page gui.Page, cb gui.CallbackKind, rows ...string) *gui.Button {
	b := &gui.Button{
		Object: gui.Object{
			ID:              id,
			Rect:            r,
			Layer:           gui.Layer0,
			DisplayState:    gui.Hidden,
			Border:          gui.BorderAll,
			BorderThickness: 1,
			BorderColor:     green,
			Page:            page,
		},
		EnabledText:        white,
		EnabledBackground:  darkGreen,
		DisabledText:       green,
		DisabledBackground: black,
		PressedText:        black,
		PressedBackground:  green,
		State:              gui.Enabled,
		Callback:           cb,
	}
	for i, row := range rows {
		if i < len(b.Text) {
			b.Text[i] = gui.TextRow{Text: row, Size: gui.TextSize1}
		}
	}
	return b
}

func sideRect(row int) gui.Rect {
	return gui.Rect{X: sideX, Y: sideTop + int16(row)*sideRowH, W: sideW, H: sideRowH}
}

type sideEntry struct {
	role int
	page gui.Page
	row  int
	cb   gui.CallbackKind
	text [2]string
}

func (c *Controller) sideEntries() []sideEntry {
	if c.isCAN() {
		return []sideEntry{
			{roleEnable, gui.Page1, 0, cbEnable, [2]string{"Output:", ""}},
			{roleRate, gui.Page1, 1, cbRate, [2]string{"< Bit Rate:", ""}},
			{roleTermination, gui.Page1, 2, cbTermination, [2]string{"Termination:", ""}},
			{roleIdentifier, gui.Page1, 3, cbIdentifier, [2]string{"Identifier:", ""}},
			{roleFormat, gui.Page1, 4, cbFormat, [2]string{"Display Format:", ""}},
			{roleClear, gui.Page2, 0, cbClear, [2]string{"Clear", ""}},
		}
	}
	return []sideEntry{
		{roleEnable, gui.Page1, 0, cbEnable, [2]string{"Output:", ""}},
		{roleRate, gui.Page1, 1, cbRate, [2]string{"< Baud Rate:", ""}},
		{roleParity, gui.Page1, 2, cbParity, [2]string{"< Parity:", ""}},
		{roleFormat, gui.Page1, 3, cbFormat, [2]string{"Display Format:", ""}},
		{roleClear, gui.Page1, 4, cbClear, [2]string{"Clear", ""}},
		{rolePower, gui.Page2, 0, cbPower, [2]string{"Voltage Level:", ""}},
		{roleDebug, gui.Page2, 1, cbDebug, [2]string{"Debug TX:", ""}},
	}
}

// build registers every widget of the page, hidden.
func (c *Controller) build() error {
	e := c.s.e
	d := c.ch.Def()

	top := newButton(c.topButton(), gui.Rect{X: int16(c.idx) * topW, Y: 0, W: topW, H: topH}, gui.PageAll, cbTop, d.Label)
	top.Text[0].Size = gui.TextSize2
	top.DisplayState = gui.NotHidden
	top.State = gui.Disabled
	if err := e.AddButton(top); err != nil {
		return err
	}

	var side []gui.ID
	for _, se := range c.sideEntries() {
		b := newButton(c.button(se.role), sideRect(se.row), se.page, se.cb, se.text[0], se.text[1])
		if se.role == roleClear {
			b.PressedBackground = red
		}
		if err := e.AddButton(b); err != nil {
			return err
		}
		side = append(side, c.button(se.role))
	}
	for _, nav := range []struct {
		role int
		x    int16
		text string
	}{{roleBack, sideX, "<"}, {roleForward, sideX + navW, ">"}} {
		b := newButton(c.button(nav.role), gui.Rect{X: nav.x, Y: navY, W: navW, H: topH}, gui.PageAll, cbSidebar, nav.text)
		b.Text[0].Size = gui.TextSize2
		if err := e.AddButton(b); err != nil {
			return err
		}
		side = append(side, c.button(nav.role))
	}
	if err := e.AddContainer(&gui.Container{
		Object:     gui.Object{ID: c.sidebar(), Rect: gui.Rect{X: sideX, Y: sideTop, W: sideW, H: navY + topH - sideTop}, Page: gui.PageAll},
		Background: black,
		Buttons:    side,
		ActivePage: gui.Page1,
		LastPage:   gui.Page2,
	}); err != nil {
		return err
	}

	boxes := []*gui.TextBox{
		{
			Object:     gui.Object{ID: c.textBox(boxLabel), Rect: gui.Rect{X: sideX, Y: topH, W: sideW, H: topH}, Page: gui.PageAll},
			TextColor:  white,
			Background: darkGreen,
			TextSize:   gui.TextSize2,
			StaticText: d.Label,
		},
		{
			Object:     gui.Object{ID: c.mainBox(), Rect: gui.Rect{X: 0, Y: topH, W: sideX, H: mainH}, Page: gui.PageAll},
			TextColor:  white,
			Background: black,
			TextSize:   gui.TextSize1,
			Callback:   cbMainText,
		},
		{
			Object:     gui.Object{ID: c.infoBox(), Rect: gui.Rect{X: 0, Y: infoY, W: sideX, H: infoH}, Page: gui.PageAll},
			TextColor:  black,
			Background: green,
			TextSize:   gui.TextSize1,
		},
	}
	for _, tb := range boxes {
		if err := e.AddTextBox(tb); err != nil {
			return err
		}
	}

	return e.AddContainer(&gui.Container{
		Object:     gui.Object{ID: c.content(), Rect: gui.Rect{X: 0, Y: topH, W: sideX + sideW, H: infoY + infoH - topH}, Page: gui.PageAll},
		Background: black,
		TextBoxes:  []gui.ID{c.textBox(boxLabel), c.mainBox(), c.infoBox()},
		Containers: []gui.ID{c.sidebar()},
		ActivePage: gui.Page1,
		LastPage:   gui.Page1,
	})
}

func onOff(b bool) string {
	if b {
		return "On"
	}
	return "Off"
}

// RateLabel renders a baud or bit rate for a button.
func RateLabel(kind settings.Kind, rate uint32) string {
	if kind == settings.KindUART {
		return fmt.Sprintf("%d bps", rate)
	}
	switch {
	case rate >= 1_000_000 && rate%1_000_000 == 0:
		return fmt.Sprintf("%d Mbit/s", rate/1_000_000)
	case rate >= 1000:
		return fmt.Sprintf("%d kbit/s", rate/1000)
	default:
		return fmt.Sprintf("%d bit/s", rate)
	}
}

// OutputLabel is the enable button's second row.
func (c *Controller) OutputLabel() string {
	if c.ch.Fault() != nil {
		return "Fault"
	}
	if c.snapshot().Connection == settings.Connected {
		return "Enabled"
	}
	return "Disabled"
}

// syncButtons rewrites the value row of every sidebar button from the
// current settings.
func (c *Controller) syncButtons() {
	e := c.s.e
	snap := c.snapshot()
	kind := c.ch.Def().Kind

	_ = e.SetButtonText(c.button(roleEnable), 1, c.OutputLabel())
	_ = e.SetButtonText(c.button(roleFormat), 1, snap.Format.String())
	if kind == settings.KindCAN {
		_ = e.SetButtonText(c.button(roleRate), 1, RateLabel(kind, snap.BitRate))
		_ = e.SetButtonText(c.button(roleTermination), 1, onOff(snap.Termination))
		_ = e.SetButtonText(c.button(roleIdentifier), 1, snap.Identifier.String())
		return
	}
	_ = e.SetButtonText(c.button(roleRate), 1, RateLabel(kind, snap.BaudRate))
	_ = e.SetButtonText(c.button(roleParity), 1, snap.Parity.String())
	_ = e.SetButtonText(c.button(rolePower), 1, snap.Power.String())
	debug := "Disabled"
	if snap.Mode == settings.ModeDebugTX {
		debug = "Enabled"
	}
	_ = e.SetButtonText(c.button(roleDebug), 1, debug)
}

// syncNav disables the sidebar arrow that points past the first or last page.
func (c *Controller) syncNav() {
	e := c.s.e
	page := e.ActivePage(c.sidebar())
	back, fwd := gui.Enabled, gui.Enabled
	if page == gui.Page1 {
		back = gui.DisabledTouch
	}
	if page >= e.LastPage(c.sidebar()) {
		fwd = gui.DisabledTouch
	}
	_ = e.SetButtonState(c.button(roleBack), back)
	_ = e.SetButtonState(c.button(roleForward), fwd)
}

// InfoText is the line shown under the main text box.
func (c *Controller) InfoText() string {
	if err := c.ch.Fault(); err != nil {
		return "Fault: " + err.Error()
	}
	snap := c.snapshot()
	shown := "None"
	if snap.BytesSaved > 0 {
		first, last := c.win.Shown()
		if last > first {
			shown = fmt.Sprintf("%d to %d", first+1, last)
		}
	}
	var s string
	if c.isCAN() {
		s = fmt.Sprintf("Frames: %s (%s), Displayed data: %s",
			humanize.Comma(int64(snap.BytesSaved/FrameBytes)), humanize.Bytes(uint64(snap.BytesSaved)), shown)
	} else {
		s = fmt.Sprintf("Data Count: %s, Displayed data: %s", humanize.Bytes(uint64(snap.BytesSaved)), shown)
	}
	if c.ch.Buffer().Overrun() {
		s += ", overrun"
	}
	return s
}

func (c *Controller) refreshInfo(force bool) {
	e := c.s.e
	text := c.InfoText()
	if !force && text == c.info {
		return
	}
	c.info = text
	box := c.infoBox()
	if cols, _, err := e.TextGrid(box); err == nil && len(text) > cols-1 {
		text = text[:max(cols-1, 0)]
	}
	if err := e.ClearAndResetTextBox(box); err != nil {
		return
	}
	_ = e.SetYWritePositionToCenter(box)
	_, y, _ := e.WritePosition(box)
	_ = e.SetWritePosition(box, 5, y)
	_ = e.WriteString(box, text)
}

// refresh repaints the main text box from the log when needed, then the
// info line.
func (c *Controller) refresh(force bool) {
	drew, err := c.win.Refresh(force, c.snapshot())
	if err != nil {
		c.s.opts.Logf("%s: refresh: %v", c.ch.Def().Name, err)
	}
	c.refreshInfo(force || drew)
}

// update applies fn under the settings lock and reports success.
func (c *Controller) update(fn func(*settings.Channel)) bool {
	err := c.ch.Store().Update(c.s.clk, c.s.opts.LockWait, func(s *settings.Channel) error {
		fn(s)
		return nil
	})
	if err != nil {
		c.s.opts.Logf("%s: settings: %v", c.ch.Def().Name, err)
		return false
	}
	c.s.changed(c.ch.Def().Name)
	return true
}

// apply is update followed by a restart when the channel is connected.
func (c *Controller) apply(fn func(*settings.Channel)) bool {
	if !c.update(fn) {
		return false
	}
	if c.snapshot().Connection == settings.Connected {
		_ = c.ch.Restart()
	}
	c.syncButtons()
	return true
}

// ToggleOutput connects or disconnects the channel.
func (c *Controller) ToggleOutput() {
	if c.snapshot().Connection == settings.Connected {
		if c.update(func(s *settings.Channel) { s.Connection = settings.Disconnected }) {
			c.ch.Disable()
		}
	} else if c.update(func(s *settings.Channel) { s.Connection = settings.Connected }) {
		_ = c.ch.Enable()
	}
	c.syncButtons()
	c.refreshInfo(true)
}

// ToggleFormat switches between ASCII and hex rendering.
func (c *Controller) ToggleFormat() {
	if c.update(func(s *settings.Channel) {
		if s.Format == settings.FormatASCII {
			s.Format = settings.FormatHex
		} else {
			s.Format = settings.FormatASCII
		}
	}) {
		c.syncButtons()
		c.refresh(true)
	}
}

// Clear erases the channel's log and returns the window to follow mode.
func (c *Controller) Clear() {
	if err := c.ch.Clear(); err != nil {
		return
	}
	c.s.changed(c.ch.Def().Name)
	c.win.Reset()
	c.refresh(true)
}

func (c *Controller) TogglePower() {
	c.apply(func(s *settings.Channel) {
		if s.Power == settings.Power5V {
			s.Power = settings.Power3V3
		} else {
			s.Power = settings.Power5V
		}
	})
}

func (c *Controller) ToggleDebug() {
	c.apply(func(s *settings.Channel) {
		if s.Mode == settings.ModeDebugTX {
			s.Mode = settings.ModeTXRX
		} else {
			s.Mode = settings.ModeDebugTX
		}
	})
}

func (c *Controller) ToggleTermination() {
	c.apply(func(s *settings.Channel) { s.Termination = !s.Termination })
}

func (c *Controller) ToggleIdentifier() {
	c.apply(func(s *settings.Channel) {
		if s.Identifier == settings.IDStandard {
			s.Identifier = settings.IDExtended
		} else {
			s.Identifier = settings.IDStandard
		}
	})
}

// PageSidebar moves the sidebar one page back or forward.
func (c *Controller) PageSidebar(forward bool) {
	e := c.s.e
	if forward {
		_ = e.IncreasePage(c.sidebar())
	} else {
		_ = e.DecreasePage(c.sidebar())
	}
	c.syncNav()
}

// Scroll pages the log window back or forward.
func (c *Controller) Scroll(back bool) {
	cursor := c.snapshot().WriteCursor
	if back {
		c.win.PageBack(cursor)
	} else {
		c.win.PageForward(cursor)
	}
	c.refresh(false)
}
