package channel

import (
	"fmt"

	"busscope/firmware/gui"
	"busscope/firmware/settings"
	"busscope/firmware/window"
	"busscope/hal"
	"busscope/internal/errcode"
)

type popout struct {
	owner  *Controller
	opener gui.ID
	id     gui.ID
}

// Screen owns the engine and one Controller per channel. Only one channel
// page is visible at a time; popouts open on layer 1. It belongs to the UI
// task.
type Screen struct {
	e      *gui.Engine
	clk    settings.Clock
	opts   Options
	notify func(name string)

	ctrls  []*Controller
	active int
	pop    *popout
}

// NewScreen builds every page and shows the first channel. notify is called
// with the channel name after each settings change; it may be nil.
func NewScreen(e *gui.Engine, clk settings.Clock, chans []*Channel, opts Options, notify func(name string)) (*Screen, error) {
	const op = "channel.NewScreen"

	if len(chans) == 0 || len(chans) > MaxChannels {
		return nil, errcode.New(errcode.Validation, op, fmt.Sprintf("%d channels", len(chans)))
	}
	if notify == nil {
		notify = func(string) {}
	}
	s := &Screen{e: e, clk: clk, opts: opts.withDefaults(), notify: notify, active: -1}
	s.register()
	if err := s.buildPopouts(); err != nil {
		return nil, err
	}
	for i, ch := range chans {
		c := &Controller{s: s, idx: i, ch: ch}
		c.win = window.New(e, c.mainBox(), ch.Log(), ch.Def().Range)
		if err := c.build(); err != nil {
			return nil, fmt.Errorf("%s: %w", ch.Def().Name, err)
		}
		c.syncButtons()
		c.syncNav()
		s.ctrls = append(s.ctrls, c)
	}
	s.Select(0)
	return s, nil
}

func (s *Screen) Engine() *gui.Engine        { return s.e }
func (s *Screen) Controllers() []*Controller { return s.ctrls }
func (s *Screen) PopoutOpen() bool           { return s.pop != nil }

// Active returns the visible channel page.
func (s *Screen) Active() *Controller { return s.ctrls[s.active] }

func (s *Screen) changed(name string) { s.notify(name) }

// Select shows the page of channel i.
func (s *Screen) Select(i int) {
	if i < 0 || i >= len(s.ctrls) || i == s.active || s.pop != nil {
		return
	}
	if s.active >= 0 {
		old := s.ctrls[s.active]
		_ = s.e.HideContainer(old.content())
		_ = s.e.SetButtonState(old.topButton(), gui.Disabled)
	}
	s.active = i
	c := s.ctrls[i]
	_ = s.e.SetButtonState(c.topButton(), gui.Enabled)
	_ = s.e.DrawContainer(c.content())
	c.syncNav()
	c.refresh(true)
}

// Touch feeds one touch sample to the engine. A sample whose button callback
// switched layers is not passed on to the widgets of the new layer.
func (s *Screen) Touch(ev hal.TouchEvent, x, y int16) {
	layer := s.e.ActiveLayer()
	s.e.DispatchButtons(ev, x, y)
	if s.e.ActiveLayer() != layer {
		return
	}
	s.e.DispatchTextBoxes(ev, x, y)
	s.e.DispatchContainers(ev, x, y)
}

// Refresh repaints the visible page from its log. It does nothing while a
// popout covers layer 0.
func (s *Screen) Refresh(force bool) {
	if s.pop != nil || s.active < 0 {
		return
	}
	s.Active().refresh(force)
}

func (s *Screen) register() {
	e := s.e
	e.HandleButton(cbTop, func(ev hal.TouchEvent, id gui.ID) {
		if i, _, ok := buttonOwner(id); ok && ev == hal.TouchUp {
			s.Select(i)
		}
	})
	e.HandleButton(cbEnable, s.onUp(func(c *Controller, _ int) { c.ToggleOutput() }))
	e.HandleButton(cbFormat, s.onUp(func(c *Controller, _ int) { c.ToggleFormat() }))
	e.HandleButton(cbClear, s.onUp(func(c *Controller, _ int) { c.Clear() }))
	e.HandleButton(cbPower, s.onUp(func(c *Controller, _ int) { c.TogglePower() }))
	e.HandleButton(cbDebug, s.onUp(func(c *Controller, _ int) { c.ToggleDebug() }))
	e.HandleButton(cbTermination, s.onUp(func(c *Controller, _ int) { c.ToggleTermination() }))
	e.HandleButton(cbIdentifier, s.onUp(func(c *Controller, _ int) { c.ToggleIdentifier() }))
	e.HandleButton(cbSidebar, s.onUp(func(c *Controller, role int) { c.PageSidebar(role == roleForward) }))
	e.HandleButton(cbRate, s.onUp(func(c *Controller, role int) {
		if c.isCAN() {
			s.togglePopout(c, role, bitRatePopout)
		} else {
			s.togglePopout(c, role, baudPopout)
		}
	}))
	e.HandleButton(cbParity, s.onUp(func(c *Controller, role int) { s.togglePopout(c, role, parityPopout) }))

	e.HandleButton(cbBaudSelect, s.onSelect(baudPopoutButtons, func(ch *settings.Channel, k int) {
		ch.BaudRate = settings.BaudRates[k]
	}))
	e.HandleButton(cbParitySelect, s.onSelect(parityPopoutButtons, func(ch *settings.Channel, k int) {
		ch.Parity = settings.Parity(k)
	}))
	e.HandleButton(cbBitRateSelect, s.onSelect(bitRatePopoutButtons, func(ch *settings.Channel, k int) {
		ch.BitRate = settings.BitRates[k]
	}))

	e.HandlePoint(cbMainText, func(ev hal.TouchEvent, x, y int16) {
		if ev != hal.TouchUp || s.active < 0 {
			return
		}
		c := s.Active()
		tb, err := s.e.TextBox(c.mainBox())
		if err != nil {
			return
		}
		c.Scroll(y < tb.Rect.Y+tb.Rect.H/2)
	})
}

// onUp adapts fn to a handler that fires on release of a per-channel button.
func (s *Screen) onUp(fn func(c *Controller, role int)) gui.ButtonHandler {
	return func(ev hal.TouchEvent, id gui.ID) {
		if ev != hal.TouchUp {
			return
		}
		i, role, ok := buttonOwner(id)
		if !ok || i >= len(s.ctrls) {
			return
		}
		fn(s.ctrls[i], role)
	}
}

// onSelect adapts a popout choice into a settings change for the popout's
// owner, then closes the popout.
func (s *Screen) onSelect(base gui.ID, set func(ch *settings.Channel, k int)) gui.ButtonHandler {
	return func(ev hal.TouchEvent, id gui.ID) {
		if ev != hal.TouchUp || s.pop == nil {
			return
		}
		owner := s.pop.owner
		owner.apply(func(ch *settings.Channel) { set(ch, int(id-base)) })
		s.closePopout()
	}
}

func popoutChoices(id gui.ID) (base gui.ID, labels []string, cb gui.CallbackKind, y int16) {
	switch id {
	case baudPopout:
		for _, r := range settings.BaudRates {
			labels = append(labels, RateLabel(settings.KindUART, r))
		}
		return baudPopoutButtons, labels, cbBaudSelect, topH
	case parityPopout:
		for p := settings.ParityNone; p <= settings.ParityEven; p++ {
			labels = append(labels, p.String())
		}
		return parityPopoutButtons, labels, cbParitySelect, sideTop + 2*sideRowH
	default:
		for _, r := range settings.BitRates {
			labels = append(labels, RateLabel(settings.KindCAN, r))
		}
		return bitRatePopoutButtons, labels, cbBitRateSelect, sideTop
	}
}

func (s *Screen) buildPopouts() error {
	for _, id := range []gui.ID{baudPopout, parityPopout, bitRatePopout} {
		base, labels, cb, y := popoutChoices(id)
		ids := make([]gui.ID, 0, len(labels))
		for k, label := range labels {
			b := newButton(base+gui.ID(k), gui.Rect{X: popoutX, Y: y + int16(k)*popoutRow, W: popoutW, H: popoutRow}, gui.PageAll, cb, label)
			b.Layer = gui.Layer1
			if err := s.e.AddButton(b); err != nil {
				return err
			}
			ids = append(ids, base+gui.ID(k))
		}
		if err := s.e.AddContainer(&gui.Container{
			Object: gui.Object{
				ID:              id,
				Rect:            gui.Rect{X: popoutX, Y: y, W: popoutW, H: int16(len(labels)) * popoutRow},
				Layer:           gui.Layer1,
				Border:          gui.BorderAll,
				BorderThickness: 1,
				BorderColor:     white,
				Page:            gui.PageAll,
			},
			Background: black,
			Buttons:    ids,
			ActivePage: gui.Page1,
			LastPage:   gui.Page1,
		}); err != nil {
			return err
		}
	}
	return nil
}

// current returns the index of the owner's setting among the popout's choices.
func current(c *Controller, id gui.ID) int {
	snap := c.snapshot()
	switch id {
	case baudPopout:
		return indexOf(settings.BaudRates, snap.BaudRate)
	case parityPopout:
		return int(snap.Parity)
	default:
		return indexOf(settings.BitRates, snap.BitRate)
	}
}

func indexOf(rates []uint32, v uint32) int {
	for i, r := range rates {
		if r == v {
			return i
		}
	}
	return -1
}

// togglePopout opens popout id next to the opener, or closes it when the
// opener is touched again.
func (s *Screen) togglePopout(c *Controller, role int, id gui.ID) {
	opener := c.button(role)
	if s.pop != nil {
		if s.pop.opener == opener {
			s.closePopout()
		}
		return
	}
	base, labels, _, _ := popoutChoices(id)
	cur := current(c, id)
	for k := range labels {
		state := gui.Enabled
		if k == cur {
			state = gui.Disabled
		}
		_ = s.e.SetButtonState(base+gui.ID(k), state)
	}

	s.e.SetActiveLayer(gui.Layer1)
	_ = s.e.SetButtonLayer(opener, gui.Layer1)
	_ = s.e.SetButtonState(opener, gui.Disabled)
	_ = s.e.DrawContainer(id)
	s.pop = &popout{owner: c, opener: opener, id: id}
}

// closePopout hides the open popout, returns to layer 0 and repaints it.
func (s *Screen) closePopout() {
	p := s.pop
	if p == nil {
		return
	}
	s.pop = nil
	_ = s.e.HideContainer(p.id)
	s.e.SetActiveLayer(gui.Layer0)
	_ = s.e.SetButtonLayer(p.opener, gui.Layer0)
	_ = s.e.SetButtonState(p.opener, gui.Enabled)
	s.e.RedrawLayer(gui.Layer0)
	p.owner.syncButtons()
	s.Refresh(true)
}
