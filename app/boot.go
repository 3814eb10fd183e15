package app

import (
	"image/color"

	"busscope/firmware/fbcanvas"
	"busscope/firmware/gui"
	"busscope/hal"
	"busscope/internal/buildinfo"
)

// bootScreen shows the startup step until the UI task takes the display.
type bootScreen struct {
	d *fbcanvas.Display
	l hal.Logger
}

func newBootScreen(h hal.HAL) bootScreen {
	b := bootScreen{l: h.Logger()}
	if disp := h.Display(); disp != nil {
		if fb := disp.Framebuffer(); fb != nil {
			b.d = fbcanvas.New(fb)
		}
	}
	return b
}

func (b bootScreen) step(msg string) {
	if b.l != nil {
		b.l.WriteLineString("boot: " + msg)
	}
	if b.d == nil {
		return
	}
	fg := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	bg := color.RGBA{A: 0xFF}
	b.d.Framebuffer().ClearRGB(0, 0, 0)
	b.d.WriteText(gui.Point{X: 8, Y: 8}, "busscope "+buildinfo.Short(), gui.TextSize2, fg, bg, gui.Layer0)
	b.d.WriteText(gui.Point{X: 8, Y: 48}, msg, gui.TextSize1, fg, bg, gui.Layer0)
	_ = b.d.Display()
}
