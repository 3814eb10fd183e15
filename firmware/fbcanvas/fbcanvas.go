// Package fbcanvas draws widgets and text into an RGB565 framebuffer.
//
// Display implements gui.Canvas for the widget engine and the tinyterm
// Displayer interface for the panic console.
package fbcanvas

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"

	"busscope/firmware/gui"
	"busscope/hal"
)

// Font is the glyph set drawn into each gui.GlyphWidth x gui.GlyphHeight cell.
var Font tinyfont.Fonter = &proggy.TinySZ8pt7b

// Baseline is the glyph baseline below the top of a cell at TextSize 1.
const Baseline = 12

// Display is a framebuffer-backed canvas. It is not safe for concurrent use.
type Display struct {
	fb hal.Framebuffer
}

func New(fb hal.Framebuffer) *Display { return &Display{fb: fb} }

func (d *Display) Framebuffer() hal.Framebuffer { return d.fb }

func (d *Display) Size() (x, y int16) {
	if d.fb == nil {
		return 0, 0
	}
	return int16(d.fb.Width()), int16(d.fb.Height())
}

func (d *Display) SetPixel(x, y int16, c color.RGBA) {
	if !d.ok() {
		return
	}
	ix, iy := int(x), int(y)
	if ix < 0 || ix >= d.fb.Width() || iy < 0 || iy >= d.fb.Height() {
		return
	}
	buf := d.fb.Buffer()
	off := iy*d.fb.StrideBytes() + ix*2
	if off+1 >= len(buf) {
		return
	}
	pixel := hal.RGB565Color(c)
	buf[off] = byte(pixel)
	buf[off+1] = byte(pixel >> 8)
}

// Display presents the back buffer.
func (d *Display) Display() error {
	if d.fb == nil {
		return nil
	}
	return d.fb.Present()
}

func (d *Display) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	if !d.ok() {
		return nil
	}
	w, h := d.fb.Width(), d.fb.Height()
	x0 := clamp(int(x), 0, w)
	y0 := clamp(int(y), 0, h)
	x1 := clamp(int(x)+int(width), 0, w)
	y1 := clamp(int(y)+int(height), 0, h)
	if x0 >= x1 || y0 >= y1 {
		return nil
	}

	pixel := hal.RGB565Color(c)
	lo, hi := byte(pixel), byte(pixel>>8)
	buf := d.fb.Buffer()
	stride := d.fb.StrideBytes()
	for py := y0; py < y1; py++ {
		row := py * stride
		for px := x0; px < x1; px++ {
			off := row + px*2
			if off+1 >= len(buf) {
				break
			}
			buf[off] = lo
			buf[off+1] = hi
		}
	}
	return nil
}

func (d *Display) SetScroll(int16)                    {}
func (d *Display) SetRotation(drivers.Rotation) error { return nil }

func (d *Display) FillRect(c color.RGBA, r gui.Rect, _ gui.Layer) {
	_ = d.FillRectangle(r.X, r.Y, r.W, r.H, c)
}

// WriteText draws s one glyph cell per rune, scaled by size. A bg with zero
// alpha leaves the cell background untouched.
func (d *Display) WriteText(p gui.Point, s string, size gui.TextSize, fg, bg color.RGBA, _ gui.Layer) {
	if size == 0 {
		size = gui.TextSize1
	}
	k := int16(size)
	cw, ch := gui.GlyphWidth*k, gui.GlyphHeight*k
	sc := &scaled{base: d, k: k}

	x := p.X
	for _, r := range s {
		if bg.A != 0 {
			_ = d.FillRectangle(x, p.Y, cw, ch, bg)
		}
		sc.ox, sc.oy = x, p.Y
		tinyfont.DrawChar(sc, Font, 0, Baseline, r, fg)
		x += cw
	}
}

func (d *Display) ok() bool {
	return d.fb != nil && d.fb.Format() == hal.PixelFormatRGB565 && d.fb.Buffer() != nil
}

// scaled draws each glyph pixel as a k x k block relative to the cell origin.
type scaled struct {
	base   *Display
	k      int16
	ox, oy int16
}

func (s *scaled) Size() (x, y int16) { return s.base.Size() }
func (s *scaled) Display() error     { return nil }

func (s *scaled) SetPixel(x, y int16, c color.RGBA) {
	if s.k == 1 {
		s.base.SetPixel(s.ox+x, s.oy+y, c)
		return
	}
	_ = s.base.FillRectangle(s.ox+x*s.k, s.oy+y*s.k, s.k, s.k, c)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
