package fbcanvas

import (
	"encoding/binary"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"busscope/firmware/gui"
	"busscope/hal"
)

type memFB struct {
	w, h     int
	buf      []byte
	presents int
}

func newMemFB(w, h int) *memFB { return &memFB{w: w, h: h, buf: make([]byte, w*h*2)} }

func (f *memFB) Width() int              { return f.w }
func (f *memFB) Height() int             { return f.h }
func (f *memFB) Format() hal.PixelFormat { return hal.PixelFormatRGB565 }
func (f *memFB) StrideBytes() int        { return f.w * 2 }
func (f *memFB) Buffer() []byte          { return f.buf }
func (f *memFB) ClearRGB(r, g, b uint8)  {}

func (f *memFB) Present() error {
	f.presents++
	return nil
}

func (f *memFB) at(x, y int) uint16 { return binary.LittleEndian.Uint16(f.buf[(y*f.w+x)*2:]) }

var (
	white = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	red   = color.RGBA{R: 0xFF, A: 0xFF}
	blue  = color.RGBA{B: 0xFF, A: 0xFF}
)

func count(f *memFB, x0, y0, x1, y1 int, px uint16) int {
	n := 0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if f.at(x, y) == px {
				n++
			}
		}
	}
	return n
}

func TestFillRectClipsToFramebuffer(t *testing.T) {
	fb := newMemFB(20, 10)
	d := New(fb)

	d.FillRect(red, gui.Rect{X: 15, Y: 8, W: 10, H: 10}, gui.Layer0)

	px := hal.RGB565Color(red)
	require.Equal(t, px, fb.at(19, 9))
	require.Equal(t, px, fb.at(15, 8))
	require.Zero(t, fb.at(14, 8))
	require.Equal(t, 5*2, count(fb, 0, 0, 20, 10, px))
}

func TestWriteTextFillsCellBackground(t *testing.T) {
	fb := newMemFB(40, 20)
	d := New(fb)

	d.WriteText(gui.Point{X: 0, Y: 0}, "AB", gui.TextSize1, white, blue, gui.Layer0)

	fg, bg := hal.RGB565Color(white), hal.RGB565Color(blue)
	cells := 2 * gui.GlyphWidth * gui.GlyphHeight
	inCells := count(fb, 0, 0, 2*gui.GlyphWidth, gui.GlyphHeight, fg) +
		count(fb, 0, 0, 2*gui.GlyphWidth, gui.GlyphHeight, bg)
	require.Equal(t, cells, inCells)
	require.NotZero(t, count(fb, 0, 0, gui.GlyphWidth, gui.GlyphHeight, fg), "glyph A drawn")
	require.Zero(t, count(fb, 2*gui.GlyphWidth, 0, 40, 20, bg), "nothing past the last cell")
}

func TestWriteTextTransparentKeepsBackground(t *testing.T) {
	fb := newMemFB(20, 20)
	d := New(fb)
	d.FillRect(red, gui.Rect{W: 20, H: 20}, gui.Layer0)

	d.WriteText(gui.Point{}, "-", gui.TextSize1, white, gui.Transparent, gui.Layer0)

	fg := hal.RGB565Color(white)
	lit := count(fb, 0, 0, 20, 20, fg)
	require.NotZero(t, lit)
	require.Equal(t, 400-lit, count(fb, 0, 0, 20, 20, hal.RGB565Color(red)))
}

func TestWriteTextScalesGlyphs(t *testing.T) {
	small, big := newMemFB(40, 40), newMemFB(40, 40)

	New(small).WriteText(gui.Point{}, "H", gui.TextSize1, white, gui.Transparent, gui.Layer0)
	New(big).WriteText(gui.Point{}, "H", gui.TextSize2, white, gui.Transparent, gui.Layer0)

	fg := hal.RGB565Color(white)
	n := count(small, 0, 0, 40, 40, fg)
	require.NotZero(t, n)
	require.Equal(t, 4*n, count(big, 0, 0, 40, 40, fg))
	require.Zero(t, count(big, 2*gui.GlyphWidth, 0, 40, 40, fg))
}

func TestDisplayPresents(t *testing.T) {
	fb := newMemFB(4, 4)
	d := New(fb)
	require.NoError(t, d.Display())
	require.Equal(t, 1, fb.presents)

	x, y := d.Size()
	require.Equal(t, int16(4), x)
	require.Equal(t, int16(4), y)
}
