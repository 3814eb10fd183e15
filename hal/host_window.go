//go:build !tinygo && cgo

package hal

import (
	"image"

	"busscope/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
)

// RunWindow starts a desktop window that displays the framebuffer and forwards the
// mouse (or a real touchscreen) as touch samples. It blocks until the window closes.
func RunWindow(opts HostOptions, newApp func(HAL) func() error) error {
	h := newHostHAL(opts)
	defer h.close()
	step := newApp(h)

	g := &hostGame{h: h, step: step}
	ebiten.SetWindowTitle("busscope (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(h.fb.width, h.fb.height)
	ebiten.SetTPS(60)
	return ebiten.RunGame(g)
}

type hostGame struct {
	h         *hostHAL
	img       *image.RGBA
	fbImg     *ebiten.Image
	scratch   []byte
	lastFrame uint64
	touchIDs  []ebiten.TouchID
	step      func() error
}

func (g *hostGame) Update() error {
	g.pollPointer()
	g.h.t.step(1)
	if g.step != nil {
		if err := g.step(); err != nil {
			return err
		}
	}
	return nil
}

func (g *hostGame) pollPointer() {
	g.touchIDs = ebiten.AppendTouchIDs(g.touchIDs[:0])
	if len(g.touchIDs) > 0 {
		x, y := ebiten.TouchPosition(g.touchIDs[0])
		g.h.touch.pointer(true, x, y)
		return
	}
	x, y := ebiten.CursorPosition()
	g.h.touch.pointer(ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft), x, y)
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	fb := g.h.fb
	if g.img == nil || g.img.Bounds().Dx() != fb.width || g.img.Bounds().Dy() != fb.height {
		g.img = image.NewRGBA(image.Rect(0, 0, fb.width, fb.height))
		g.scratch = make([]byte, len(fb.buf))
		if g.fbImg != nil {
			g.fbImg.Deallocate()
		}
		g.fbImg = ebiten.NewImage(fb.width, fb.height)
		g.lastFrame = 0
	}

	if frame := fb.presentedFrame(); frame != g.lastFrame {
		g.lastFrame = fb.snapshotRGB565(g.scratch)

		src := g.scratch
		dst := g.img.Pix
		for i := 0; i+1 < len(src) && i/2*4+3 < len(dst); i += 2 {
			r, gg, b := rgb888From565(uint16(src[i]) | uint16(src[i+1])<<8)
			j := (i / 2) * 4
			dst[j+0] = r
			dst[j+1] = gg
			dst[j+2] = b
			dst[j+3] = 0xFF
		}
		g.fbImg.WritePixels(g.img.Pix)
	}
	screen.DrawImage(g.fbImg, nil)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.h.fb.width, g.h.fb.height
}
