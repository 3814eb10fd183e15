package window

import (
	"bytes"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"busscope/firmware/acq"
	"busscope/firmware/gui"
	"busscope/firmware/plog"
	"busscope/firmware/settings"
	"busscope/hal"
)

type canvas struct {
	fills int
	texts []string
}

func (c *canvas) FillRect(color.RGBA, gui.Rect, gui.Layer) { c.fills++ }

func (c *canvas) WriteText(_ gui.Point, s string, _ gui.TextSize, _, _ color.RGBA, _ gui.Layer) {
	c.texts = append(c.texts, s)
}

func (c *canvas) calls() int { return c.fills + len(c.texts) }

func (c *canvas) text() string { return strings.Join(c.texts, "") }

func (c *canvas) reset() {
	c.fills = 0
	c.texts = nil
}

type memReader struct {
	base uint32
	data []byte
}

func (m *memReader) ReadAt(dst []byte, addr uint32) (int, error) {
	return copy(dst, m.data[addr-m.base:]), nil
}

var testRange = plog.Range{Base: 0x1000, Size: 0x1000}

// newBox registers a visible text box of cols x rows glyph cells.
func newBox(t *testing.T, cv *canvas, cols, rows int16) *gui.Engine {
	t.Helper()
	e := gui.NewEngine(cv)
	tb := gui.TextBox{
		Object:   gui.Object{ID: gui.TextBoxOffset, Rect: gui.Rect{W: cols * gui.GlyphWidth, H: rows * gui.GlyphHeight}, DisplayState: gui.NotHidden},
		TextSize: gui.TextSize1,
	}
	require.NoError(t, e.AddTextBox(&tb))
	cv.reset()
	return e
}

func channelAt(n uint32, f settings.Format) settings.Channel {
	return settings.Channel{WriteCursor: testRange.Base + n, BytesSaved: n, Format: f}
}

func TestRefreshSkippedWhenNothingChanged(t *testing.T) {
	cv := &canvas{}
	e := newBox(t, cv, 10, 2)
	log := &memReader{base: testRange.Base, data: []byte("hello world")}
	w := New(e, gui.TextBoxOffset, log, testRange)

	require.True(t, w.NeedsRefresh(false, 0))
	drew, err := w.Refresh(false, channelAt(5, settings.FormatASCII))
	require.NoError(t, err)
	require.True(t, drew)
	require.Equal(t, "hello", cv.text())

	cv.reset()
	require.False(t, w.NeedsRefresh(false, 5))
	drew, err = w.Refresh(false, channelAt(5, settings.FormatASCII))
	require.NoError(t, err)
	require.False(t, drew)
	require.Zero(t, cv.calls())

	drew, err = w.Refresh(true, channelAt(5, settings.FormatASCII))
	require.NoError(t, err)
	require.True(t, drew)
	require.Equal(t, "hello", cv.text())
}

func TestFollowAppendsOnlyNewBytes(t *testing.T) {
	cv := &canvas{}
	e := newBox(t, cv, 10, 2)
	log := &memReader{base: testRange.Base, data: []byte("hello world")}
	w := New(e, gui.TextBoxOffset, log, testRange)

	_, err := w.Refresh(false, channelAt(5, settings.FormatASCII))
	require.NoError(t, err)

	cv.reset()
	drew, err := w.Refresh(false, channelAt(11, settings.FormatASCII))
	require.NoError(t, err)
	require.True(t, drew)
	require.Equal(t, " world", cv.text())
	first, last := w.Shown()
	require.Equal(t, uint32(0), first)
	require.Equal(t, uint32(11), last)

	// Hex fits 6 bytes in 20 cells; the switch repaints the newest screen.
	cv.reset()
	_, err = w.Refresh(false, channelAt(11, settings.FormatHex))
	require.NoError(t, err)
	require.Equal(t, "20 77 6F 72 6C 64 ", cv.text())
	first, last = w.Shown()
	require.Equal(t, uint32(5), first)
	require.Equal(t, uint32(11), last)
}

func TestPagingClampsAndReturnsToFollow(t *testing.T) {
	cv := &canvas{}
	e := newBox(t, cv, 10, 2)
	data := bytes.Repeat([]byte("0123456789"), 10)
	w := New(e, gui.TextBoxOffset, &memReader{base: testRange.Base, data: data}, testRange)
	ch := channelAt(100, settings.FormatASCII)
	cursor := ch.WriteCursor

	_, err := w.Refresh(false, ch)
	require.NoError(t, err)
	first, last := w.Shown()
	require.Equal(t, [2]uint32{80, 100}, [2]uint32{first, last})

	w.PageBack(cursor)
	require.False(t, w.Following())
	require.True(t, w.NeedsRefresh(false, ch.BytesSaved))
	cv.reset()
	_, err = w.Refresh(false, ch)
	require.NoError(t, err)
	require.Equal(t, string(data[60:80]), cv.text())

	for range 5 {
		w.PageBack(cursor)
	}
	first, last = w.Shown()
	require.Equal(t, [2]uint32{0, 20}, [2]uint32{first, last})
	_, err = w.Refresh(false, ch)
	require.NoError(t, err)
	w.PageBack(cursor)
	require.False(t, w.NeedsRefresh(false, ch.BytesSaved))

	for want := uint32(20); want < 80; want += 20 {
		w.PageForward(cursor)
		first, _ = w.Shown()
		require.Equal(t, want, first)
		require.False(t, w.Following())
	}
	w.PageForward(cursor)
	require.True(t, w.Following())
	first, last = w.Shown()
	require.Equal(t, [2]uint32{80, 100}, [2]uint32{first, last})

	w.Reset()
	require.True(t, w.NeedsRefresh(false, ch.BytesSaved))
}

// logSink drains into the log the way a channel does, under the settings lock.
type logSink struct {
	log   *plog.Log
	store *settings.Store
}

type noClock struct{}

func (noClock) NowTick() uint64                  { return 0 }
func (noClock) TickChan(uint64) <-chan struct{} { return nil }

func (s *logSink) Drain(p []byte) error {
	return s.store.Update(noClock{}, 0, func(c *settings.Channel) error {
		next, err := s.log.Append(c.WriteCursor, p)
		c.BytesSaved += next - c.WriteCursor
		c.WriteCursor = next
		return err
	})
}

func TestThreeHundredBytesEndToEnd(t *testing.T) {
	def, ok := settings.Lookup("uart1")
	require.True(t, ok)

	flash := hal.NewMemFlash(def.Range.End(), 4096)
	log := plog.New(plog.NewFlashDriver(flash), def.Range)
	store := settings.NewStore(def, settings.Defaults(def))

	p := acq.NewPingPong(def.Name, &logSink{log: log, store: store})
	sched := acq.NewScheduler(acq.DefaultFlushDelay)
	sched.Add(p)

	in := bytes.Repeat([]byte{'A'}, 300)
	for _, b := range in {
		require.True(t, p.Put(b))
	}
	require.NoError(t, sched.Tick(0))
	require.NoError(t, sched.Tick(acq.DefaultFlushDelay))

	snap := store.Snapshot()
	require.Equal(t, uint32(300), snap.BytesSaved)
	require.Equal(t, def.Range.Base+300, snap.WriteCursor)
	require.Equal(t, in, flash.Bytes()[def.Range.Base:def.Range.Base+300])
	require.Equal(t, byte(0xFF), flash.Bytes()[def.Range.Base+300])

	cv := &canvas{}
	e := newBox(t, cv, 81, 25)
	w := New(e, gui.TextBoxOffset, log, def.Range)
	drew, err := w.Refresh(false, snap)
	require.NoError(t, err)
	require.True(t, drew)
	require.Equal(t, string(in), cv.text())
	first, last := w.Shown()
	require.Equal(t, uint32(0), first)
	require.Equal(t, uint32(300), last)

	cv.reset()
	drew, err = w.Refresh(false, store.Snapshot())
	require.NoError(t, err)
	require.False(t, drew)
	require.Zero(t, cv.calls())
}
