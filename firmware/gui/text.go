package gui

import "strconv"

const hexDigits = "0123456789ABCDEF"

// textCursor walks a text box in glyph cells, wrapping to the next row at the
// right edge and back to the top row below the last one.
type textCursor struct {
	e   *Engine
	t   *TextBox
	cw  int16
	ch  int16
	run []byte
	rx  int16
	ry  int16
}

func newTextCursor(e *Engine, t *TextBox) *textCursor {
	size := t.TextSize
	if size == 0 {
		size = TextSize1
	}
	return &textCursor{
		e:  e,
		t:  t,
		cw: GlyphWidth * int16(size),
		ch: GlyphHeight * int16(size),
	}
}

func (c *textCursor) flush() {
	if len(c.run) == 0 {
		return
	}
	t := c.t
	c.e.text(Point{X: t.Rect.X + c.rx, Y: t.Rect.Y + c.ry}, string(c.run), t.TextSize, t.TextColor, t.Background, t.Layer)
	c.run = c.run[:0]
}

// newline moves to the start of the next row and clears it so wrapped text
// overwrites cleanly.
func (c *textCursor) newline() {
	c.flush()
	t := c.t
	t.WriteX = 0
	t.WriteY += c.ch
	if t.WriteY+c.ch > t.Rect.H {
		t.WriteY = 0
	}
	c.e.fill(t.Background, Rect{X: t.Rect.X, Y: t.Rect.Y + t.WriteY, W: t.Rect.W, H: c.ch}, t.Layer)
}

func (c *textCursor) put(b byte) {
	t := c.t
	if b == '\n' {
		c.newline()
		return
	}
	if b == '\r' {
		return
	}
	if t.WriteX+c.cw > t.Rect.W {
		c.newline()
	}
	if len(c.run) == 0 {
		c.rx, c.ry = t.WriteX, t.WriteY
	}
	c.run = append(c.run, b)
	t.WriteX += c.cw
}

func printable(b byte) byte {
	if b < 0x20 || b > 0x7E {
		return '.'
	}
	return b
}

func (e *Engine) writableTextBox(op string, id ID) (*TextBox, error) {
	i, ok := textBoxIndex(id)
	if !ok {
		return nil, invalidID(op, id)
	}
	t := &e.textBoxes[i]
	if t.Layer != e.activeLayer {
		return nil, inactiveLayer(op, id, t.Layer)
	}
	return t, nil
}

// WriteString writes s at the box's write cursor. '\n' starts a new row.
func (e *Engine) WriteString(id ID, s string) error {
	t, err := e.writableTextBox("gui.WriteString", id)
	if err != nil {
		return err
	}
	saveX, saveY := t.WriteX, t.WriteY
	c := newTextCursor(e, t)
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			c.put('\n')
			continue
		}
		c.put(printable(s[i]))
	}
	c.flush()
	if t.StaticText != "" {
		t.WriteX, t.WriteY = saveX, saveY
	}
	return nil
}

// WriteBuffer writes raw bytes at the write cursor in the given format. ASCII
// keeps '\n' as a row break and shows other control bytes as '.'; hex writes
// "41 " per byte.
func (e *Engine) WriteBuffer(id ID, p []byte, f WriteFormat) error {
	t, err := e.writableTextBox("gui.WriteBuffer", id)
	if err != nil {
		return err
	}
	c := newTextCursor(e, t)
	for _, b := range p {
		switch f {
		case FormatHexWithSpaces:
			c.put(hexDigits[b>>4])
			c.put(hexDigits[b&0x0F])
			c.put(' ')
		default:
			if b == '\n' || b == '\r' {
				c.put(b)
				continue
			}
			c.put(printable(b))
		}
	}
	c.flush()
	return nil
}

// WriteNumber writes n in decimal.
func (e *Engine) WriteNumber(id ID, n int64) error {
	return e.WriteString(id, strconv.FormatInt(n, 10))
}

// SetStaticText replaces the static text, centers it and redraws the box.
func (e *Engine) SetStaticText(id ID, s string) error {
	i, ok := textBoxIndex(id)
	if !ok {
		return invalidID("gui.SetStaticText", id)
	}
	t := &e.textBoxes[i]
	t.StaticText = s
	t.measure()
	if t.Layer != e.activeLayer {
		return nil
	}
	return e.DrawTextBox(id)
}

// SetWritePosition moves the write cursor, relative to the box origin.
func (e *Engine) SetWritePosition(id ID, x, y int16) error {
	i, ok := textBoxIndex(id)
	if !ok {
		return invalidID("gui.SetWritePosition", id)
	}
	e.textBoxes[i].WriteX, e.textBoxes[i].WriteY = x, y
	return nil
}

// SetYWritePositionToCenter centers one text row vertically.
func (e *Engine) SetYWritePositionToCenter(id ID) error {
	i, ok := textBoxIndex(id)
	if !ok {
		return invalidID("gui.SetYWritePositionToCenter", id)
	}
	t := &e.textBoxes[i]
	size := t.TextSize
	if size == 0 {
		size = TextSize1
	}
	t.WriteY = (t.Rect.H-GlyphHeight*int16(size))/2 - 2
	return nil
}

// WritePosition returns the write cursor.
func (e *Engine) WritePosition(id ID) (x, y int16, err error) {
	i, ok := textBoxIndex(id)
	if !ok {
		return 0, 0, invalidID("gui.WritePosition", id)
	}
	return e.textBoxes[i].WriteX, e.textBoxes[i].WriteY, nil
}

// ClearTextBox redraws the box without its dynamic text.
func (e *Engine) ClearTextBox(id ID) error {
	if _, err := e.writableTextBox("gui.ClearTextBox", id); err != nil {
		return err
	}
	return e.DrawTextBox(id)
}

// ClearAndResetTextBox clears the box and moves the write cursor to the origin.
func (e *Engine) ClearAndResetTextBox(id ID) error {
	if err := e.SetWritePosition(id, 0, 0); err != nil {
		return err
	}
	return e.ClearTextBox(id)
}

// TextGrid returns how many glyph columns and rows fit in the box.
func (e *Engine) TextGrid(id ID) (cols, rows int, err error) {
	i, ok := textBoxIndex(id)
	if !ok {
		return 0, 0, invalidID("gui.TextGrid", id)
	}
	t := &e.textBoxes[i]
	size := int16(t.TextSize)
	if size == 0 {
		size = 1
	}
	return int(t.Rect.W / (GlyphWidth * size)), int(t.Rect.H / (GlyphHeight * size)), nil
}
