//go:build tinygo && baremetal && rp2350

package hal

import "machine"

type boardHAL struct {
	logger *serialLogger
	led    *pinLED
	fb     Framebuffer
	touch  Touch
	t      *tinyGoTime
	flash  Flash
	lines  *boardLines
}

// New returns the RP2350 instrument board HAL.
//
// Display: ILI9488 480x320 on SPI1. Touch: XPT2046. Channels: UART0 (uart1), UART1 (uart2).
// Logs go to the USB console.
func New() HAL {
	ledPin := machine.LED
	ledPin.Configure(machine.PinConfig{Mode: machine.PinOutput})

	logger := &serialLogger{out: machine.Serial}

	var fb Framebuffer
	if disp, err := newBoardFramebuffer(); err == nil {
		fb = disp
	} else {
		logger.WriteLineString("display init failed: " + err.Error())
		fb = &stubFramebuffer{w: boardWidth, h: boardHeight, format: PixelFormatRGB565}
	}

	return &boardHAL{
		logger: logger,
		led:    &pinLED{pin: ledPin},
		fb:     fb,
		touch:  newBoardTouch(boardWidth, boardHeight),
		t:      newTinyGoTime(),
		flash:  newRP2Flash(),
		lines:  newBoardLines(),
	}
}

func (h *boardHAL) Logger() Logger   { return h.logger }
func (h *boardHAL) LED() LED         { return h.led }
func (h *boardHAL) Display() Display { return tinyGoDisplay{fb: h.fb} }
func (h *boardHAL) Input() Input     { return tinyGoInput{touch: h.touch} }
func (h *boardHAL) Flash() Flash     { return h.flash }
func (h *boardHAL) Time() Time       { return h.t }
func (h *boardHAL) Lines() Lines     { return h.lines }
func (h *boardHAL) CAN() CAN         { return nullCAN{} }
