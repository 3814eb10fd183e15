//go:build tinygo && baremetal && rp2350

package hal

import (
	"context"
	"fmt"
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// boardLines maps uart1/uart2 onto the two PL011 UARTs driven by uartx (IRQ-fed ring).
// The board has no RS232 transceiver, so "rs232" reports ErrNotImplemented.
type boardLines struct {
	open map[string]*boardLine
}

func newBoardLines() *boardLines {
	return &boardLines{open: make(map[string]*boardLine)}
}

func (l *boardLines) Open(name string) (Line, error) {
	if ln, ok := l.open[name]; ok {
		return ln, nil
	}
	var ln *boardLine
	switch name {
	case "uart1":
		ln = &boardLine{u: uartx.UART0, tx: machine.GP0, rx: machine.GP1}
	case "uart2":
		ln = &boardLine{u: uartx.UART1, tx: machine.GP4, rx: machine.GP5}
	default:
		return nil, fmt.Errorf("line %s: %w", name, ErrNotImplemented)
	}
	l.open[name] = ln
	return ln, nil
}

type boardLine struct {
	u          *uartx.UART
	tx, rx     machine.Pin
	configured bool
}

func (l *boardLine) Configure(cfg LineConfig) error {
	if !l.configured {
		if err := l.u.Configure(uartx.UARTConfig{BaudRate: cfg.BaudRate, TX: l.tx, RX: l.rx}); err != nil {
			return err
		}
		l.configured = true
	} else {
		l.u.SetBaudRate(cfg.BaudRate)
	}
	par := uartx.ParityNone
	switch cfg.Parity {
	case ParityOdd:
		par = uartx.ParityOdd
	case ParityEven:
		par = uartx.ParityEven
	}
	return l.u.SetFormat(8, 1, par)
}

func (l *boardLine) ReadBlocking(ctx context.Context, p []byte) (int, error) {
	return l.u.RecvSomeContext(ctx, p)
}

func (l *boardLine) Write(p []byte) (int, error) { return l.u.Write(p) }

// Close leaves the peripheral configured; the reader is stopped through its context.
func (l *boardLine) Close() error { return nil }
