//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	hostPortReadTimeout  = 50 * time.Millisecond
	hostLoopbackCapacity = 4096
)

// hostLines resolves channel names to serial ports or in-process loopback lines.
type hostLines struct {
	mu   sync.Mutex
	opts map[string]LineOptions
	open map[string]Line
	log  *slog.Logger
}

func newHostLines(opts map[string]LineOptions, log *slog.Logger) *hostLines {
	return &hostLines{
		opts: opts,
		open: make(map[string]Line),
		log:  log,
	}
}

func (l *hostLines) Open(name string) (Line, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ln, ok := l.open[name]; ok {
		return ln, nil
	}
	o, ok := l.opts[name]
	if !ok {
		return nil, fmt.Errorf("line %s: %w", name, ErrNotImplemented)
	}

	var ln Line
	switch {
	case o.Port != "":
		ln = &portLine{name: o.Port, log: l.log}
	case o.Loopback:
		ln = newLoopbackLine()
	default:
		return nil, fmt.Errorf("line %s: %w", name, ErrNotImplemented)
	}
	l.open[name] = ln
	return ln, nil
}

func (l *hostLines) closeAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for name, ln := range l.open {
		if err := ln.Close(); err != nil {
			l.log.Warn("line close failed", slog.String("line", name), slog.String("error", err.Error()))
		}
	}
}

// loopbackLine echoes every written byte back as received data, like a TX-RX jumper.
// Bytes written while the receive side is full are dropped, as a UART FIFO would.
type loopbackLine struct {
	rx chan byte
}

func newLoopbackLine() *loopbackLine {
	return &loopbackLine{rx: make(chan byte, hostLoopbackCapacity)}
}

func (l *loopbackLine) Configure(LineConfig) error { return nil }

func (l *loopbackLine) ReadBlocking(ctx context.Context, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	select {
	case b := <-l.rx:
		p[0] = b
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	n := 1
	for n < len(p) {
		select {
		case b := <-l.rx:
			p[n] = b
			n++
		default:
			return n, nil
		}
	}
	return n, nil
}

func (l *loopbackLine) Write(p []byte) (int, error) {
	for _, b := range p {
		select {
		case l.rx <- b:
		default:
		}
	}
	return len(p), nil
}

// Close keeps the line usable: a jumper cannot be unplugged from software.
func (l *loopbackLine) Close() error { return nil }

// portLine is a real serial device opened through go.bug.st/serial.
type portLine struct {
	mu   sync.Mutex
	name string
	port serial.Port
	log  *slog.Logger
}

func serialMode(cfg LineConfig) *serial.Mode {
	m := &serial.Mode{
		BaudRate: int(cfg.BaudRate),
		DataBits: 8,
		StopBits: serial.OneStopBit,
		Parity:   serial.NoParity,
	}
	switch cfg.Parity {
	case ParityOdd:
		m.Parity = serial.OddParity
	case ParityEven:
		m.Parity = serial.EvenParity
	}
	return m
}

func (l *portLine) Configure(cfg LineConfig) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	mode := serialMode(cfg)
	if l.port != nil {
		if err := l.port.SetMode(mode); err != nil {
			return fmt.Errorf("serial %s set mode: %w", l.name, err)
		}
		return nil
	}
	p, err := serial.Open(l.name, mode)
	if err != nil {
		return fmt.Errorf("serial %s open: %w", l.name, err)
	}
	if err := p.SetReadTimeout(hostPortReadTimeout); err != nil {
		_ = p.Close()
		return fmt.Errorf("serial %s read timeout: %w", l.name, err)
	}
	l.port = p
	l.log.Info("serial port opened", slog.String("port", l.name), slog.Int("baud", mode.BaudRate))
	return nil
}

func (l *portLine) current() serial.Port {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.port
}

func (l *portLine) ReadBlocking(ctx context.Context, p []byte) (int, error) {
	for {
		port := l.current()
		if port == nil {
			return 0, errors.New("serial " + l.name + ": not open")
		}
		n, err := port.Read(p)
		if err != nil {
			return n, fmt.Errorf("serial %s read: %w", l.name, err)
		}
		if n > 0 {
			return n, nil
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
	}
}

func (l *portLine) Write(p []byte) (int, error) {
	port := l.current()
	if port == nil {
		return 0, errors.New("serial " + l.name + ": not open")
	}
	return port.Write(p)
}

func (l *portLine) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.port == nil {
		return nil
	}
	err := l.port.Close()
	l.port = nil
	return err
}
