package hal

import (
	"context"
	"errors"
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// LED is a minimal output pin abstraction.
//
// The firmware drives it as the acquisition overrun indicator.
type LED interface {
	High()
	Low()
}

var ErrNotImplemented = errors.New("not implemented")

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// TouchEvent is the kind of a touch sample.
type TouchEvent uint8

const (
	TouchDown TouchEvent = iota + 1
	TouchUp
)

func (e TouchEvent) String() string {
	switch e {
	case TouchDown:
		return "down"
	case TouchUp:
		return "up"
	default:
		return "unknown"
	}
}

// TouchSample is one reading from the touch controller in screen coordinates.
//
// While a finger rests on the panel the source keeps emitting TouchDown samples;
// lifting it emits a single TouchUp at the last known position.
type TouchSample struct {
	Event TouchEvent
	X     int16
	Y     int16
}

// Touch provides touch samples (best-effort on each platform).
type Touch interface {
	Samples() <-chan TouchSample
}

// Input provides access to input devices (if available).
type Input interface {
	Touch() Touch
}

// Flash provides raw access to non-volatile memory.
//
// It is intentionally low-level: addresses and erase blocks only.
type Flash interface {
	SizeBytes() uint32
	EraseBlockBytes() uint32
	ReadAt(p []byte, off uint32) (int, error)
	WriteAt(p []byte, off uint32) (int, error)
	Erase(off, size uint32) error
}

// Time provides a base tick stream.
//
// The tick duration is platform-defined; higher-level timers live in userland.
type Time interface {
	Ticks() <-chan uint64
}

// Parity selects the UART parity bit.
type Parity uint8

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

// LineConfig is the electrical configuration of a UART-like line.
type LineConfig struct {
	BaudRate uint32
	Parity   Parity
}

// Line is a byte-oriented serial line.
//
// ReadBlocking returns as soon as at least one byte is available or ctx is done.
type Line interface {
	Configure(cfg LineConfig) error
	ReadBlocking(ctx context.Context, p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// Lines opens serial lines by channel name ("uart1", "uart2", "rs232").
//
// Open returns ErrNotImplemented when the platform has no backing peripheral.
type Lines interface {
	Open(name string) (Line, error)
}

// CANFrame is one classic CAN data frame.
type CANFrame struct {
	ID       uint32
	Extended bool
	DLC      uint8
	Data     [8]byte
}

// CANConfig is the configuration of a CAN controller.
type CANConfig struct {
	BitRate     uint32
	Termination bool
	Extended    bool
}

// CANBus is an opened CAN controller.
type CANBus interface {
	Configure(cfg CANConfig) error
	ReadFrame(ctx context.Context) (CANFrame, error)
	Close() error
}

// CAN opens CAN controllers by channel name ("can1", "can2").
type CAN interface {
	Open(name string) (CANBus, error)
}

// HAL provides the only contact point between the OS and the outside world.
type HAL interface {
	Logger() Logger
	LED() LED
	Display() Display
	Input() Input
	Flash() Flash
	Time() Time
	Lines() Lines
	CAN() CAN
}
