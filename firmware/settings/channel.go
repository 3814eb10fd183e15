// Package settings holds per-channel configuration, the bounded-wait lock
// that guards it, and its persisted record format.
package settings

import (
	"fmt"
	"slices"

	"busscope/firmware/plog"
	"busscope/hal"
)

// Kind separates UART-like from bus-like channels.
type Kind uint8

const (
	KindUART Kind = iota + 1
	KindCAN
)

func (k Kind) String() string {
	switch k {
	case KindUART:
		return "uart"
	case KindCAN:
		return "can"
	default:
		return "unknown"
	}
}

type Connection uint8

const (
	Disconnected Connection = iota
	Connected
)

func (c Connection) String() string {
	if c == Connected {
		return "connected"
	}
	return "disconnected"
}

type Parity uint8

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "None"
	case ParityOdd:
		return "Odd"
	case ParityEven:
		return "Even"
	default:
		return "?"
	}
}

// HAL maps the parity onto the line configuration.
func (p Parity) HAL() hal.Parity {
	switch p {
	case ParityOdd:
		return hal.ParityOdd
	case ParityEven:
		return hal.ParityEven
	default:
		return hal.ParityNone
	}
}

type Power uint8

const (
	Power5V Power = iota
	Power3V3
)

func (p Power) String() string {
	if p == Power3V3 {
		return "3.3 V"
	}
	return "5 V"
}

type Mode uint8

const (
	ModeRX Mode = iota
	ModeTX
	ModeTXRX
	// ModeDebugTX receives like ModeTXRX and transmits a debug line periodically.
	ModeDebugTX
)

func (m Mode) String() string {
	switch m {
	case ModeRX:
		return "RX"
	case ModeTX:
		return "TX"
	case ModeTXRX:
		return "TX & RX"
	case ModeDebugTX:
		return "Debug TX"
	default:
		return "?"
	}
}

// Receives reports whether the line should be read in this mode.
func (m Mode) Receives() bool { return m != ModeTX }

// Format selects how the log is rendered.
type Format uint8

const (
	FormatASCII Format = iota
	FormatHex
)

func (f Format) String() string {
	if f == FormatHex {
		return "Hex"
	}
	return "ASCII"
}

type Identifier uint8

const (
	IDStandard Identifier = iota
	IDExtended
)

func (i Identifier) String() string {
	if i == IDExtended {
		return "Extended"
	}
	return "Standard"
}

var (
	BaudRates = []uint32{4800, 7200, 9600, 14400, 19200, 28800, 38400, 57600, 115200, 230400}
	BitRates  = []uint32{10_000, 20_000, 50_000, 100_000, 125_000, 250_000, 500_000, 1_000_000}
)

const (
	DefaultBaudRate = 115200
	DefaultBitRate  = 125_000
)

// Def is the fixed description of a channel.
type Def struct {
	Name  string
	Label string
	Kind  Kind
	// Slot is the record index in the settings sector.
	Slot  int
	Range plog.Range
}

// Defs lists every channel the instrument exposes, in top bar order.
var Defs = []Def{
	{Name: "can1", Label: "CAN1", Kind: KindCAN, Slot: 0, Range: plog.CAN1},
	{Name: "can2", Label: "CAN2", Kind: KindCAN, Slot: 1, Range: plog.CAN2},
	{Name: "uart1", Label: "UART1", Kind: KindUART, Slot: 2, Range: plog.UART1},
	{Name: "uart2", Label: "UART2", Kind: KindUART, Slot: 3, Range: plog.UART2},
	{Name: "rs232", Label: "RS232", Kind: KindUART, Slot: 4, Range: plog.RS232},
}

// Lookup returns the definition for a channel name.
func Lookup(name string) (Def, bool) {
	i := slices.IndexFunc(Defs, func(d Def) bool { return d.Name == name })
	if i < 0 {
		return Def{}, false
	}
	return Defs[i], true
}

// Channel is the mutable configuration and log bookkeeping of one channel.
type Channel struct {
	Connection Connection
	Format     Format

	// UART.
	BaudRate uint32
	Parity   Parity
	Power    Power
	Mode     Mode

	// CAN.
	BitRate     uint32
	Termination bool
	Identifier  Identifier

	// WriteCursor is the next log address to append at.
	WriteCursor uint32
	// BytesSaved counts bytes appended since the last clear.
	BytesSaved uint32
}

// Defaults returns the power-on configuration for d.
func Defaults(d Def) Channel {
	ch := Channel{
		Connection:  Disconnected,
		Format:      FormatASCII,
		WriteCursor: d.Range.Base,
	}
	switch d.Kind {
	case KindCAN:
		ch.BitRate = DefaultBitRate
		ch.Format = FormatHex
	default:
		ch.BaudRate = DefaultBaudRate
		ch.Parity = ParityNone
		ch.Power = Power5V
		ch.Mode = ModeTXRX
	}
	return ch
}

// Validate checks every field against its legal values for d.
func (c Channel) Validate(d Def) error {
	switch {
	case c.Connection > Connected:
		return fmt.Errorf("connection %d", c.Connection)
	case c.Format > FormatHex:
		return fmt.Errorf("format %d", c.Format)
	case c.WriteCursor < d.Range.Base || c.WriteCursor > d.Range.End():
		return fmt.Errorf("write cursor %#x outside %s", c.WriteCursor, d.Range)
	case c.BytesSaved != c.WriteCursor-d.Range.Base:
		return fmt.Errorf("bytes saved %d does not match cursor", c.BytesSaved)
	}
	switch d.Kind {
	case KindCAN:
		if !slices.Contains(BitRates, c.BitRate) {
			return fmt.Errorf("bit rate %d", c.BitRate)
		}
		if c.Identifier > IDExtended {
			return fmt.Errorf("identifier %d", c.Identifier)
		}
	case KindUART:
		if !slices.Contains(BaudRates, c.BaudRate) {
			return fmt.Errorf("baud rate %d", c.BaudRate)
		}
		if c.Parity > ParityEven {
			return fmt.Errorf("parity %d", c.Parity)
		}
		if c.Power > Power3V3 {
			return fmt.Errorf("power %d", c.Power)
		}
		if c.Mode > ModeDebugTX {
			return fmt.Errorf("mode %d", c.Mode)
		}
	default:
		return fmt.Errorf("kind %d", d.Kind)
	}
	return nil
}

// LineConfig returns the electrical line settings.
func (c Channel) LineConfig() hal.LineConfig {
	return hal.LineConfig{BaudRate: c.BaudRate, Parity: c.Parity.HAL()}
}

// CANConfig returns the controller settings.
func (c Channel) CANConfig() hal.CANConfig {
	return hal.CANConfig{BitRate: c.BitRate, Termination: c.Termination, Extended: c.Identifier == IDExtended}
}
