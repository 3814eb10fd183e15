package plog

import "fmt"

const (
	// SectorBytes is the erase unit of the log.
	SectorBytes = 0x10000

	SectorsPerChannel = 15
	ChannelBytes      = SectorsPerChannel * SectorBytes

	// SettingsAddr is the sector holding the channel settings records.
	SettingsAddr  = 0x001000
	SettingsBytes = 0x1000
)

// Range is a channel's reserved address range [Base, Base+Size).
type Range struct {
	Base uint32
	Size uint32
}

// End returns the first address past the range.
func (r Range) End() uint32 { return r.Base + r.Size }

// Contains reports whether addr is inside the range.
func (r Range) Contains(addr uint32) bool { return addr >= r.Base && addr < r.End() }

func (r Range) String() string {
	return fmt.Sprintf("%#06x-%#06x", r.Base, r.End())
}

// Sectors returns the start address of every sector in the range.
func (r Range) Sectors() []uint32 {
	n := (r.Size + SectorBytes - 1) / SectorBytes
	out := make([]uint32, 0, n)
	for i := uint32(0); i < n; i++ {
		out = append(out, r.Base+i*SectorBytes)
	}
	return out
}

// Channel data ranges in flash.
var (
	CAN1  = Range{Base: 0x010000, Size: ChannelBytes}
	CAN2  = Range{Base: 0x110000, Size: ChannelBytes}
	UART1 = Range{Base: 0x210000, Size: ChannelBytes}
	UART2 = Range{Base: 0x310000, Size: ChannelBytes}
	RS232 = Range{Base: 0x410000, Size: ChannelBytes}
	GPIO0 = Range{Base: 0x510000, Size: ChannelBytes}
	GPIO1 = Range{Base: 0x610000, Size: ChannelBytes}
	ADC   = Range{Base: 0x710000, Size: ChannelBytes}
	THERM = Range{Base: 0x810000, Size: ChannelBytes}
)

// FlashBytes is the smallest flash that holds the whole map.
const FlashBytes = 0x900000

var byName = map[string]Range{
	"can1":  CAN1,
	"can2":  CAN2,
	"uart1": UART1,
	"uart2": UART2,
	"rs232": RS232,
	"gpio0": GPIO0,
	"gpio1": GPIO1,
	"adc":   ADC,
	"therm": THERM,
}

// RangeFor returns the data range reserved for a channel name.
func RangeFor(name string) (Range, bool) {
	r, ok := byName[name]
	return r, ok
}
