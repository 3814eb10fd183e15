package plog

import (
	"fmt"
	"time"

	"busscope/hal"
	"busscope/internal/errcode"
)

// Driver is the storage primitive the log is built on. It behaves as an
// addressed byte array where a byte can be written once per erase.
type Driver interface {
	// Read fills dst starting at addr. timeout bounds drivers that transfer
	// asynchronously; zero means no bound.
	Read(dst []byte, addr uint32, timeout time.Duration) error
	WriteByte(addr uint32, b byte) error
	// EraseSector erases the SectorBytes sector containing addr.
	EraseSector(addr uint32) error
	IsSectorClean(addr uint32) (bool, error)
}

// FlashDriver adapts a hal.Flash with NOR semantics.
type FlashDriver struct {
	f hal.Flash
}

func NewFlashDriver(f hal.Flash) *FlashDriver {
	return &FlashDriver{f: f}
}

// Read reads synchronously; hal.Flash has no asynchronous path so timeout is unused.
func (d *FlashDriver) Read(dst []byte, addr uint32, _ time.Duration) error {
	if len(dst) == 0 {
		return nil
	}
	return d.read("plog.Read", dst, addr)
}

func (d *FlashDriver) read(op string, dst []byte, addr uint32) error {
	n, err := d.f.ReadAt(dst, addr)
	if err != nil {
		return errcode.Wrap(errcode.HardwareFault, op, err)
	}
	if n != len(dst) {
		return errcode.New(errcode.Validation, op, fmt.Sprintf("short read %d/%d at %#x", n, len(dst), addr))
	}
	return nil
}

func (d *FlashDriver) WriteByte(addr uint32, b byte) error {
	var one [1]byte
	one[0] = b
	if _, err := d.f.WriteAt(one[:], addr); err != nil {
		return errcode.Wrap(errcode.HardwareFault, "plog.WriteByte", fmt.Errorf("at %#x: %w", addr, err))
	}
	return nil
}

func (d *FlashDriver) EraseSector(addr uint32) error {
	start := addr &^ (SectorBytes - 1)
	if err := d.f.Erase(start, SectorBytes); err != nil {
		return errcode.Wrap(errcode.HardwareFault, "plog.EraseSector", err)
	}
	return nil
}

func (d *FlashDriver) IsSectorClean(addr uint32) (bool, error) {
	var buf [256]byte
	start := addr &^ (SectorBytes - 1)
	for off := uint32(0); off < SectorBytes; off += uint32(len(buf)) {
		if err := d.read("plog.IsSectorClean", buf[:], start+off); err != nil {
			return false, err
		}
		for _, b := range buf {
			if b != 0xFF {
				return false, nil
			}
		}
	}
	return true, nil
}
