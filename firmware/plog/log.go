package plog

import (
	"fmt"
	"time"

	"busscope/internal/errcode"
)

// DefaultReadTimeout bounds reads issued by the display path.
const DefaultReadTimeout = 2 * time.Second

// Log is one channel's append-only byte store. The write cursor is owned by
// the caller (the channel settings) and passed in on every append.
type Log struct {
	drv Driver
	r   Range

	ReadTimeout time.Duration
}

func New(drv Driver, r Range) *Log {
	return &Log{drv: drv, r: r, ReadTimeout: DefaultReadTimeout}
}

func (l *Log) Range() Range { return l.r }

// Append writes p one byte at a time starting at cursor and returns the
// cursor after the last byte written. Bytes that would land past the end of
// the range are not written and a LogFull error is returned with the cursor
// of what did fit.
func (l *Log) Append(cursor uint32, p []byte) (uint32, error) {
	const op = "plog.Append"

	if cursor < l.r.Base || cursor > l.r.End() {
		return cursor, errcode.New(errcode.Validation, op, fmt.Sprintf("cursor %#x outside %s", cursor, l.r))
	}
	room := l.r.End() - cursor
	n := uint32(len(p))
	full := false
	if n > room {
		n, full = room, true
	}
	for i := uint32(0); i < n; i++ {
		if err := l.drv.WriteByte(cursor, p[i]); err != nil {
			return cursor, err
		}
		cursor++
	}
	if full {
		return cursor, errcode.New(errcode.LogFull, op, fmt.Sprintf("%d bytes dropped", uint32(len(p))-n))
	}
	return cursor, nil
}

// End returns the address after the last programmed byte at or past cursor.
// A cursor saved before a power loss lags the data already written; End finds
// where appending can resume. Trailing data bytes equal to 0xFF are
// indistinguishable from erased flash and are not counted.
func (l *Log) End(cursor uint32) (uint32, error) {
	if cursor < l.r.Base || cursor > l.r.End() {
		return cursor, errcode.New(errcode.Validation, "plog.End", fmt.Sprintf("cursor %#x outside %s", cursor, l.r))
	}
	if cursor == l.r.End() {
		return cursor, nil
	}

	// Data is contiguous, so the last dirty sector is the one before the
	// first clean sector that follows the cursor.
	sector := cursor &^ (SectorBytes - 1)
	for next := sector + SectorBytes; next < l.r.End(); next += SectorBytes {
		clean, err := l.drv.IsSectorClean(next)
		if err != nil {
			return cursor, err
		}
		if clean {
			break
		}
		sector = next
	}

	lo := max(cursor, sector)
	hi := min(sector+SectorBytes, l.r.End())
	end := lo
	var buf [256]byte
	for addr := lo; addr < hi; {
		n := min(uint32(len(buf)), hi-addr)
		if err := l.drv.Read(buf[:n], addr, l.ReadTimeout); err != nil {
			return cursor, err
		}
		for i := uint32(0); i < n; i++ {
			if buf[i] != 0xFF {
				end = addr + i + 1
			}
		}
		addr += n
	}
	return end, nil
}

// ReadAt reads up to len(dst) bytes at addr, stopping at the end of the range.
func (l *Log) ReadAt(dst []byte, addr uint32) (int, error) {
	if !l.r.Contains(addr) {
		return 0, errcode.New(errcode.Validation, "plog.ReadAt", fmt.Sprintf("addr %#x outside %s", addr, l.r))
	}
	if room := l.r.End() - addr; uint32(len(dst)) > room {
		dst = dst[:room]
	}
	if err := l.drv.Read(dst, addr, l.ReadTimeout); err != nil {
		return 0, err
	}
	return len(dst), nil
}

// Erase erases every sector of the range that is not already clean and
// returns how many were erased.
func (l *Log) Erase() (int, error) {
	erased := 0
	for _, s := range l.r.Sectors() {
		clean, err := l.drv.IsSectorClean(s)
		if err != nil {
			return erased, err
		}
		if clean {
			continue
		}
		if err := l.drv.EraseSector(s); err != nil {
			return erased, err
		}
		erased++
	}
	return erased, nil
}
