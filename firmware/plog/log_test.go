package plog

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"busscope/hal"
	"busscope/internal/errcode"
)

type countingDriver struct {
	*FlashDriver
	erased []uint32
}

func (d *countingDriver) EraseSector(addr uint32) error {
	d.erased = append(d.erased, addr)
	return d.FlashDriver.EraseSector(addr)
}

func testLog(t *testing.T, sectors uint32) (*Log, *countingDriver, *hal.MemFlash) {
	t.Helper()
	flash := hal.NewMemFlash(SectorBytes*(sectors+1), 4096)
	drv := &countingDriver{FlashDriver: NewFlashDriver(flash)}
	return New(drv, Range{Base: SectorBytes, Size: sectors * SectorBytes}), drv, flash
}

func TestLayoutRangesDisjoint(t *testing.T) {
	names := []string{"can1", "can2", "uart1", "uart2", "rs232", "gpio0", "gpio1", "adc", "therm"}
	var prev Range
	for i, name := range names {
		r, ok := RangeFor(name)
		require.True(t, ok, name)
		require.Equal(t, uint32(ChannelBytes), r.Size)
		require.Zero(t, r.Base%SectorBytes)
		require.LessOrEqual(t, r.End(), uint32(FlashBytes))
		if i > 0 {
			require.LessOrEqual(t, prev.End(), r.Base, name)
		}
		prev = r
	}
	require.Less(t, uint32(SettingsAddr+SettingsBytes), CAN1.Base)

	_, ok := RangeFor("spi")
	require.False(t, ok)
}

func TestAppendThenRead(t *testing.T) {
	l, _, _ := testLog(t, 1)
	base := l.Range().Base

	cur, err := l.Append(base, []byte("hello "))
	require.NoError(t, err)
	cur, err = l.Append(cur, []byte("world"))
	require.NoError(t, err)
	require.Equal(t, base+11, cur)

	got := make([]byte, 11)
	n, err := l.ReadAt(got, base)
	require.NoError(t, err)
	require.Equal(t, 11, n)
	require.Equal(t, "hello world", string(got))
}

func TestAppendRejectsPastEnd(t *testing.T) {
	l, _, _ := testLog(t, 1)
	r := l.Range()

	cur, err := l.Append(r.End()-3, []byte("abcdef"))
	require.ErrorIs(t, err, errcode.LogFull)
	require.Equal(t, r.End(), cur)

	cur, err = l.Append(cur, []byte("x"))
	require.ErrorIs(t, err, errcode.LogFull)
	require.Equal(t, r.End(), cur)

	got := make([]byte, 8)
	n, err := l.ReadAt(got, r.End()-3)
	require.NoError(t, err)
	require.Equal(t, "abc", string(got[:n]))
}

func TestAppendValidatesCursor(t *testing.T) {
	l, _, _ := testLog(t, 1)
	_, err := l.Append(0, []byte{1})
	require.Equal(t, errcode.Validation, errcode.Of(err))

	_, err = l.ReadAt(make([]byte, 1), l.Range().End())
	require.Equal(t, errcode.Validation, errcode.Of(err))
}

func TestAppendOverDirtyByteFails(t *testing.T) {
	l, _, _ := testLog(t, 1)
	base := l.Range().Base

	_, err := l.Append(base, []byte{0x00})
	require.NoError(t, err)
	_, err = l.Append(base, []byte{0xF0})
	require.ErrorIs(t, err, errcode.HardwareFault)
	require.ErrorIs(t, err, hal.ErrFlashWriteRequiresErase)
}

func TestEndFindsDataPastStaleCursor(t *testing.T) {
	l, _, _ := testLog(t, 3)
	base := l.Range().Base

	end, err := l.End(base)
	require.NoError(t, err)
	require.Equal(t, base, end, "empty log")

	cur, err := l.Append(base, []byte("hello"))
	require.NoError(t, err)
	end, err = l.End(base)
	require.NoError(t, err)
	require.Equal(t, cur, end)

	// Data spilling into the second sector.
	big := bytes.Repeat([]byte{'x'}, SectorBytes)
	cur, err = l.Append(cur, big)
	require.NoError(t, err)
	end, err = l.End(base + 2)
	require.NoError(t, err)
	require.Equal(t, cur, end)

	// A cursor already at the end stays put.
	end, err = l.End(cur)
	require.NoError(t, err)
	require.Equal(t, cur, end)

	_, err = l.End(base - 1)
	require.ErrorIs(t, err, errcode.Validation)
}

func TestEraseOnlyDirtySectors(t *testing.T) {
	l, drv, flash := testLog(t, 3)
	r := l.Range()

	n, err := l.Erase()
	require.NoError(t, err)
	require.Zero(t, n)
	require.Empty(t, drv.erased)

	_, err = l.Append(r.Base+SectorBytes+10, []byte("dirty"))
	require.NoError(t, err)

	n, err = l.Erase()
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, []uint32{r.Base + SectorBytes}, drv.erased)
	require.True(t, bytes.Equal(flash.Bytes()[r.Base:r.End()], bytes.Repeat([]byte{0xFF}, int(r.Size))))
}

func TestFlashDriverSectorAlignment(t *testing.T) {
	flash := hal.NewMemFlash(2*SectorBytes, 4096)
	drv := NewFlashDriver(flash)

	require.NoError(t, drv.WriteByte(SectorBytes+0x1234, 0x42))
	clean, err := drv.IsSectorClean(SectorBytes + 0x8000)
	require.NoError(t, err)
	require.False(t, clean)

	clean, err = drv.IsSectorClean(0)
	require.NoError(t, err)
	require.True(t, clean)

	require.NoError(t, drv.EraseSector(SectorBytes+0xFFFF))
	clean, err = drv.IsSectorClean(SectorBytes)
	require.NoError(t, err)
	require.True(t, clean)

	buf := make([]byte, 4)
	require.NoError(t, drv.Read(buf, SectorBytes+0x1232, time.Second))
	require.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, buf)
}
