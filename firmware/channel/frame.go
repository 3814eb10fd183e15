package channel

import (
	"encoding/binary"

	"busscope/hal"
)

// FrameBytes is the size of one CAN frame as stored in the log.
const FrameBytes = 14

const frameExtended = 1 << 0

// EncodeFrame lays out f as id (u32 LE), flags, dlc and 8 data bytes.
func EncodeFrame(f hal.CANFrame) [FrameBytes]byte {
	var rec [FrameBytes]byte
	binary.LittleEndian.PutUint32(rec[0:4], f.ID)
	if f.Extended {
		rec[4] |= frameExtended
	}
	rec[5] = min(f.DLC, 8)
	copy(rec[6:], f.Data[:])
	return rec
}

// DecodeFrame reverses EncodeFrame. It reports false for a short record or an
// erased one.
func DecodeFrame(rec []byte) (hal.CANFrame, bool) {
	if len(rec) < FrameBytes {
		return hal.CANFrame{}, false
	}
	if rec[4] == 0xFF && rec[5] == 0xFF {
		return hal.CANFrame{}, false
	}
	f := hal.CANFrame{
		ID:       binary.LittleEndian.Uint32(rec[0:4]),
		Extended: rec[4]&frameExtended != 0,
		DLC:      min(rec[5], 8),
	}
	copy(f.Data[:], rec[6:FrameBytes])
	return f, true
}
