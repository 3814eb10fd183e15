package proto

import "encoding/binary"

// SleepPayload encodes a MsgSleep request: u32 request id, u32 ticks.
// The reply endpoint travels as the message capability.
func SleepPayload(requestID, ticks uint32) []byte {
	return binary.LittleEndian.AppendUint32(WakePayload(requestID), ticks)
}

func DecodeSleepPayload(payload []byte) (requestID, ticks uint32, ok bool) {
	if len(payload) < 8 {
		return 0, 0, false
	}
	return binary.LittleEndian.Uint32(payload), binary.LittleEndian.Uint32(payload[4:]), true
}

// WakePayload encodes a MsgWake reply: the u32 request id being answered.
func WakePayload(requestID uint32) []byte {
	return binary.LittleEndian.AppendUint32(make([]byte, 0, 8), requestID)
}

func DecodeWakePayload(payload []byte) (requestID uint32, ok bool) {
	if len(payload) < 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(payload), true
}
