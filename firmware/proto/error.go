package proto

import "encoding/binary"

const errorPayloadBytes = 8

// ErrorPayload encodes a MsgError reply to the request identified by
// requestID: u16 code, u16 failed request kind, u32 request id, little-endian.
func ErrorPayload(code ErrCode, ref Kind, requestID uint32) []byte {
	buf := make([]byte, errorPayloadBytes)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(code))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(ref))
	binary.LittleEndian.PutUint32(buf[4:8], requestID)
	return buf
}

func DecodeErrorPayload(payload []byte) (code ErrCode, ref Kind, requestID uint32, ok bool) {
	if len(payload) < errorPayloadBytes {
		return 0, 0, 0, false
	}
	code = ErrCode(binary.LittleEndian.Uint16(payload[0:2]))
	ref = Kind(binary.LittleEndian.Uint16(payload[2:4]))
	return code, ref, binary.LittleEndian.Uint32(payload[4:8]), true
}
