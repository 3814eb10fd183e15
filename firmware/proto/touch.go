package proto

import "encoding/binary"

// TouchPayload encodes a MsgTouch payload.
//
// Layout (little-endian):
//   - u8: event (hal.TouchEvent)
//   - i16: x
//   - i16: y
func TouchPayload(event uint8, x, y int16) []byte {
	buf := make([]byte, 5)
	buf[0] = event
	binary.LittleEndian.PutUint16(buf[1:3], uint16(x))
	binary.LittleEndian.PutUint16(buf[3:5], uint16(y))
	return buf
}

// DecodeTouchPayload decodes a TouchPayload.
func DecodeTouchPayload(payload []byte) (event uint8, x, y int16, ok bool) {
	if len(payload) < 5 {
		return 0, 0, 0, false
	}
	event = payload[0]
	x = int16(binary.LittleEndian.Uint16(payload[1:3]))
	y = int16(binary.LittleEndian.Uint16(payload[3:5]))
	return event, x, y, true
}
