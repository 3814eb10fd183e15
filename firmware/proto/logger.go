package proto

import "bytes"

// LogLinePayload copies one log line for a MsgLogLine, without trailing line
// breaks and clipped to limit bytes.
func LogLinePayload(line []byte, limit int) []byte {
	line = bytes.TrimRight(line, "\r\n")
	if len(line) > limit {
		line = line[:limit]
	}
	return bytes.Clone(line)
}
