package proto

// SettingsChangedPayload encodes a MsgSettingsChanged payload: the channel name
// whose record must be rewritten. An empty name requests a full rewrite.
func SettingsChangedPayload(channel string) []byte {
	if len(channel) > 16 {
		channel = channel[:16]
	}
	return []byte(channel)
}

// DecodeSettingsChangedPayload decodes a SettingsChangedPayload.
func DecodeSettingsChangedPayload(payload []byte) string {
	return string(payload)
}
