package proto

// Kind identifies the message type carried in kernel.Message.Kind.
type Kind uint16

const (
	MsgLogLine Kind = iota + 1
	MsgSleep
	MsgWake
	MsgError
	MsgTouch
	MsgSettingsChanged
)

// ErrCode is a generic error category for MsgError responses.
type ErrCode uint16

const (
	ErrUnknown ErrCode = iota
	ErrBadMessage
	ErrOverflow
)

func (c ErrCode) String() string {
	switch c {
	case ErrBadMessage:
		return "bad_message"
	case ErrOverflow:
		return "overflow"
	default:
		return "unknown"
	}
}

func (k Kind) String() string {
	switch k {
	case MsgLogLine:
		return "log_line"
	case MsgSleep:
		return "sleep"
	case MsgWake:
		return "wake"
	case MsgError:
		return "error"
	case MsgTouch:
		return "touch"
	case MsgSettingsChanged:
		return "settings_changed"
	default:
		return "unknown"
	}
}
