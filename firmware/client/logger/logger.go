package logger

import (
	"fmt"

	"busscope/firmware/kernel"
	"busscope/firmware/proto"
)

// Log sends a log line to the logger service.
//
// The call is best-effort: it may drop on queue full.
func Log(ctx *kernel.Context, logCap kernel.Capability, line string) kernel.SendResult {
	if ctx == nil {
		return kernel.SendErrNoEndpoint
	}
	payload := proto.LogLinePayload([]byte(line), kernel.MaxMessageBytes)
	return ctx.SendToCapResult(logCap, uint16(proto.MsgLogLine), payload, kernel.Capability{})
}

// Logf formats and sends a log line.
func Logf(ctx *kernel.Context, logCap kernel.Capability, format string, args ...any) kernel.SendResult {
	return Log(ctx, logCap, fmt.Sprintf(format, args...))
}

// LogRetry sends a log line, waiting up to limit ticks while the logger queue is full.
func LogRetry(ctx *kernel.Context, logCap kernel.Capability, line string, limit int) error {
	if ctx == nil {
		return fmt.Errorf("logger retry: nil context")
	}
	payload := proto.LogLinePayload([]byte(line), kernel.MaxMessageBytes)
	res := ctx.SendToCapRetry(logCap, uint16(proto.MsgLogLine), payload, kernel.Capability{}, limit)
	if res != kernel.SendOK {
		return fmt.Errorf("logger send: %s", res)
	}
	return nil
}
