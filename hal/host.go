//go:build !tinygo

package hal

import (
	"log/slog"
	"os"
	"sync"
)

const (
	hostDefaultWidth  = 800
	hostDefaultHeight = 480
)

// LineOptions binds a host channel to a backing line.
type LineOptions struct {
	// Port is a serial device path (e.g. /dev/ttyUSB0). It takes precedence over Loopback.
	Port string
	// Loopback echoes written bytes back as received data.
	Loopback bool
}

// HostOptions configures the host HAL.
type HostOptions struct {
	FlashPath string
	FlashSize uint32
	Width     int
	Height    int
	Lines     map[string]LineOptions
	Log       *slog.Logger
}

// DefaultHostOptions returns the defaults used when no config file is present.
func DefaultHostOptions() HostOptions {
	path := os.Getenv("BUSSCOPE_FLASH_PATH")
	if path == "" {
		path = hostFlashDefaultPath
	}
	return HostOptions{
		FlashPath: path,
		FlashSize: hostFlashDefaultSizeBytes,
		Width:     hostDefaultWidth,
		Height:    hostDefaultHeight,
		Lines: map[string]LineOptions{
			"uart1": {Loopback: true},
			"uart2": {Loopback: true},
		},
	}
}

type hostHAL struct {
	logger *hostLogger
	led    *hostLED
	fb     *hostFramebuffer
	touch  *hostTouch
	t      *hostTime
	flash  *hostFlash
	lines  *hostLines
}

// New returns a host HAL implementation with default options.
func New() HAL {
	return NewHost(DefaultHostOptions())
}

// NewHost returns a host HAL implementation.
func NewHost(opts HostOptions) HAL {
	return newHostHAL(opts)
}

func newHostHAL(opts HostOptions) *hostHAL {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = hostDefaultWidth, hostDefaultHeight
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	logger := &hostLogger{log: log.With(slog.String("src", "firmware"))}
	return &hostHAL{
		logger: logger,
		led:    &hostLED{log: log},
		fb:     newHostFramebuffer(opts.Width, opts.Height),
		touch:  newHostTouch(),
		t:      newHostTime(),
		flash:  newHostFlash(opts.FlashPath, opts.FlashSize, log),
		lines:  newHostLines(opts.Lines, log),
	}
}

func (h *hostHAL) Logger() Logger   { return h.logger }
func (h *hostHAL) LED() LED         { return h.led }
func (h *hostHAL) Display() Display { return hostDisplay{fb: h.fb} }
func (h *hostHAL) Input() Input     { return hostInput{touch: h.touch} }
func (h *hostHAL) Flash() Flash     { return h.flash }
func (h *hostHAL) Time() Time       { return h.t }
func (h *hostHAL) Lines() Lines     { return h.lines }
func (h *hostHAL) CAN() CAN         { return nullCAN{} }

type hostDisplay struct {
	fb *hostFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

type hostInput struct {
	touch *hostTouch
}

func (in hostInput) Touch() Touch { return in.touch }

type hostLogger struct {
	log *slog.Logger
}

func (l *hostLogger) WriteLineString(s string) {
	l.log.Info(s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.log.Info(string(b))
}

type hostLED struct {
	mu  sync.Mutex
	on  bool
	log *slog.Logger
}

func (l *hostLED) High() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.on {
		l.log.Warn("overrun indicator on")
	}
	l.on = true
}

func (l *hostLED) Low() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.on {
		l.log.Info("overrun indicator off")
	}
	l.on = false
}
