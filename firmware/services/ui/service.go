// Package ui is the task that owns the widget engine. It applies touch
// messages to the channel screen, repaints the visible log window on a fixed
// period and asks the saver to persist every settings change.
package ui

import (
	"busscope/firmware/channel"
	logclient "busscope/firmware/client/logger"
	"busscope/firmware/fbcanvas"
	"busscope/firmware/gui"
	"busscope/firmware/kernel"
	"busscope/firmware/proto"
	"busscope/hal"
)

// DefaultRefresh is the repaint period in ticks.
const DefaultRefresh = 100

type Config struct {
	Display  *fbcanvas.Display
	Channels []*channel.Channel
	// Options tunes the settings waits of the screen; a nil Logf logs to
	// the logger service.
	Options channel.Options
	Refresh uint64
}

type Service struct {
	cfg    Config
	ep     kernel.Capability
	saver  kernel.Capability
	logCap kernel.Capability

	screen *channel.Screen
}

func New(cfg Config, ep, saver, logCap kernel.Capability) *Service {
	if cfg.Refresh == 0 {
		cfg.Refresh = DefaultRefresh
	}
	return &Service{cfg: cfg, ep: ep, saver: saver, logCap: logCap}
}

func (s *Service) Run(ctx *kernel.Context) {
	ch, ok := ctx.RecvChan(s.ep)
	if !ok || s.cfg.Display == nil {
		return
	}
	if fb := s.cfg.Display.Framebuffer(); fb != nil {
		fb.ClearRGB(0, 0, 0)
	}

	opts := s.cfg.Options
	if opts.Logf == nil {
		opts.Logf = func(format string, args ...any) {
			logclient.Logf(ctx, s.logCap, format, args...)
		}
	}
	screen, err := channel.NewScreen(gui.NewEngine(s.cfg.Display), ctx, s.cfg.Channels, opts, func(name string) {
		_ = ctx.SendTo(s.saver, uint16(proto.MsgSettingsChanged), proto.SettingsChangedPayload(name))
	})
	if err != nil {
		logclient.Logf(ctx, s.logCap, "ui: %v", err)
		return
	}
	s.screen = screen
	s.present(ctx)

	next := ctx.NowTick() + s.cfg.Refresh
	for {
		select {
		case <-ctx.Done():
			return
		case <-ctx.TickChan(next - 1):
			next = ctx.NowTick() + s.cfg.Refresh
			s.screen.Refresh(false)
			s.present(ctx)
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.handle(ctx, msg)
		}
	}
}

func (s *Service) handle(ctx *kernel.Context, msg kernel.Message) {
	switch proto.Kind(msg.Kind) {
	case proto.MsgTouch:
		ev, x, y, ok := proto.DecodeTouchPayload(msg.Payload())
		if !ok {
			return
		}
		s.screen.Touch(hal.TouchEvent(ev), x, y)
		s.present(ctx)
	}
}

func (s *Service) present(ctx *kernel.Context) {
	if err := s.cfg.Display.Display(); err != nil {
		logclient.Logf(ctx, s.logCap, "ui: present: %v", err)
	}
}
