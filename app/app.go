package app

import (
	"busscope/firmware/acq"
	"busscope/firmware/channel"
	logclient "busscope/firmware/client/logger"
	"busscope/firmware/fbcanvas"
	"busscope/firmware/kernel"
	"busscope/firmware/plog"
	"busscope/firmware/services/acquisition"
	"busscope/firmware/services/debugtx"
	"busscope/firmware/services/logger"
	"busscope/firmware/services/saver"
	timesvc "busscope/firmware/services/timer"
	"busscope/firmware/services/touch"
	"busscope/firmware/services/ui"
	"busscope/firmware/settings"
	"busscope/hal"
)

type system struct {
	k     *kernel.Kernel
	chans []*channel.Channel
}

// Config holds the firmware timings, all in ticks.
type Config struct {
	FlushDelay      uint64
	LockWait        uint64
	ClearLockWait   uint64
	RefreshInterval uint64
	SaveInterval    uint64
	DebugInterval   uint32
}

func DefaultConfig() Config {
	return Config{
		FlushDelay:      acq.DefaultFlushDelay,
		LockWait:        settings.DefaultLockWait,
		ClearLockWait:   settings.DefaultClearWait,
		RefreshInterval: ui.DefaultRefresh,
		SaveInterval:    saver.DefaultInterval,
		DebugInterval:   debugtx.DefaultInterval,
	}
}

// New initializes and starts the firmware with default config.
func New(h hal.HAL) func() error {
	return NewWithConfig(h, DefaultConfig())
}

// Run starts the firmware and blocks forever (TinyGo/native entrypoint).
func Run(h hal.HAL) {
	_ = New(h)
	select {}
}

func NewWithConfig(h hal.HAL, cfg Config) func() error {
	_ = newSystem(h, cfg)
	return func() error { return nil }
}

func RunWithConfig(h hal.HAL, cfg Config) {
	_ = NewWithConfig(h, cfg)
	select {}
}

func newSystem(h hal.HAL, cfg Config) *system {
	installPanicHandler(h)
	boot := newBootScreen(h)
	boot.step("kernel")

	k := kernel.New()

	logEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	timeEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	uiEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	saverEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	logCap := logEP.Restrict(kernel.RightSend)

	k.AddTask(logger.New(h.Logger(), logEP.Restrict(kernel.RightRecv)))
	k.AddTask(timesvc.New(timeEP))

	// Channels, readers and the flush path share this context; it only
	// sends and reads the tick.
	sys := k.NewContext()
	logf := func(format string, args ...any) {
		logclient.Logf(sys, logCap, format, args...)
	}

	boot.step("settings")
	flash := h.Flash()
	if flash == nil || flash.SizeBytes() < plog.FlashBytes {
		logf("flash: unavailable, logging to memory")
		flash = hal.NewMemFlash(plog.FlashBytes, plog.SettingsBytes)
	}
	persister := settings.NewPersister(flash)
	drv := plog.NewFlashDriver(flash)
	hw := channel.Hardware{Lines: h.Lines(), CAN: h.CAN()}
	opts := channel.Options{LockWait: cfg.LockWait, ClearWait: cfg.ClearLockWait, Logf: logf}

	sched := acq.NewScheduler(cfg.FlushDelay)
	var (
		stores []*settings.Store
		chans  []*channel.Channel
	)
	for _, d := range settings.Defs {
		snap, err := persister.Load(d)
		if err != nil {
			logf("settings: %s: %v, using defaults", d.Name, err)
		}
		store := settings.NewStore(d, snap)
		c := channel.New(store, plog.New(drv, d.Range), sys, hw, opts)
		if err := c.Resync(); err != nil {
			logf("%s: log scan: %v", d.Name, err)
		}
		sched.Add(c.Buffer())
		stores = append(stores, store)
		chans = append(chans, c)
	}

	boot.step("channels")
	for _, c := range chans {
		if c.Settings().Connection == settings.Connected {
			_ = c.Enable()
		}
	}

	k.AddTask(acquisition.New(sched, h.LED(), logCap))
	k.AddTask(saver.New(persister, stores, saverEP.Restrict(kernel.RightRecv), logCap, cfg.SaveInterval))
	k.AddTask(debugtx.New(chans, timeEP.Restrict(kernel.RightSend), logCap, cfg.DebugInterval))

	if disp := h.Display(); disp != nil && disp.Framebuffer() != nil {
		k.AddTask(ui.New(ui.Config{
			Display:  fbcanvas.New(disp.Framebuffer()),
			Channels: chans,
			Options:  channel.Options{LockWait: cfg.LockWait, ClearWait: cfg.ClearLockWait},
			Refresh:  cfg.RefreshInterval,
		}, uiEP.Restrict(kernel.RightRecv), saverEP.Restrict(kernel.RightSend), logCap))
		k.AddTask(touch.New(h.Input(), uiEP.Restrict(kernel.RightSend)))
	}

	if ht := h.Time(); ht != nil {
		if ch := ht.Ticks(); ch != nil {
			go func() {
				for seq := range ch {
					k.TickTo(seq)
				}
			}()
		}
	}

	return &system{k: k, chans: chans}
}
