// Package channel runs one acquisition channel: its peripheral, the reader
// that feeds the ping-pong buffer, and the drain that appends to the log.
// The Screen in this package is the touch UI over every channel.
package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"busscope/firmware/acq"
	"busscope/firmware/plog"
	"busscope/firmware/settings"
	"busscope/hal"
	"busscope/internal/errcode"
)

// DebugLine is what a UART in debug TX mode transmits.
const DebugLine = "Busscope debug line - "

// Logf receives one formatted diagnostic line.
type Logf func(format string, args ...any)

// Hardware opens peripherals. Either field may be nil when the platform has
// none of that kind.
type Hardware struct {
	Lines hal.Lines
	CAN   hal.CAN
}

// Options tunes the bounded waits, in ticks.
type Options struct {
	LockWait  uint64
	ClearWait uint64
	Logf      Logf
}

func (o Options) withDefaults() Options {
	if o.LockWait == 0 {
		o.LockWait = settings.DefaultLockWait
	}
	if o.ClearWait == 0 {
		o.ClearWait = settings.DefaultClearWait
	}
	if o.Logf == nil {
		o.Logf = func(string, ...any) {}
	}
	return o
}

// Channel owns one peripheral and its acquisition pipeline.
type Channel struct {
	def   settings.Def
	store *settings.Store
	log   *plog.Log
	buf   *acq.PingPong
	clk   settings.Clock
	hw    Hardware
	opts  Options

	mu     sync.Mutex
	line   hal.Line
	bus    hal.CANBus
	cancel context.CancelFunc
	group  *errgroup.Group
	fault  error
}

// New wires a channel. The ping-pong buffer it creates drains into log under
// the settings lock; register it with the acquisition scheduler.
func New(store *settings.Store, log *plog.Log, clk settings.Clock, hw Hardware, opts Options) *Channel {
	c := &Channel{
		def:   store.Def(),
		store: store,
		log:   log,
		clk:   clk,
		hw:    hw,
		opts:  opts.withDefaults(),
	}
	c.buf = acq.NewPingPong(c.def.Name, c)
	return c
}

func (c *Channel) Def() settings.Def          { return c.def }
func (c *Channel) Store() *settings.Store     { return c.store }
func (c *Channel) Log() *plog.Log             { return c.log }
func (c *Channel) Buffer() *acq.PingPong      { return c.buf }
func (c *Channel) Settings() settings.Channel { return c.store.Snapshot() }

// Fault returns the error that put the channel in the fault state, or nil.
func (c *Channel) Fault() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fault
}

// Running reports whether the peripheral is open.
func (c *Channel) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.line != nil || c.bus != nil
}

// Drain appends p to the log and advances the cursor under the settings
// lock. Bytes past the end of the log, or that the flash refused, are
// discarded and counted as dropped. A cursor that lags data already in flash
// is moved past it before the append is retried.
func (c *Channel) Drain(p []byte) error {
	return c.store.Update(c.clk, c.opts.LockWait, func(s *settings.Channel) error {
		written, err := c.append(s, p)
		if errors.Is(err, hal.ErrFlashWriteRequiresErase) {
			if moved, rerr := c.resync(s); rerr == nil && moved {
				var more uint32
				more, err = c.append(s, p[written:])
				written += more
			}
		}
		if err != nil {
			c.buf.Discard(len(p) - int(written))
		}
		return err
	})
}

func (c *Channel) append(s *settings.Channel, p []byte) (uint32, error) {
	next, err := c.log.Append(s.WriteCursor, p)
	written := next - s.WriteCursor
	s.BytesSaved += written
	s.WriteCursor = next
	return written, err
}

// resync moves the cursor past programmed bytes, keeping CAN records aligned.
func (c *Channel) resync(s *settings.Channel) (bool, error) {
	end, err := c.log.End(s.WriteCursor)
	if err != nil {
		return false, err
	}
	if c.def.Kind == settings.KindCAN {
		if rem := (end - c.def.Range.Base) % FrameBytes; rem != 0 {
			end = min(end+FrameBytes-rem, c.def.Range.End())
		}
	}
	if end <= s.WriteCursor {
		return false, nil
	}
	c.opts.Logf("%s: cursor %#x behind logged data, resuming at %#x", c.def.Name, s.WriteCursor, end)
	s.BytesSaved += end - s.WriteCursor
	s.WriteCursor = end
	return true, nil
}

// Resync moves a saved cursor that lags the log, as after a power loss
// between two settings saves, to the end of the logged data.
func (c *Channel) Resync() error {
	return c.store.Update(c.clk, c.opts.LockWait, func(s *settings.Channel) error {
		_, err := c.resync(s)
		return err
	})
}

// Enable opens the peripheral with the current settings and starts the
// reader. A failure leaves the channel in the fault state.
func (c *Channel) Enable() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.line != nil || c.bus != nil {
		return nil
	}
	c.fault = nil
	snap := c.store.Snapshot()

	var err error
	switch c.def.Kind {
	case settings.KindCAN:
		err = c.openCAN(snap)
	default:
		err = c.openLine(snap)
	}
	if err != nil {
		c.fault = errcode.Wrap(errcode.HardwareFault, "channel.Enable", fmt.Errorf("%s: %w", c.def.Name, err))
		c.opts.Logf("%s: fault: %v", c.def.Name, err)
		return c.fault
	}
	c.opts.Logf("%s: enabled", c.def.Name)
	return nil
}

func (c *Channel) openLine(snap settings.Channel) error {
	if c.hw.Lines == nil {
		return hal.ErrNotImplemented
	}
	ln, err := c.hw.Lines.Open(c.def.Name)
	if err != nil {
		return err
	}
	if err := ln.Configure(snap.LineConfig()); err != nil {
		_ = ln.Close()
		return err
	}
	c.line = ln
	if snap.Mode.Receives() {
		c.start(func(ctx context.Context) error { return c.readLine(ctx, ln) })
	}
	return nil
}

func (c *Channel) openCAN(snap settings.Channel) error {
	if c.hw.CAN == nil {
		return hal.ErrNotImplemented
	}
	bus, err := c.hw.CAN.Open(c.def.Name)
	if err != nil {
		return err
	}
	if err := bus.Configure(snap.CANConfig()); err != nil {
		_ = bus.Close()
		return err
	}
	c.bus = bus
	c.start(func(ctx context.Context) error { return c.readCAN(ctx, bus) })
	return nil
}

func (c *Channel) start(run func(context.Context) error) {
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return run(gctx) })
	c.cancel, c.group = cancel, g
}

func (c *Channel) readLine(ctx context.Context, ln hal.Line) error {
	var p [64]byte
	for {
		n, err := ln.ReadBlocking(ctx, p[:])
		for _, b := range p[:n] {
			c.buf.Put(b)
		}
		if err != nil {
			return c.readerDone(ctx, err)
		}
	}
}

func (c *Channel) readCAN(ctx context.Context, bus hal.CANBus) error {
	for {
		f, err := bus.ReadFrame(ctx)
		if err != nil {
			return c.readerDone(ctx, err)
		}
		rec := EncodeFrame(f)
		c.buf.PutRecord(rec[:])
	}
}

// readerDone turns a reader exit into the fault state unless it was stopped.
func (c *Channel) readerDone(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return nil
	}
	c.mu.Lock()
	c.fault = errcode.Wrap(errcode.HardwareFault, "channel.read", fmt.Errorf("%s: %w", c.def.Name, err))
	c.mu.Unlock()
	c.opts.Logf("%s: read failed: %v", c.def.Name, err)
	return err
}

// Disable stops the reader, closes the peripheral and clears the fault.
// Bytes already buffered are still drained.
func (c *Channel) Disable() {
	c.mu.Lock()
	cancel, g := c.cancel, c.group
	line, bus := c.line, c.bus
	c.cancel, c.group, c.line, c.bus = nil, nil, nil, nil
	c.fault = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if line != nil {
		_ = line.Close()
	}
	if bus != nil {
		_ = bus.Close()
	}
	if g != nil {
		_ = g.Wait()
	}
	if line != nil || bus != nil {
		c.opts.Logf("%s: disabled", c.def.Name)
	}
}

// Restart reopens the peripheral so new settings take effect.
func (c *Channel) Restart() error {
	c.Disable()
	return c.Enable()
}

// Clear erases the log and resets the cursor under the settings lock, waiting
// up to the clear wait. A stopped channel also discards buffered bytes.
func (c *Channel) Clear() error {
	if !c.Running() {
		c.buf.Reset()
	}
	err := c.store.Update(c.clk, c.opts.ClearWait, func(s *settings.Channel) error {
		if _, err := c.log.Erase(); err != nil {
			return err
		}
		s.WriteCursor = c.def.Range.Base
		s.BytesSaved = 0
		return nil
	})
	if err != nil {
		c.opts.Logf("%s: clear failed: %v", c.def.Name, err)
		return err
	}
	c.buf.ClearOverrun()
	return nil
}

// SendDebug transmits DebugLine when the channel is an open UART in debug TX
// mode, and reports whether it did.
func (c *Channel) SendDebug() bool {
	if c.def.Kind != settings.KindUART {
		return false
	}
	snap := c.store.Snapshot()
	if snap.Connection != settings.Connected || snap.Mode != settings.ModeDebugTX {
		return false
	}
	c.mu.Lock()
	ln := c.line
	c.mu.Unlock()
	if ln == nil {
		return false
	}
	if _, err := ln.Write([]byte(DebugLine)); err != nil {
		c.opts.Logf("%s: debug write: %v", c.def.Name, err)
		return false
	}
	return true
}
