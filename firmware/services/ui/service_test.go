package ui

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"busscope/firmware/channel"
	"busscope/firmware/fbcanvas"
	"busscope/firmware/kernel"
	"busscope/firmware/plog"
	"busscope/firmware/proto"
	"busscope/firmware/settings"
	"busscope/hal"
)

type memFB struct {
	buf      []byte
	presents atomic.Int32
}

func (f *memFB) Width() int              { return 800 }
func (f *memFB) Height() int             { return 480 }
func (f *memFB) Format() hal.PixelFormat { return hal.PixelFormatRGB565 }
func (f *memFB) StrideBytes() int        { return 1600 }
func (f *memFB) Buffer() []byte          { return f.buf }
func (f *memFB) ClearRGB(r, g, b uint8)  {}

func (f *memFB) Present() error {
	f.presents.Add(1)
	return nil
}

type rig struct {
	k     *kernel.Kernel
	ctx   *kernel.Context
	fb    *memFB
	ui    kernel.Capability
	saver kernel.Capability
	chans []*channel.Channel
}

func newRig(t *testing.T, refresh uint64) *rig {
	t.Helper()
	k := kernel.New()
	r := &rig{k: k, ctx: k.NewContext(), fb: &memFB{buf: make([]byte, 800*480*2)}}
	flash := hal.NewMemFlash(plog.FlashBytes, 4096)
	for _, d := range settings.Defs {
		st := settings.NewStore(d, settings.Defaults(d))
		log := plog.New(plog.NewFlashDriver(flash), d.Range)
		r.chans = append(r.chans, channel.New(st, log, r.ctx, channel.Hardware{}, channel.Options{}))
	}

	uiEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	saverEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	logEP := k.NewEndpoint(kernel.RightSend)
	r.ui = uiEP.Restrict(kernel.RightSend)
	r.saver = saverEP.Restrict(kernel.RightRecv)

	k.AddTask(New(Config{
		Display:  fbcanvas.New(r.fb),
		Channels: r.chans,
		Refresh:  refresh,
	}, uiEP.Restrict(kernel.RightRecv), saverEP.Restrict(kernel.RightSend), logEP))
	t.Cleanup(k.Close)

	require.Eventually(t, func() bool { return r.fb.presents.Load() > 0 }, time.Second, time.Millisecond)
	return r
}

func (r *rig) tap(t *testing.T, x, y int16) {
	t.Helper()
	for _, ev := range []hal.TouchEvent{hal.TouchDown, hal.TouchUp} {
		require.True(t, r.ctx.SendTo(r.ui, uint16(proto.MsgTouch), proto.TouchPayload(uint8(ev), x, y)))
	}
}

func TestTouchChangesSettingAndNotifiesSaver(t *testing.T) {
	r := newRig(t, 1_000_000)
	can1 := r.chans[0]
	require.Equal(t, settings.FormatHex, can1.Settings().Format)

	// Display format is the fifth sidebar row of a CAN page.
	r.tap(t, 725, 325)

	var msg kernel.Message
	require.Eventually(t, func() bool {
		var ok bool
		msg, ok = r.ctx.TryRecv(r.saver)
		return ok
	}, time.Second, time.Millisecond)
	require.Equal(t, uint16(proto.MsgSettingsChanged), msg.Kind)
	require.Equal(t, "can1", proto.DecodeSettingsChangedPayload(msg.Payload()))
	require.Equal(t, settings.FormatASCII, can1.Settings().Format)
}

func TestServiceRepaintsEveryRefresh(t *testing.T) {
	r := newRig(t, 2)
	start := r.fb.presents.Load()

	require.Eventually(t, func() bool {
		r.k.Tick()
		return r.fb.presents.Load() >= start+3
	}, time.Second, time.Millisecond)
}
