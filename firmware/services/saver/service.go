// Package saver rewrites the settings sector after a settings change and on
// a fixed interval, so cursors and counters survive a power cycle.
package saver

import (
	"slices"
	"strings"

	logclient "busscope/firmware/client/logger"
	"busscope/firmware/kernel"
	"busscope/firmware/proto"
	"busscope/firmware/settings"
)

// DefaultInterval is the periodic save period in ticks.
const DefaultInterval = 5000

type Service struct {
	p        *settings.Persister
	stores   []*settings.Store
	ep       kernel.Capability
	logCap   kernel.Capability
	interval uint64
}

func New(p *settings.Persister, stores []*settings.Store, ep, logCap kernel.Capability, interval uint64) *Service {
	if interval == 0 {
		interval = DefaultInterval
	}
	return &Service{p: p, stores: stores, ep: ep, logCap: logCap, interval: interval}
}

func (s *Service) Run(ctx *kernel.Context) {
	ch, ok := ctx.RecvChan(s.ep)
	if !ok {
		return
	}
	next := ctx.NowTick() + s.interval

	for {
		select {
		case <-ctx.Done():
			s.save(ctx, "shutdown")
			return
		case <-ctx.TickChan(next - 1):
			next = ctx.NowTick() + s.interval
			s.save(ctx, "")
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if proto.Kind(msg.Kind) != proto.MsgSettingsChanged {
				continue
			}
			s.save(ctx, s.pending(ctx, proto.DecodeSettingsChangedPayload(msg.Payload())))
		}
	}
}

// pending folds the change notifications queued behind first into one save
// reason.
func (s *Service) pending(ctx *kernel.Context, first string) string {
	names := []string{first}
	for {
		msg, ok := ctx.TryRecv(s.ep)
		if !ok {
			break
		}
		if proto.Kind(msg.Kind) != proto.MsgSettingsChanged {
			continue
		}
		name := proto.DecodeSettingsChangedPayload(msg.Payload())
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

func (s *Service) save(ctx *kernel.Context, reason string) {
	wrote, err := s.p.Save(s.stores)
	if err != nil {
		logclient.Logf(ctx, s.logCap, "settings: save failed: %v", err)
		return
	}
	if !wrote {
		return
	}
	if reason != "" {
		logclient.Logf(ctx, s.logCap, "settings: saved (%s)", reason)
	}
}
