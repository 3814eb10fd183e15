package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"busscope/firmware/channel"
	"busscope/firmware/plog"
	"busscope/firmware/settings"
	"busscope/hal"
)

// loadStores reads every channel record; a rejected record loads as defaults
// and is reported in notes.
func loadStores(f hal.Flash) (stores []*settings.Store, notes map[string]error) {
	p := settings.NewPersister(f)
	notes = make(map[string]error)
	for _, d := range settings.Defs {
		snap, err := p.Load(d)
		if err != nil {
			notes[d.Name] = err
		}
		stores = append(stores, settings.NewStore(d, snap))
	}
	return stores, notes
}

func rateOf(d settings.Def, c settings.Channel) string {
	if d.Kind == settings.KindCAN {
		return channel.RateLabel(d.Kind, c.BitRate)
	}
	return fmt.Sprintf("%s %s", channel.RateLabel(d.Kind, c.BaudRate), c.Parity)
}

func writeInfo(w io.Writer, f hal.Flash) error {
	stores, notes := loadStores(f)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CHANNEL\tSTATE\tRATE\tFORMAT\tSAVED\tCURSOR\tRANGE")
	for _, s := range stores {
		d, c := s.Def(), s.Snapshot()
		saved := humanize.Bytes(uint64(c.BytesSaved))
		if d.Kind == settings.KindCAN {
			saved = fmt.Sprintf("%s frames (%s)", humanize.Comma(int64(c.BytesSaved/channel.FrameBytes)), saved)
		}
		state := c.Connection.String()
		if notes[d.Name] != nil {
			state = "defaults"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%#06x\t%s\n",
			d.Name, state, rateOf(d, c), c.Format, saved, c.WriteCursor, d.Range)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, d := range settings.Defs {
		if err := notes[d.Name]; err != nil {
			fmt.Fprintf(w, "%s: record rejected: %v\n", d.Name, err)
		}
	}
	return nil
}

// writeDump prints what the channel logged since its last clear, in the
// channel's display format unless forceHex is set.
func writeDump(w io.Writer, f hal.Flash, d settings.Def, forceHex bool, limit uint32) error {
	c, _ := settings.NewPersister(f).Load(d)
	n := c.WriteCursor - d.Range.Base
	if limit > 0 {
		n = min(n, limit)
	}
	if n == 0 {
		fmt.Fprintf(w, "%s: empty\n", d.Name)
		return nil
	}

	data := make([]byte, n)
	got, err := plog.New(plog.NewFlashDriver(f), d.Range).ReadAt(data, d.Range.Base)
	if err != nil {
		return err
	}
	data = data[:got]

	switch {
	case d.Kind == settings.KindCAN && !forceHex:
		for i := 0; i+channel.FrameBytes <= len(data); i += channel.FrameBytes {
			fr, ok := channel.DecodeFrame(data[i:])
			if !ok {
				break
			}
			fmt.Fprintln(w, formatFrame(fr))
		}
	case forceHex || c.Format == settings.FormatHex:
		_, err = io.WriteString(w, hex.Dump(data))
	default:
		_, err = w.Write(printableASCII(data))
		if err == nil {
			_, err = io.WriteString(w, "\n")
		}
	}
	return err
}

func formatFrame(f hal.CANFrame) string {
	id := fmt.Sprintf("%03X", f.ID)
	if f.Extended {
		id = fmt.Sprintf("%08X", f.ID)
	}
	return fmt.Sprintf("%s [%d] % X", id, f.DLC, f.Data[:f.DLC])
}

func printableASCII(p []byte) []byte {
	out := make([]byte, len(p))
	for i, b := range p {
		switch {
		case b == '\n' || b == '\r' || b == '\t':
			out[i] = b
		case b < 0x20 || b > 0x7E:
			out[i] = '.'
		default:
			out[i] = b
		}
	}
	return out
}

// eraseChannel erases the dirty sectors of d and rewrites its record with the
// cursor back at the range base.
func eraseChannel(f hal.Flash, d settings.Def) (int, error) {
	n, err := plog.New(plog.NewFlashDriver(f), d.Range).Erase()
	if err != nil {
		return n, err
	}
	stores, _ := loadStores(f)
	for i, s := range stores {
		if s.Def().Name != d.Name {
			continue
		}
		c := s.Snapshot()
		c.WriteCursor = d.Range.Base
		c.BytesSaved = 0
		stores[i] = settings.NewStore(d, c)
	}
	if _, err := settings.NewPersister(f).Save(stores); err != nil {
		return n, err
	}
	return n, nil
}
