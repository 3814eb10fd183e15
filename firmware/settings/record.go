package settings

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"busscope/firmware/plog"
	"busscope/hal"
	"busscope/internal/errcode"
)

const (
	RecordBytes = 32

	recordMagic   = 0xB5
	recordVersion = 1

	flagTermination = 1 << 0
)

// Record layout, little endian:
//
//	0  magic      1  version    2  kind       3  connection
//	4  format     5  parity     6  power      7  mode
//	8  identifier 9  flags      10 reserved (2)
//	12 baud rate  16 bit rate   20 cursor     24 bytes saved
//	28 reserved (4, 0xFF)
func encodeRecord(dst []byte, d Def, c Channel) {
	_ = dst[RecordBytes-1]
	dst[0] = recordMagic
	dst[1] = recordVersion
	dst[2] = byte(d.Kind)
	dst[3] = byte(c.Connection)
	dst[4] = byte(c.Format)
	dst[5] = byte(c.Parity)
	dst[6] = byte(c.Power)
	dst[7] = byte(c.Mode)
	dst[8] = byte(c.Identifier)
	dst[9] = 0
	if c.Termination {
		dst[9] |= flagTermination
	}
	dst[10], dst[11] = 0xFF, 0xFF
	binary.LittleEndian.PutUint32(dst[12:16], c.BaudRate)
	binary.LittleEndian.PutUint32(dst[16:20], c.BitRate)
	binary.LittleEndian.PutUint32(dst[20:24], c.WriteCursor)
	binary.LittleEndian.PutUint32(dst[24:28], c.BytesSaved)
	copy(dst[28:32], []byte{0xFF, 0xFF, 0xFF, 0xFF})
}

// decodeRecord parses and validates a record for d. Power and mode are reset
// to their safe defaults; the rest is trusted once validated.
func decodeRecord(src []byte, d Def) (Channel, error) {
	const op = "settings.decodeRecord"

	if len(src) < RecordBytes {
		return Channel{}, errcode.New(errcode.Validation, op, "short record")
	}
	if src[0] != recordMagic || src[1] != recordVersion {
		return Channel{}, errcode.New(errcode.Validation, op, fmt.Sprintf("%s: no record", d.Name))
	}
	if Kind(src[2]) != d.Kind {
		return Channel{}, errcode.New(errcode.Validation, op, fmt.Sprintf("%s: kind %d", d.Name, src[2]))
	}
	c := Channel{
		Connection:  Connection(src[3]),
		Format:      Format(src[4]),
		Parity:      Parity(src[5]),
		Power:       Power(src[6]),
		Mode:        Mode(src[7]),
		Identifier:  Identifier(src[8]),
		Termination: src[9]&flagTermination != 0,
		BaudRate:    binary.LittleEndian.Uint32(src[12:16]),
		BitRate:     binary.LittleEndian.Uint32(src[16:20]),
		WriteCursor: binary.LittleEndian.Uint32(src[20:24]),
		BytesSaved:  binary.LittleEndian.Uint32(src[24:28]),
	}
	if err := c.Validate(d); err != nil {
		return Channel{}, errcode.Wrap(errcode.Validation, op, fmt.Errorf("%s: %w", d.Name, err))
	}
	if d.Kind == KindUART {
		c.Power = Power5V
		c.Mode = ModeTXRX
	}
	return c, nil
}

// Persister reads and rewrites the settings sector.
type Persister struct {
	f    hal.Flash
	addr uint32
	last []byte
}

func NewPersister(f hal.Flash) *Persister {
	return &Persister{f: f, addr: plog.SettingsAddr}
}

func (p *Persister) recordAddr(slot int) uint32 {
	return p.addr + uint32(slot)*RecordBytes
}

// Load returns the stored settings for d, or its defaults and the reason the
// record was rejected.
func (p *Persister) Load(d Def) (Channel, error) {
	var buf [RecordBytes]byte
	if _, err := p.f.ReadAt(buf[:], p.recordAddr(d.Slot)); err != nil {
		return Defaults(d), errcode.Wrap(errcode.HardwareFault, "settings.Load", err)
	}
	c, err := decodeRecord(buf[:], d)
	if err != nil {
		return Defaults(d), err
	}
	return c, nil
}

// Save rewrites every record of stores. It reports whether the sector was
// written; an image identical to the last one saved is skipped.
func (p *Persister) Save(stores []*Store) (bool, error) {
	const op = "settings.Save"

	n := 0
	for _, s := range stores {
		n = max(n, s.def.Slot+1)
	}
	img := bytes.Repeat([]byte{0xFF}, n*RecordBytes)
	for _, s := range stores {
		off := s.def.Slot * RecordBytes
		encodeRecord(img[off:off+RecordBytes], s.def, s.Snapshot())
	}
	if bytes.Equal(img, p.last) {
		return false, nil
	}
	if len(img) > plog.SettingsBytes {
		return false, errcode.New(errcode.Validation, op, "records exceed the settings sector")
	}

	if err := p.f.Erase(p.addr, plog.SettingsBytes); err != nil {
		return false, errcode.Wrap(errcode.HardwareFault, op, err)
	}
	if _, err := p.f.WriteAt(img, p.addr); err != nil {
		return false, errcode.Wrap(errcode.HardwareFault, op, err)
	}
	p.last = img
	return true, nil
}
