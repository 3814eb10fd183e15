package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"busscope/firmware/plog"
)

const defaultEraseSize = 4096

// flashFile is a hal.Flash over an existing image file.
type flashFile struct {
	f         *os.File
	size      uint32
	eraseSize uint32

	scratch []byte
}

func openFlashFile(path string, writable bool) (*flashFile, error) {
	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("open flash image %q: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat flash image %q: %w", path, err)
	}
	if st.Size() < plog.FlashBytes || st.Size() > int64(^uint32(0)) {
		_ = f.Close()
		return nil, fmt.Errorf("flash image %q: size %d, want at least %d", path, st.Size(), plog.FlashBytes)
	}

	ff := &flashFile{
		f:         f,
		size:      uint32(st.Size()),
		eraseSize: defaultEraseSize,
		scratch:   make([]byte, defaultEraseSize),
	}
	for i := range ff.scratch {
		ff.scratch[i] = 0xFF
	}
	return ff, nil
}

func (f *flashFile) Close() error { return f.f.Close() }

func (f *flashFile) SizeBytes() uint32       { return f.size }
func (f *flashFile) EraseBlockBytes() uint32 { return f.eraseSize }

func (f *flashFile) ReadAt(p []byte, off uint32) (int, error) {
	if off >= f.size {
		return 0, fmt.Errorf("flash read at %d: %w", off, os.ErrInvalid)
	}
	maxN := int(f.size - off)
	if len(p) > maxN {
		p = p[:maxN]
	}
	return f.f.ReadAt(p, int64(off))
}

func (f *flashFile) WriteAt(p []byte, off uint32) (int, error) {
	if off >= f.size {
		return 0, fmt.Errorf("flash write at %d: %w", off, os.ErrInvalid)
	}
	maxN := int(f.size - off)
	if len(p) > maxN {
		p = p[:maxN]
	}

	prev := make([]byte, len(p))
	if _, err := f.f.ReadAt(prev, int64(off)); err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("flash read before write at %d: %w", off, err)
	}
	for i := range p {
		if prev[i]&p[i] != p[i] {
			return 0, errors.New("flash write requires erase")
		}
	}
	return f.f.WriteAt(p, int64(off))
}

func (f *flashFile) Erase(off, size uint32) error {
	if size == 0 {
		return nil
	}
	if off%f.eraseSize != 0 || size%f.eraseSize != 0 || off+size > f.size {
		return fmt.Errorf("flash erase off=%d size=%d: %w", off, size, os.ErrInvalid)
	}
	for ; size > 0; size -= f.eraseSize {
		if _, err := f.f.WriteAt(f.scratch, int64(off)); err != nil {
			return fmt.Errorf("flash erase block at %d: %w", off, err)
		}
		off += f.eraseSize
	}
	return nil
}
