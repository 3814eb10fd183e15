package hal

import (
	"errors"
	"fmt"
	"sync"
)

var ErrFlashWriteRequiresErase = errors.New("flash write requires erase")

var errFlashRange = errors.New("flash address out of range")

// MemFlash is a RAM-backed Flash with NOR semantics: erase sets bytes to 0xFF and
// writes may only clear bits.
//
// It backs unit tests and host tools that operate on flash images.
type MemFlash struct {
	mu         sync.Mutex
	buf        []byte
	eraseBlock uint32
}

// NewMemFlash returns an erased flash of the given size.
func NewMemFlash(size, eraseBlock uint32) *MemFlash {
	if eraseBlock == 0 {
		eraseBlock = 4096
	}
	f := &MemFlash{buf: make([]byte, size), eraseBlock: eraseBlock}
	for i := range f.buf {
		f.buf[i] = 0xFF
	}
	return f
}

// NewMemFlashFromImage wraps an existing image. The slice is used in place.
func NewMemFlashFromImage(img []byte, eraseBlock uint32) *MemFlash {
	if eraseBlock == 0 {
		eraseBlock = 4096
	}
	return &MemFlash{buf: img, eraseBlock: eraseBlock}
}

func (f *MemFlash) SizeBytes() uint32       { return uint32(len(f.buf)) }
func (f *MemFlash) EraseBlockBytes() uint32 { return f.eraseBlock }

// Bytes returns the backing image.
func (f *MemFlash) Bytes() []byte { return f.buf }

func (f *MemFlash) ReadAt(p []byte, off uint32) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if off >= uint32(len(f.buf)) {
		return 0, fmt.Errorf("flash read at %d: %w", off, errFlashRange)
	}
	return copy(p, f.buf[off:]), nil
}

func (f *MemFlash) WriteAt(p []byte, off uint32) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if off >= uint32(len(f.buf)) {
		return 0, fmt.Errorf("flash write at %d: %w", off, errFlashRange)
	}
	dst := f.buf[off:]
	if len(p) > len(dst) {
		p = p[:len(dst)]
	}
	for i := range p {
		if dst[i]&p[i] != p[i] {
			return 0, ErrFlashWriteRequiresErase
		}
	}
	return copy(dst, p), nil
}

func (f *MemFlash) Erase(off, size uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if size == 0 {
		return nil
	}
	if off%f.eraseBlock != 0 || size%f.eraseBlock != 0 {
		return fmt.Errorf("flash erase off=%d size=%d: unaligned", off, size)
	}
	if uint64(off)+uint64(size) > uint64(len(f.buf)) {
		return fmt.Errorf("flash erase off=%d size=%d: %w", off, size, errFlashRange)
	}
	blk := f.buf[off : off+size]
	for i := range blk {
		blk[i] = 0xFF
	}
	return nil
}
