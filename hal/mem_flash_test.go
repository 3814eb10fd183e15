package hal

import (
	"errors"
	"testing"
)

func TestMemFlashStartsErased(t *testing.T) {
	f := NewMemFlash(8192, 4096)
	buf := make([]byte, 16)
	if _, err := f.ReadAt(buf, 4000); err != nil {
		t.Fatalf("ReadAt() err = %v", err)
	}
	for i, b := range buf {
		if b != 0xFF {
			t.Fatalf("byte %d = %#x, want 0xff", i, b)
		}
	}
}

func TestMemFlashWriteRequiresErase(t *testing.T) {
	f := NewMemFlash(4096, 4096)
	if _, err := f.WriteAt([]byte{0x0F}, 10); err != nil {
		t.Fatalf("first WriteAt() err = %v", err)
	}
	// Clearing more bits is allowed.
	if _, err := f.WriteAt([]byte{0x0E}, 10); err != nil {
		t.Fatalf("second WriteAt() err = %v", err)
	}
	if _, err := f.WriteAt([]byte{0xF0}, 10); !errors.Is(err, ErrFlashWriteRequiresErase) {
		t.Fatalf("WriteAt() err = %v, want %v", err, ErrFlashWriteRequiresErase)
	}
	if err := f.Erase(0, 4096); err != nil {
		t.Fatalf("Erase() err = %v", err)
	}
	if _, err := f.WriteAt([]byte{0xF0}, 10); err != nil {
		t.Fatalf("WriteAt() after erase err = %v", err)
	}
}

func TestMemFlashEraseAlignment(t *testing.T) {
	f := NewMemFlash(8192, 4096)
	if err := f.Erase(100, 4096); err == nil {
		t.Fatal("Erase() unaligned offset err = nil, want error")
	}
	if err := f.Erase(4096, 8192); err == nil {
		t.Fatal("Erase() past end err = nil, want error")
	}
}

func TestMemFlashReadOutOfRange(t *testing.T) {
	f := NewMemFlash(4096, 4096)
	if _, err := f.ReadAt(make([]byte, 1), 4096); err == nil {
		t.Fatal("ReadAt() out of range err = nil, want error")
	}
}
