//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.bug.st/serial"
)

func TestHostLinesUnknownChannel(t *testing.T) {
	l := newHostLines(map[string]LineOptions{}, discardLogger())
	if _, err := l.Open("rs232"); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("Open() err = %v, want %v", err, ErrNotImplemented)
	}
}

func TestHostLinesLoopbackEcho(t *testing.T) {
	l := newHostLines(map[string]LineOptions{"uart1": {Loopback: true}}, discardLogger())
	ln, err := l.Open("uart1")
	if err != nil {
		t.Fatalf("Open() err = %v", err)
	}
	again, err := l.Open("uart1")
	if err != nil || again != ln {
		t.Fatalf("Open() second call = %v, %v; want same line", again, err)
	}

	if _, err := ln.Write([]byte("hi")); err != nil {
		t.Fatalf("Write() err = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got := make([]byte, 0, 2)
	buf := make([]byte, 8)
	for len(got) < 2 {
		n, err := ln.ReadBlocking(ctx, buf)
		if err != nil {
			t.Fatalf("ReadBlocking() err = %v", err)
		}
		got = append(got, buf[:n]...)
	}
	if string(got) != "hi" {
		t.Fatalf("ReadBlocking() = %q, want %q", got, "hi")
	}
}

func TestSerialModeParity(t *testing.T) {
	cases := []struct {
		in   Parity
		want serial.Parity
	}{
		{ParityNone, serial.NoParity},
		{ParityOdd, serial.OddParity},
		{ParityEven, serial.EvenParity},
	}
	for _, c := range cases {
		m := serialMode(LineConfig{BaudRate: 9600, Parity: c.in})
		if m.Parity != c.want || m.BaudRate != 9600 || m.DataBits != 8 {
			t.Fatalf("serialMode(%v) = %+v, want parity %v", c.in, m, c.want)
		}
	}
}
