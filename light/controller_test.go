package light

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/thiefmaster/signallight/comm"
	"github.com/thiefmaster/signallight/protocol"
)

// fakeTransport records frames and replays canned read results.
type fakeTransport struct {
	frames   [][]byte
	writeErr error
	readByte byte
	readErr  error
	closes   int
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.frames = append(f.frames, append([]byte(nil), p...))
	return len(p), nil
}

func (f *fakeTransport) ReadByte() (byte, error) {
	return f.readByte, f.readErr
}

func (f *fakeTransport) Close() error {
	f.closes++
	return nil
}

func (f *fakeTransport) last(n int) [][]byte {
	return f.frames[len(f.frames)-n:]
}

func newTestController(t *testing.T) (*Controller, *fakeTransport) {
	t.Helper()
	ft := &fakeTransport{}
	c, err := New(ft)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ft.frames = nil
	return c, ft
}

func TestNew_ResetsDevice(t *testing.T) {
	ft := &fakeTransport{}
	c, err := New(ft)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	want := [][]byte{
		{0x5A, 0xFF, 0xD6, 0x00, 0xA5},
		{0x5A, 0xFF, 0xCA, 0, 0, 0, 0, 0, 0, 0, 0, 0xA5},
	}
	if len(ft.frames) != len(want) {
		t.Fatalf("sent %d frames, want %d", len(ft.frames), len(want))
	}
	for i := range want {
		if !bytes.Equal(ft.frames[i], want[i]) {
			t.Errorf("frame %d = % X, want % X", i, ft.frames[i], want[i])
		}
	}
	if got := c.State(); got != (State{}) {
		t.Errorf("State() = %+v, want zero state", got)
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("New(nil) succeeded")
	}

	ft := &fakeTransport{writeErr: comm.ErrTimeout}
	if _, err := New(ft); !errors.Is(err, comm.ErrTimeout) {
		t.Errorf("New() error = %v, want ErrTimeout", err)
	}
	if ft.closes != 1 {
		t.Errorf("transport closed %d times after failed New, want 1", ft.closes)
	}
}

func TestSetColor(t *testing.T) {
	c, ft := newTestController(t)

	if err := c.SetColor(protocol.Red); err != nil {
		t.Fatalf("SetColor() error = %v", err)
	}
	want := []byte{0x5A, 0xFF, 0xCA, 0xFF, 0, 0, 0, 0, 0, 0, 0, 0xA5}
	if !bytes.Equal(ft.frames[0], want) {
		t.Errorf("frame = % X, want % X", ft.frames[0], want)
	}
	if got := c.State().LastColor; got != (protocol.RGBW{R: 255}) {
		t.Errorf("LastColor = %v", got)
	}

	if err := c.SetColor(protocol.Color(99)); !errors.Is(err, protocol.ErrUnknownColor) {
		t.Errorf("SetColor(99) error = %v, want ErrUnknownColor", err)
	}
	if len(ft.frames) != 1 {
		t.Errorf("invalid color sent a frame")
	}
}

func TestSetColorRGBW_FailureKeepsState(t *testing.T) {
	c, ft := newTestController(t)

	want := protocol.RGBW{R: 10, G: 20, B: 30, W: 40}
	if err := c.SetColorRGBW(want); err != nil {
		t.Fatalf("SetColorRGBW() error = %v", err)
	}
	if got := c.State().LastColor; got != want {
		t.Fatalf("LastColor = %v, want %v", got, want)
	}

	ft.writeErr = comm.ErrTimeout
	err := c.SetColorRGBW(protocol.RGBW{R: 1})
	if !errors.Is(err, comm.ErrTimeout) {
		t.Errorf("SetColorRGBW() error = %v, want ErrTimeout", err)
	}
	if got := c.State().LastColor; got != want {
		t.Errorf("LastColor after failed send = %v, want %v", got, want)
	}
}

func TestSetColorPercent(t *testing.T) {
	c, ft := newTestController(t)

	if err := c.SetColorPercent(100, 50, 0, 0); err != nil {
		t.Fatalf("SetColorPercent() error = %v", err)
	}
	if got := c.State().LastColor; got != (protocol.RGBW{R: 255, G: 128}) {
		t.Errorf("LastColor = %v", got)
	}

	for _, p := range []float64{-1, 101} {
		if err := c.SetColorPercent(p, 0, 0, 0); !errors.Is(err, protocol.ErrInvalidArgument) {
			t.Errorf("SetColorPercent(%v) error = %v, want ErrInvalidArgument", p, err)
		}
	}
	if len(ft.frames) != 1 {
		t.Errorf("sent %d frames, want 1", len(ft.frames))
	}
}

func TestSaveAndResumeColor(t *testing.T) {
	c, ft := newTestController(t)

	saved := protocol.RGBW{R: 1, G: 2, B: 3, W: 4}
	if err := c.SetColorRGBW(saved); err != nil {
		t.Fatal(err)
	}
	savedFrame := ft.frames[len(ft.frames)-1]
	c.SaveColor()

	other := protocol.RGBW{R: 9, G: 8, B: 7, W: 6}
	if err := c.SetColorRGBW(other); err != nil {
		t.Fatal(err)
	}
	if err := c.ResumeColor(); err != nil {
		t.Fatalf("ResumeColor() error = %v", err)
	}

	last := ft.last(2)
	if !bytes.Equal(last[0], protocol.BuildSetColor(other)) {
		t.Errorf("intermediate frame = % X", last[0])
	}
	if !bytes.Equal(last[1], savedFrame) {
		t.Errorf("resumed frame = % X, want % X", last[1], savedFrame)
	}
	if got := c.State(); got.LastColor != saved || got.SavedColor != saved {
		t.Errorf("State() = %+v", got)
	}
}

func TestSetFlashing(t *testing.T) {
	c, ft := newTestController(t)

	for i := 0; i < 2; i++ {
		if err := c.SetFlashing(true); err != nil {
			t.Fatalf("SetFlashing(true) error = %v", err)
		}
	}
	on := []byte{0x5A, 0xFF, 0xD6, 0x01, 0xA5}
	if len(ft.frames) != 2 || !bytes.Equal(ft.frames[0], on) || !bytes.Equal(ft.frames[1], on) {
		t.Errorf("frames = % X, want two Mode=on frames", ft.frames)
	}
	if !c.State().Flashing {
		t.Error("Flashing = false")
	}

	ft.writeErr = comm.ErrTimeout
	if err := c.SetFlashing(false); err == nil {
		t.Fatal("SetFlashing(false) succeeded on failing transport")
	}
	if !c.State().Flashing {
		t.Error("Flashing changed after failed send")
	}
}

func TestFlashingSettings(t *testing.T) {
	c, ft := newTestController(t)

	if err := c.SetFlashingColors(protocol.Red, protocol.Blue); err != nil {
		t.Fatal(err)
	}
	if err := c.SetFlashingPeriod(18); err != nil {
		t.Fatal(err)
	}
	if err := c.SetID(5); err != nil {
		t.Fatal(err)
	}

	want := [][]byte{
		{0x5A, 0xFF, 0xD3, 255, 0, 0, 0, 0, 0, 255, 0, 0xA5},
		{0x5A, 0xFF, 0xE5, 18, 0xA5},
		{0x5A, 0xFF, 0xAE, 5, 0xA5},
	}
	for i := range want {
		if !bytes.Equal(ft.frames[i], want[i]) {
			t.Errorf("frame %d = % X, want % X", i, ft.frames[i], want[i])
		}
	}

	if err := c.SetFlashingColors(protocol.Red, protocol.Color(42)); !errors.Is(err, protocol.ErrUnknownColor) {
		t.Errorf("SetFlashingColors() error = %v, want ErrUnknownColor", err)
	}
	if len(ft.frames) != len(want) {
		t.Errorf("invalid flashing color sent a frame")
	}
}

func TestPeriodSteps(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want byte
	}{
		{0, 1},
		{27 * time.Millisecond, 1},
		{500 * time.Millisecond, 19},
		{time.Second, 37},
		{time.Minute, 255},
		{255 * 27 * time.Millisecond, 255},
		{100 * time.Hour, 255},
		{time.Duration(math.MaxInt64), 255},
		{-time.Second, 1},
	}
	for _, tt := range tests {
		if got := PeriodSteps(tt.d); got != tt.want {
			t.Errorf("PeriodSteps(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestReadID(t *testing.T) {
	tests := []struct {
		name    string
		b       byte
		err     error
		want    int
		wantErr bool
	}{
		{name: "answer", b: 0x07, want: 7},
		{name: "max", b: 0xFF, want: 255},
		{name: "timeout", err: comm.ErrTimeout, want: -1},
		{name: "fault", err: errors.New("framing error"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ft := newTestController(t)
			ft.readByte, ft.readErr = tt.b, tt.err

			got, err := c.ReadID()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ReadID() = %d, want %d", got, tt.want)
			}
			if !bytes.Equal(ft.frames[0], []byte{0x5A, 0xFF, 0xBE, 0xA5}) {
				t.Errorf("frame = % X", ft.frames[0])
			}
		})
	}
}

func TestClose(t *testing.T) {
	c, ft := newTestController(t)

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if ft.closes != 1 {
		t.Errorf("transport closed %d times, want 1", ft.closes)
	}

	if err := c.SetColor(protocol.Green); !errors.Is(err, comm.ErrNotOpen) {
		t.Errorf("SetColor() after Close error = %v, want ErrNotOpen", err)
	}
	if _, err := c.ReadID(); !errors.Is(err, comm.ErrNotOpen) {
		t.Errorf("ReadID() after Close error = %v, want ErrNotOpen", err)
	}
	if len(ft.frames) != 0 {
		t.Errorf("sent %d frames after Close", len(ft.frames))
	}
}

func TestWithPort(t *testing.T) {
	// a comm.Port over a recording stream behaves like any other transport
	rec := &recorder{}
	c, err := New(comm.NewPort(rec))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if id, err := c.ReadID(); err != nil || id != -1 {
		t.Errorf("ReadID() = %d, %v, want -1", id, err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if !rec.closed {
		t.Error("stream not closed")
	}
}

type recorder struct {
	bytes.Buffer
	closed bool
}

func (r *recorder) Read(p []byte) (int, error) {
	return 0, nil
}

func (r *recorder) Close() error {
	r.closed = true
	return nil
}
