package protocol

import (
	"errors"
	"math"
	"testing"
)

func TestColorRGBW(t *testing.T) {
	tests := []struct {
		color Color
		want  RGBW
	}{
		{Off, RGBW{0, 0, 0, 0}},
		{Red, RGBW{255, 0, 0, 0}},
		{Green, RGBW{0, 255, 0, 0}},
		{Blue, RGBW{0, 0, 255, 0}},
		{White, RGBW{0, 0, 0, 255}},
		{Yellow, RGBW{255, 255, 0, 0}},
		{Orange, RGBW{255, 128, 0, 0}},
		{Cyan, RGBW{0, 255, 255, 0}},
		{Magenta, RGBW{255, 0, 255, 0}},
	}

	if len(tests) != len(Colors()) {
		t.Fatalf("table covers %d colors, package has %d", len(tests), len(Colors()))
	}

	for _, tt := range tests {
		t.Run(tt.color.String(), func(t *testing.T) {
			got, err := tt.color.RGBW()
			if err != nil {
				t.Fatalf("RGBW() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("RGBW() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestColorRGBW_Unknown(t *testing.T) {
	_, err := Color(200).RGBW()
	if !errors.Is(err, ErrUnknownColor) {
		t.Errorf("error = %v, want ErrUnknownColor", err)
	}
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("error = %v, want it to be an ErrInvalidArgument", err)
	}
}

func TestParseColor(t *testing.T) {
	for _, c := range Colors() {
		got, err := ParseColor(c.String())
		if err != nil {
			t.Errorf("ParseColor(%q) error = %v", c.String(), err)
			continue
		}
		if got != c {
			t.Errorf("ParseColor(%q) = %v, want %v", c.String(), got, c)
		}
	}

	if got, err := ParseColor("  MAGENTA "); err != nil || got != Magenta {
		t.Errorf("ParseColor(\"  MAGENTA \") = %v, %v", got, err)
	}
	if _, err := ParseColor("purple"); !errors.Is(err, ErrUnknownColor) {
		t.Errorf("ParseColor(\"purple\") error = %v, want ErrUnknownColor", err)
	}
}

func TestPercentToByte(t *testing.T) {
	tests := []struct {
		percent float64
		want    byte
		wantErr bool
	}{
		{percent: 0, want: 0},
		{percent: 100, want: 255},
		{percent: 50, want: 128},
		{percent: 10, want: 26},
		{percent: 0.1, want: 0},
		{percent: 101, wantErr: true},
		{percent: -1, wantErr: true},
		{percent: math.NaN(), wantErr: true},
	}

	for _, tt := range tests {
		got, err := PercentToByte(tt.percent)
		if tt.wantErr {
			if !errors.Is(err, ErrOutOfRange) {
				t.Errorf("PercentToByte(%v) error = %v, want ErrOutOfRange", tt.percent, err)
			}
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("PercentToByte(%v) error = %v, want it to be an ErrInvalidArgument", tt.percent, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("PercentToByte(%v) unexpected error: %v", tt.percent, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PercentToByte(%v) = %d, want %d", tt.percent, got, tt.want)
		}
	}
}

func TestRGBWFromPercent(t *testing.T) {
	got, err := RGBWFromPercent(100, 0, 50, 10)
	if err != nil {
		t.Fatalf("RGBWFromPercent() error = %v", err)
	}
	want := RGBW{255, 0, 128, 26}
	if got != want {
		t.Errorf("RGBWFromPercent() = %v, want %v", got, want)
	}

	if _, err := RGBWFromPercent(0, 0, 0, 100.5); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("RGBWFromPercent() error = %v, want ErrOutOfRange", err)
	}
}

func TestRGBWFromBytes(t *testing.T) {
	got, err := RGBWFromBytes([]byte{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("RGBWFromBytes() error = %v", err)
	}
	if got != (RGBW{1, 2, 3, 4}) {
		t.Errorf("RGBWFromBytes() = %v", got)
	}

	for _, b := range [][]byte{nil, {1, 2, 3}, {1, 2, 3, 4, 5}} {
		if _, err := RGBWFromBytes(b); !errors.Is(err, ErrInvalidLength) {
			t.Errorf("RGBWFromBytes(%v) error = %v, want ErrInvalidLength", b, err)
		}
	}
}
