package protocol

import (
	"fmt"
	"math"
	"strings"
)

// Color is one of the named colors the light knows. Off is the zero value.
type Color uint8

const (
	Off Color = iota
	Red
	Green
	Blue
	White
	Yellow
	Orange
	Cyan
	Magenta

	colorCount
)

// RGBW is one color as four 8-bit channel intensities. White has its own channel;
// no named color mixes it with R, G or B.
type RGBW struct {
	R, G, B, W uint8
}

var colorTable = [colorCount]RGBW{
	Off:     {0, 0, 0, 0},
	Red:     {255, 0, 0, 0},
	Green:   {0, 255, 0, 0},
	Blue:    {0, 0, 255, 0},
	White:   {0, 0, 0, 255},
	Yellow:  {255, 255, 0, 0},
	Orange:  {255, 128, 0, 0},
	Cyan:    {0, 255, 255, 0},
	Magenta: {255, 0, 255, 0},
}

var colorNames = [colorCount]string{
	Off:     "off",
	Red:     "red",
	Green:   "green",
	Blue:    "blue",
	White:   "white",
	Yellow:  "yellow",
	Orange:  "orange",
	Cyan:    "cyan",
	Magenta: "magenta",
}

// Colors returns every named color in declaration order.
func Colors() []Color {
	colors := make([]Color, 0, colorCount)
	for c := Off; c < colorCount; c++ {
		colors = append(colors, c)
	}
	return colors
}

// Valid reports whether c is inside the closed set of colors.
func (c Color) Valid() bool {
	return c < colorCount
}

// RGBW returns the fixed channel values of c.
func (c Color) RGBW() (RGBW, error) {
	if !c.Valid() {
		return RGBW{}, fmt.Errorf("%w: %d", ErrUnknownColor, uint8(c))
	}
	return colorTable[c], nil
}

func (c Color) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Color(%d)", uint8(c))
	}
	return colorNames[c]
}

// ParseColor looks up a color by its case-insensitive name.
func ParseColor(name string) (Color, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for c, n := range colorNames {
		if n == name {
			return Color(c), nil
		}
	}
	return Off, fmt.Errorf("%w: %q", ErrUnknownColor, name)
}

// RGBWFromBytes builds a color from exactly ChannelCount raw bytes in R, G, B, W order.
func RGBWFromBytes(b []byte) (RGBW, error) {
	if len(b) != ChannelCount {
		return RGBW{}, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidLength, ChannelCount, len(b))
	}
	return RGBW{R: b[0], G: b[1], B: b[2], W: b[3]}, nil
}

// RGBWFromPercent builds a color from four percentages, see PercentToByte.
func RGBWFromPercent(r, g, b, w float64) (RGBW, error) {
	var out [ChannelCount]byte
	for i, p := range [ChannelCount]float64{r, g, b, w} {
		v, err := PercentToByte(p)
		if err != nil {
			return RGBW{}, err
		}
		out[i] = v
	}
	return RGBW{R: out[0], G: out[1], B: out[2], W: out[3]}, nil
}

// PercentToByte scales a percentage in [0,100] linearly to [0,255], rounding half away
// from zero (50 -> 128). Values outside the range are rejected, not clamped.
func PercentToByte(p float64) (byte, error) {
	if math.IsNaN(p) || p < 0 || p > 100 {
		return 0, fmt.Errorf("%w: %v not in [0,100]", ErrOutOfRange, p)
	}
	return byte(math.Round(p * 255 / 100)), nil
}

// Bytes returns the four channels in wire order.
func (v RGBW) Bytes() []byte {
	return []byte{v.R, v.G, v.B, v.W}
}

// IsOff reports whether every channel is zero.
func (v RGBW) IsOff() bool {
	return v == RGBW{}
}

func (v RGBW) String() string {
	return fmt.Sprintf("rgbw(%d,%d,%d,%d)", v.R, v.G, v.B, v.W)
}
