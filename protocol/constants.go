package protocol

import "fmt"

// BaudRate is the only line speed the controller understands (8N1).
const BaudRate = 9600

// Frame markers, kept as hex so they read the same as the protocol sheet.
const (
	startMarkerHex = "5AFF"
	endMarkerHex   = "A5"
)

var (
	startMarker = mustHexDecode(startMarkerHex)
	endMarker   = mustHexDecode(endMarkerHex)
)

// Payload sizes per command.
const (
	// ColorPayloadSize is two RGBW quadruples
	ColorPayloadSize = 2 * ChannelCount

	// BytePayloadSize is used by Mode, FlashingPeriod and SetID
	BytePayloadSize = 1

	// ChannelCount is the number of intensity channels of one color (R, G, B, W)
	ChannelCount = 4
)

// Mode payload values.
const (
	ModeStatic   = 0x00
	ModeFlashing = 0x01
)

// FlashingPeriodStep is the approximate device time unit of one FlashingPeriod step in
// milliseconds.
const FlashingPeriodStep = 27

func mustHexDecode(s string) []byte {
	b, err := HexDecode(s)
	if err != nil {
		panic(fmt.Sprintf("protocol: bad marker constant %q: %v", s, err))
	}
	return b
}

// StartMarker returns a copy of the two bytes every frame begins with.
func StartMarker() []byte {
	return append([]byte(nil), startMarker...)
}

// EndMarker returns a copy of the byte every frame ends with.
func EndMarker() []byte {
	return append([]byte(nil), endMarker...)
}
