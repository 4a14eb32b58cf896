package protocol

import "fmt"

// Encode builds the frame for cmd:
//
//	[0x5A][0xFF][OPCODE][PAYLOAD...][0xA5]
//
// The payload is not checked against the command; use the Build helpers for
// command-correct payloads.
func Encode(cmd Command, payload []byte) []byte {
	frame := make([]byte, 0, len(startMarker)+1+len(payload)+len(endMarker))
	frame = append(frame, startMarker...)
	frame = append(frame, cmd.Opcode())
	frame = append(frame, payload...)
	frame = append(frame, endMarker...)
	return frame
}

// Decode splits a frame into its command and payload. Unlike Encode it is strict:
// the markers, the opcode and the payload size of the opcode must all match.
func Decode(frame []byte) (Command, []byte, error) {
	minSize := len(startMarker) + 1 + len(endMarker)
	if len(frame) < minSize {
		return 0, nil, fmt.Errorf("%w: %d bytes is shorter than %d", ErrMalformedFrame, len(frame), minSize)
	}
	for i, b := range startMarker {
		if frame[i] != b {
			return 0, nil, fmt.Errorf("%w: bad start marker % X", ErrMalformedFrame, frame[:len(startMarker)])
		}
	}
	tail := frame[len(frame)-len(endMarker):]
	for i, b := range endMarker {
		if tail[i] != b {
			return 0, nil, fmt.Errorf("%w: bad end marker % X", ErrMalformedFrame, tail)
		}
	}

	cmd := Command(frame[len(startMarker)])
	if !cmd.Valid() {
		return 0, nil, fmt.Errorf("%w: unknown opcode 0x%02X", ErrMalformedFrame, cmd.Opcode())
	}
	payload := frame[len(startMarker)+1 : len(frame)-len(endMarker)]
	if len(payload) != cmd.PayloadSize() {
		return 0, nil, fmt.Errorf("%w: %s expects %d payload bytes, got %d",
			ErrMalformedFrame, cmd, cmd.PayloadSize(), len(payload))
	}
	return cmd, append([]byte(nil), payload...), nil
}

// BuildSetColor returns a SetColor frame: the color followed by four zero bytes.
func BuildSetColor(v RGBW) []byte {
	return Encode(CmdSetColor, colorPayload(v, RGBW{}))
}

// BuildFlashingColors returns a ChangeFlashingColors frame for the two alternating colors.
func BuildFlashingColors(first, second RGBW) []byte {
	return Encode(CmdChangeFlashingColors, colorPayload(first, second))
}

// BuildMode returns a Mode frame switching flashing on or off.
func BuildMode(flashing bool) []byte {
	mode := byte(ModeStatic)
	if flashing {
		mode = ModeFlashing
	}
	return Encode(CmdMode, []byte{mode})
}

// BuildFlashingPeriod returns a FlashingPeriod frame; one step is about FlashingPeriodStep ms.
func BuildFlashingPeriod(steps byte) []byte {
	return Encode(CmdFlashingPeriod, []byte{steps})
}

// BuildSetID returns a SetID frame.
func BuildSetID(id byte) []byte {
	return Encode(CmdSetID, []byte{id})
}

// BuildReadID returns the command-only ReadID frame. The device answers with one
// unframed byte.
func BuildReadID() []byte {
	return Encode(CmdReadID, nil)
}

func colorPayload(first, second RGBW) []byte {
	payload := make([]byte, 0, ColorPayloadSize)
	payload = append(payload, first.Bytes()...)
	return append(payload, second.Bytes()...)
}
