package protocol

import "fmt"

// Command is a protocol opcode. The set is closed; the constant value is the byte
// sent on the wire.
type Command byte

const (
	CmdSetColor             Command = 0xCA
	CmdChangeFlashingColors Command = 0xD3
	CmdMode                 Command = 0xD6
	CmdFlashingPeriod       Command = 0xE5
	CmdSetID                Command = 0xAE
	CmdReadID               Command = 0xBE
)

// Opcode returns the wire byte of the command.
func (c Command) Opcode() byte {
	return byte(c)
}

// Valid reports whether c is one of the known commands.
func (c Command) Valid() bool {
	switch c {
	case CmdSetColor, CmdChangeFlashingColors, CmdMode, CmdFlashingPeriod, CmdSetID, CmdReadID:
		return true
	}
	return false
}

// PayloadSize returns the number of payload bytes the command carries, or -1 for an
// unknown command.
func (c Command) PayloadSize() int {
	switch c {
	case CmdSetColor, CmdChangeFlashingColors:
		return ColorPayloadSize
	case CmdMode, CmdFlashingPeriod, CmdSetID:
		return BytePayloadSize
	case CmdReadID:
		return 0
	default:
		return -1
	}
}

func (c Command) String() string {
	switch c {
	case CmdSetColor:
		return "SetColor"
	case CmdChangeFlashingColors:
		return "ChangeFlashingColors"
	case CmdMode:
		return "Mode"
	case CmdFlashingPeriod:
		return "FlashingPeriod"
	case CmdSetID:
		return "SetID"
	case CmdReadID:
		return "ReadID"
	default:
		return fmt.Sprintf("Command(0x%02X)", byte(c))
	}
}
