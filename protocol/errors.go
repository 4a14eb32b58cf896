package protocol

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is the parent of every argument validation error.
var ErrInvalidArgument = errors.New("invalid argument")

var (
	// ErrUnknownColor is returned for a Color outside the closed set
	ErrUnknownColor = fmt.Errorf("%w: unknown color", ErrInvalidArgument)

	// ErrOutOfRange is returned for a percentage outside [0,100]
	ErrOutOfRange = fmt.Errorf("%w: value out of range", ErrInvalidArgument)

	// ErrInvalidLength is returned when a raw color is not exactly ChannelCount bytes
	ErrInvalidLength = fmt.Errorf("%w: invalid length", ErrInvalidArgument)
)

// ErrMalformedHex is returned by HexDecode for odd length or non-hex input.
var ErrMalformedHex = errors.New("malformed hex")

// ErrMalformedFrame is returned by Decode for anything that is not a well-formed frame.
var ErrMalformedFrame = errors.New("malformed frame")
