// Package light drives an RGBW indicator light over its framed serial protocol and
// keeps a local copy of the state the device was last told to show.
//
// A Controller owns its transport exclusively. Operations block until the frame is
// written and must not be called from several goroutines at once; callers that need
// that should funnel commands through one goroutine.
package light

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/thiefmaster/signallight/comm"
	"github.com/thiefmaster/signallight/logging"
	"github.com/thiefmaster/signallight/protocol"
)

// Transport is the byte link to the device.
type Transport interface {
	io.Writer
	io.ByteReader
	io.Closer
}

// State is a snapshot of what the controller believes the device shows.
type State struct {
	LastColor  protocol.RGBW
	SavedColor protocol.RGBW
	Flashing   bool
}

type Controller struct {
	mu     sync.Mutex
	t      Transport
	log    *zap.Logger
	state  State
	closed bool
}

// Open opens the serial port and initializes the light. The port is closed again if
// initialization fails.
func Open(portName string, opts ...Option) (*Controller, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	port, err := comm.Open(comm.Config{Name: portName, ReadTimeout: cfg.readTimeout}, cfg.logger)
	if err != nil {
		return nil, err
	}
	return New(port, opts...)
}

// New takes ownership of t and brings the device into a known state: flashing off,
// then color off. If that fails t is closed before returning.
func New(t Transport, opts ...Option) (*Controller, error) {
	if t == nil {
		return nil, errors.New("transport cannot be nil")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Controller{t: t, log: cfg.logger}
	if err := c.reset(); err != nil {
		if cerr := c.Close(); cerr != nil {
			c.log.Debug("could not close transport", zap.Error(cerr))
		}
		return nil, err
	}
	return c, nil
}

func (c *Controller) reset() error {
	if err := c.SetFlashing(false); err != nil {
		return fmt.Errorf("could not reset flashing mode: %w", err)
	}
	if err := c.SetColor(protocol.Off); err != nil {
		return fmt.Errorf("could not reset color: %w", err)
	}
	return nil
}

// SetColor shows one of the named colors.
func (c *Controller) SetColor(color protocol.Color) error {
	v, err := color.RGBW()
	if err != nil {
		return err
	}
	return c.SetColorRGBW(v)
}

// SetColorRGBW shows an arbitrary color.
func (c *Controller) SetColorRGBW(v protocol.RGBW) error {
	return c.send(protocol.BuildSetColor(v), func(s *State) {
		s.LastColor = v
	})
}

// SetColorPercent shows a color given as four percentages in [0,100].
func (c *Controller) SetColorPercent(r, g, b, w float64) error {
	v, err := protocol.RGBWFromPercent(r, g, b, w)
	if err != nil {
		return err
	}
	return c.SetColorRGBW(v)
}

// SaveColor remembers the current color for ResumeColor. It sends nothing.
func (c *Controller) SaveColor() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SavedColor = c.state.LastColor
}

// ResumeColor shows the color remembered by SaveColor again.
func (c *Controller) ResumeColor() error {
	c.mu.Lock()
	saved := c.state.SavedColor
	c.mu.Unlock()
	return c.SetColorRGBW(saved)
}

// SetFlashing switches between the static color and the two flashing colors. The
// frame is sent even if the state already matches.
func (c *Controller) SetFlashing(on bool) error {
	return c.send(protocol.BuildMode(on), func(s *State) {
		s.Flashing = on
	})
}

// SetFlashingPeriod sets the alternation period in device steps of about 27ms.
func (c *Controller) SetFlashingPeriod(steps byte) error {
	return c.send(protocol.BuildFlashingPeriod(steps), nil)
}

// SetFlashingPeriodDuration converts d to device steps, clamped to 1..255.
func (c *Controller) SetFlashingPeriodDuration(d time.Duration) error {
	return c.SetFlashingPeriod(PeriodSteps(d))
}

// PeriodSteps converts a duration to the nearest number of flashing period steps,
// clamped to 1..255.
func PeriodSteps(d time.Duration) byte {
	step := time.Duration(protocol.FlashingPeriodStep) * time.Millisecond
	if d >= 255*step {
		return 255
	}
	steps := (d + step/2) / step
	switch {
	case steps < 1:
		return 1
	case steps > 255:
		return 255
	default:
		return byte(steps)
	}
}

// SetFlashingColors sets the two colors shown alternately while flashing.
func (c *Controller) SetFlashingColors(first, second protocol.Color) error {
	a, err := first.RGBW()
	if err != nil {
		return err
	}
	b, err := second.RGBW()
	if err != nil {
		return err
	}
	return c.SetFlashingColorsRGBW(a, b)
}

// SetFlashingColorsRGBW is SetFlashingColors for arbitrary colors.
func (c *Controller) SetFlashingColorsRGBW(first, second protocol.RGBW) error {
	return c.send(protocol.BuildFlashingColors(first, second), nil)
}

// SetID assigns the device identifier.
func (c *Controller) SetID(id byte) error {
	return c.send(protocol.BuildSetID(id), nil)
}

// ReadID asks the device for its identifier. It returns -1 if the device does not
// answer within the transport's read timeout.
func (c *Controller) ReadID() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.writeLocked(protocol.BuildReadID()); err != nil {
		return 0, err
	}
	b, err := c.t.ReadByte()
	if errors.Is(err, comm.ErrTimeout) {
		c.log.Debug("no reply to ReadID")
		return -1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("could not read device id: %w", err)
	}
	return int(b), nil
}

// State returns a copy of the cached device state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close closes the transport. It is safe to call more than once; every other
// operation fails with comm.ErrNotOpen afterwards.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.t.Close()
}

// send writes frame and applies update to the cached state only if the write succeeded.
func (c *Controller) send(frame []byte, update func(*State)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.writeLocked(frame); err != nil {
		return err
	}
	if update != nil {
		update(&c.state)
	}
	return nil
}

func (c *Controller) writeLocked(frame []byte) error {
	if c.closed {
		return comm.ErrNotOpen
	}
	logging.LogFrame(c.log, "tx", frame)
	if _, err := c.t.Write(frame); err != nil {
		return fmt.Errorf("could not send frame: %w", err)
	}
	return nil
}
