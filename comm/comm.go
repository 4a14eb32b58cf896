package comm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/tarm/serial"
	"go.uber.org/zap"

	"github.com/thiefmaster/signallight/protocol"
)

var (
	// ErrTimeout is returned when a read or write did not complete in time
	ErrTimeout = errors.New("serial timeout")

	// ErrNotOpen is returned when the port is used after Close
	ErrNotOpen = errors.New("serial port not open")
)

// DefaultReadTimeout is used when Config.ReadTimeout is zero. tarm/serial would
// otherwise block forever on a read.
const DefaultReadTimeout = 500 * time.Millisecond

type Config struct {
	Name        string
	ReadTimeout time.Duration
}

// Port is an exclusively owned link to the light. It is not meant for concurrent use
// except that Close may race with an in-flight operation.
type Port struct {
	mu     sync.Mutex
	conn   io.ReadWriteCloser
	closed bool
}

// Open opens the named serial port at 9600 baud, 8 data bits, 1 stop bit, no parity.
func Open(cfg Config, logger *zap.Logger) (*Port, error) {
	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	logger.Info("opening serial port", zap.String("port", cfg.Name), zap.Duration("read_timeout", timeout))
	conn, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Name,
		Baud:        protocol.BaudRate,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("could not open serial port %s: %w", cfg.Name, err)
	}
	return NewPort(conn), nil
}

// NewPort wraps an already open stream with the port semantics: timeouts reported as
// ErrTimeout, use after close reported as ErrNotOpen, idempotent Close.
func NewPort(conn io.ReadWriteCloser) *Port {
	return &Port{conn: conn}
}

// Write sends p in full or fails.
func (p *Port) Write(b []byte) (int, error) {
	conn, err := p.open()
	if err != nil {
		return 0, err
	}
	n, err := conn.Write(b)
	if err != nil {
		return n, classify("write", err)
	}
	if n != len(b) {
		return n, fmt.Errorf("write: %w (%d of %d bytes)", io.ErrShortWrite, n, len(b))
	}
	return n, nil
}

// ReadByte blocks for at most the configured read timeout. No data within that time
// is reported as ErrTimeout.
func (p *Port) ReadByte() (byte, error) {
	conn, err := p.open()
	if err != nil {
		return 0, err
	}
	var buf [1]byte
	n, err := conn.Read(buf[:])
	if n == 1 {
		return buf[0], nil
	}
	// tarm/serial returns 0, nil (windows) or 0, io.EOF (posix) when VTIME expires
	if err == nil || errors.Is(err, io.EOF) {
		return 0, ErrTimeout
	}
	return 0, classify("read", err)
}

// Close closes the underlying stream once. Further calls return nil.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if err := p.conn.Close(); err != nil {
		return fmt.Errorf("could not close serial port: %w", err)
	}
	return nil
}

func (p *Port) open() (io.ReadWriteCloser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrNotOpen
	}
	return p.conn, nil
}

func classify(op string, err error) error {
	switch {
	case errors.Is(err, os.ErrDeadlineExceeded):
		return fmt.Errorf("%s: %w: %v", op, ErrTimeout, err)
	case errors.Is(err, os.ErrClosed):
		return fmt.Errorf("%s: %w: %v", op, ErrNotOpen, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
