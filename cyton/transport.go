package cyton

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// Transport is the byte-oriented link to the board. Reads are expected to
// block until data arrives or a fixed per-read timeout elapses; a timed-out
// read returns 0 bytes and no error, matching serial port semantics.
//
// A Transport is exclusively owned by one Session. Sharing a serial
// connection between sessions is not supported.
type Transport interface {
	io.ReadWriter

	// Close releases the underlying connection.
	Close() error
}

// Open opens the serial port at the given name and returns a session that
// owns the connection. Terminate closes the port unless overridden with
// WithCloseOnTerminate(false).
//
// Example:
//
//	board, err := cyton.Open("/dev/ttyUSB0",
//	    cyton.WithLogger(logger),
//	    cyton.WithReadTimeout(2*time.Second),
//	)
func Open(portName string, opts ...Option) (*Session, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	mode := &serial.Mode{BaudRate: cfg.BaudRate}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("open port %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}

	if !cfg.closeOnTerminateSet {
		cfg.CloseOnTerminate = true
	}
	return newSession(port, cfg), nil
}

// Attach wraps an already-open transport, such as a port opened by the
// caller or a mock. Terminate leaves the transport open unless overridden
// with WithCloseOnTerminate(true); closing a caller-owned connection is the
// caller's responsibility.
func Attach(t Transport, opts ...Option) *Session {
	if t == nil {
		panic("transport cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return newSession(t, cfg)
}
