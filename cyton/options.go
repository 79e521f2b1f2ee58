package cyton

import (
	"time"

	"github.com/rs/zerolog"
)

// Config holds the session configuration.
type Config struct {
	// Logger receives session events. Non-fatal protocol conditions
	// (skipped sync bytes, unset gain fallback, unsupported stop bytes,
	// unparseable replies) are reported here at warn level.
	Logger zerolog.Logger

	// BaudRate is used when opening a port with Open
	BaudRate int

	// ReadTimeout is the fixed per-read timeout, set once at open time
	ReadTimeout time.Duration

	// SettleDelay is the pause between consecutive channel commands in
	// SetChannelConfigs. Channel commands are not strictly ack-gated and
	// the board needs processing time between them.
	SettleDelay time.Duration

	// CloseOnTerminate controls whether Terminate closes the transport.
	// Defaults to true for Open and false for Attach.
	CloseOnTerminate bool

	closeOnTerminateSet bool
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Logger:      zerolog.Nop(),
		BaudRate:    115200,
		ReadTimeout: 2 * time.Second,
		SettleDelay: 250 * time.Millisecond,
	}
}

// Option is a functional option for configuring a Session.
type Option func(*Config)

// WithLogger sets the logger for session events.
//
// Example:
//
//	board := cyton.Attach(t, cyton.WithLogger(log.Logger))
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithBaudRate sets the baud rate used by Open. Default is 115200.
func WithBaudRate(baud int) Option {
	return func(c *Config) {
		if baud > 0 {
			c.BaudRate = baud
		}
	}
}

// WithReadTimeout sets the per-read timeout used by Open. Default is 2s.
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.ReadTimeout = timeout
		}
	}
}

// WithSettleDelay sets the pause between consecutive channel commands.
// Default is 250ms.
func WithSettleDelay(delay time.Duration) Option {
	return func(c *Config) {
		if delay >= 0 {
			c.SettleDelay = delay
		}
	}
}

// WithCloseOnTerminate overrides whether Terminate closes the transport.
func WithCloseOnTerminate(close bool) Option {
	return func(c *Config) {
		c.CloseOnTerminate = close
		c.closeOnTerminateSet = true
	}
}
