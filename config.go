package max3100

import (
	"io"
	"log/slog"
)

// Defaults used when no option overrides them
const (
	DefaultBaudRate   = 9600
	DefaultMaxSpeedHz = 7800000
	DefaultMaxMisses  = 10
	DefaultBufferSize = 8192
)

// Config holds the configuration for a MAX3100 device
type Config struct {
	Crystal    Crystal
	BaudRate   int
	MaxSpeedHz uint32 // SPI clock limit passed to the bus layer
	MaxMisses  int    // consecutive empty read-data polls that end a pump
	BufferSize int    // ring capacity; holds BufferSize-1 bytes
	Logger     *slog.Logger
	Opener     Opener
}

// Option is a functional option for configuring a device
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		Crystal:    X2,
		BaudRate:   DefaultBaudRate,
		MaxSpeedHz: DefaultMaxSpeedHz,
		MaxMisses:  DefaultMaxMisses,
		BufferSize: DefaultBufferSize,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Opener:     SpidevOpener,
	}
}

// WithCrystal selects the oscillator (X1 or X2)
func WithCrystal(c Crystal) Option {
	return func(cfg *Config) error {
		if c != X1 && c != X2 {
			return ErrInvalidConfig
		}
		cfg.Crystal = c
		return nil
	}
}

// WithBaudRate sets the UART baud rate.
// Rates missing from the crystal's table fall back to 9600 at open.
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if rate <= 0 {
			return ErrInvalidConfig
		}
		c.BaudRate = rate
		return nil
	}
}

// WithMaxSpeedHz sets the SPI clock limit
func WithMaxSpeedHz(hz uint32) Option {
	return func(c *Config) error {
		if hz == 0 {
			return ErrInvalidConfig
		}
		c.MaxSpeedHz = hz
		return nil
	}
}

// WithMaxMisses sets how many empty polls in a row end a receive pump (>= 1)
func WithMaxMisses(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return ErrInvalidConfig
		}
		c.MaxMisses = n
		return nil
	}
}

// WithBufferSize sets the receive ring capacity (>= 2)
func WithBufferSize(n int) Option {
	return func(c *Config) error {
		if n < 2 {
			return ErrInvalidConfig
		}
		c.BufferSize = n
		return nil
	}
}

// WithLogger sets the logger used for exchange tracing
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return ErrInvalidConfig
		}
		c.Logger = l
		return nil
	}
}

// WithOpener sets the bus layer used to open the transport
func WithOpener(o Opener) Option {
	return func(c *Config) error {
		if o == nil {
			return ErrInvalidConfig
		}
		c.Opener = o
		return nil
	}
}

// WithTransport uses an already open transport instead of an Opener.
// The option is good for one open: Close closes t, and a later Open with
// the same option fails on the closed transport. Pass a fresh transport to
// reopen.
func WithTransport(t Transport) Option {
	return func(c *Config) error {
		if isNilTransport(t) {
			return ErrInvalidConfig
		}
		c.Opener = OpenerFunc(func(int, int, uint32) (Transport, error) { return t, nil })
		return nil
	}
}
