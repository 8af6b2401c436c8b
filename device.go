package max3100

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Device is a handle to one MAX3100 on an SPI bus.
// The zero value is a closed device; Open connects it.
type Device struct {
	mu     sync.Mutex
	t      Transport
	config Config
	log    *slog.Logger
	word   Word
	bits   uint8
	speed  uint32
	bus    int
	chip   int
	rx     *ring
	stats  Stats
}

// Ensure Device implements the standard stream interfaces at compile time
var (
	_ io.ReadWriteCloser = (*Device)(nil)
	_ io.ByteWriter      = (*Device)(nil)
)

// Open opens the MAX3100 on bus and chip-select chip.
func Open(bus, chip int, opts ...Option) (*Device, error) {
	d := &Device{}
	if err := d.Open(bus, chip, opts...); err != nil {
		return nil, err
	}
	return d, nil
}

// Open connects a closed device, configures the bus and sends the
// configuration word. On failure the device stays closed.
func (d *Device) Open(bus, chip int, opts ...Option) error {
	const op = "open"

	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return newError(KindInvalidArgument, op, err)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.t != nil {
		return newError(KindInvalidState, op, ErrAlreadyOpen)
	}

	log := config.Logger.With("bus", bus, "chip", chip)
	if _, ok := LookupBaud(config.Crystal, config.BaudRate); !ok {
		log.Warn("unsupported baud rate, using fallback",
			"baud", config.BaudRate, "crystal", config.Crystal, "fallback", FallbackBaud)
	}

	t, err := openTransport(config.Opener, bus, chip, config.MaxSpeedHz)
	if err != nil {
		return newError(KindTransport, op, err)
	}

	bits, speed := uint8(8), config.MaxSpeedHz
	if info, ok := t.(BusInfo); ok {
		bits, speed = info.BitsPerWord(), info.MaxSpeedHz()
	}

	word := ConfigWord(config.Crystal, config.BaudRate)
	if _, err := exchange16(t, word); err != nil {
		t.Close()
		return newError(KindTransport, op, fmt.Errorf("failed to write configuration: %w", err))
	}

	d.t = t
	d.config = config
	d.log = log
	d.word = word
	d.bits = bits
	d.speed = speed
	d.bus = bus
	d.chip = chip
	d.rx = newRing(config.BufferSize)
	d.stats = Stats{Exchanges: 1}

	log.Debug("opened", "config", word, "baud", config.BaudRate, "crystal", config.Crystal,
		"bits", bits, "speed_hz", speed, "max_misses", config.MaxMisses)
	return nil
}

// Close releases the transport. Closing a closed device is a no-op.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.t == nil {
		return nil
	}

	err := d.t.Close()
	d.log.Debug("closed", "stats", d.stats)
	d.t = nil
	d.config = Config{}
	d.word = 0
	d.bits = 0
	d.speed = 0
	d.rx = nil
	if err != nil {
		return newError(KindTransport, "close", err)
	}
	return nil
}

// IsOpen reports whether the device has a transport.
func (d *Device) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.t != nil
}

func (d *Device) ready(op string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.checkOpen(op)
}

func (d *Device) checkOpen(op string) error {
	if d.t == nil {
		return newError(KindInvalidState, op, ErrDeviceClosed)
	}
	return nil
}

// Write transmits p one byte at a time, waiting for the transmit register
// to empty before each byte. It blocks until every byte is sent.
func (d *Device) Write(p []byte) (int, error) {
	return d.WriteContext(context.Background(), p)
}

// WriteContext is Write with cancellation checked between status polls.
// Other operations may run between polls. On error the count includes
// every byte that reached the transmitter.
func (d *Device) WriteContext(ctx context.Context, p []byte) (int, error) {
	const op = "write"

	if err := d.ready(op); err != nil {
		return 0, err
	}
	for i, b := range p {
		sent, err := d.putByte(ctx, op, b)
		if err != nil {
			if sent {
				i++
			}
			return i, err
		}
	}
	return len(p), nil
}

// WriteByte transmits a single byte.
func (d *Device) WriteByte(b byte) error {
	_, err := d.Write([]byte{b})
	return err
}

// WriteValues transmits integer byte values. Every value is checked before
// anything is sent, so a bad value means nothing was written.
func (d *Device) WriteValues(values []int) error {
	const op = "write"

	if len(values) == 0 {
		return newError(KindInvalidArgument, op, fmt.Errorf("no values to write"))
	}
	p := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 0xFF {
			return newError(KindInvalidArgument, op, fmt.Errorf("%w: values[%d] = %d", ErrByteRange, i, v))
		}
		p[i] = byte(v)
	}
	_, err := d.Write(p)
	return err
}

// Receive reads from the receive buffer after pumping the chip.
//
//   - length > 0 blocks until exactly length bytes are collected
//   - length == 0 returns everything buffered, possibly nothing
//   - length < 0 returns at most -length bytes without blocking
func (d *Device) Receive(length int) ([]byte, error) {
	return d.ReceiveContext(context.Background(), length)
}

// ReceiveContext is Receive with cancellation for blocking reads.
// On cancellation the bytes already collected are returned with the error.
func (d *Device) ReceiveContext(ctx context.Context, length int) ([]byte, error) {
	const op = "read"

	if length <= 0 {
		d.mu.Lock()
		defer d.mu.Unlock()

		if err := d.checkOpen(op); err != nil {
			return nil, err
		}
		if err := d.pump(op); err != nil {
			return nil, err
		}
		n := d.rx.len()
		// -math.MinInt is still negative; treat it as no limit
		if k := -length; k > 0 {
			n = min(n, k)
		}
		out := make([]byte, n)
		d.rx.get(out)
		return out, nil
	}

	if err := d.ready(op); err != nil {
		return nil, err
	}
	// collect in ring-sized chunks, length only bounds the result
	buf := make([]byte, min(length, d.capacity()))
	out := make([]byte, 0, len(buf))
	for len(out) < length {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		n, err := d.collect(op, buf[:min(len(buf), length-len(out))])
		out = append(out, buf[:n]...)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

func (d *Device) capacity() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return max(d.config.BufferSize, 1)
}

// Read waits until at least one byte is available, then returns up to
// len(p) bytes without further blocking.
func (d *Device) Read(p []byte) (int, error) {
	return d.ReadContext(context.Background(), p)
}

// ReadContext is Read with cancellation checked between pumps.
func (d *Device) ReadContext(ctx context.Context, p []byte) (int, error) {
	const op = "read"

	if err := d.ready(op); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := d.collect(op, p)
		if n > 0 || err != nil {
			return n, err
		}
	}
}

// collect runs one pump and moves buffered bytes into p.
func (d *Device) collect(op string, p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkOpen(op); err != nil {
		return 0, err
	}
	if err := d.pump(op); err != nil {
		return 0, err
	}
	return d.rx.get(p), nil
}

// Available pumps the chip and returns the number of buffered bytes.
func (d *Device) Available() (int, error) {
	const op = "available"

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkOpen(op); err != nil {
		return 0, err
	}
	if err := d.pump(op); err != nil {
		return 0, err
	}
	return d.rx.len(), nil
}

// Clear pumps the chip and then discards everything buffered.
func (d *Device) Clear() error {
	const op = "clear"

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkOpen(op); err != nil {
		return err
	}
	if err := d.pump(op); err != nil {
		return err
	}
	d.log.Debug("cleared", "discarded", d.rx.len())
	d.rx.reset()
	return nil
}

// Fd returns the bus file descriptor when the transport has one.
func (d *Device) Fd() (int, error) {
	const op = "fileno"

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkOpen(op); err != nil {
		return -1, err
	}
	if f, ok := d.t.(FileDescriptor); ok {
		return f.Fd(), nil
	}
	return -1, newError(KindInvalidState, op, ErrNoFd)
}

// ConfigWord returns the configuration word sent at open, or 0 when closed.
func (d *Device) ConfigWord() Word {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.word
}

// BitsPerWord returns the bus word size, or 0 when closed.
func (d *Device) BitsPerWord() uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bits
}

// MaxSpeedHz returns the bus clock limit, or 0 when closed.
func (d *Device) MaxSpeedHz() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.speed
}

// Config returns the configuration the device was opened with.
func (d *Device) Config() Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.config
}

// Stats returns a snapshot of the bus counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func (d *Device) String() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.t == nil {
		return "max3100(closed)"
	}
	return fmt.Sprintf("max3100(spi%d.%d, %d baud, %s)", d.bus, d.chip, d.config.BaudRate, d.config.Crystal)
}
