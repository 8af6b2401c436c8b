// Package sim provides an in-memory MAX3100 that speaks the 16-bit word
// protocol over the max3100.Transport interface.
package sim

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	max3100 "github.com/allbin/go-max3100"
)

var ErrClosed = errors.New("simulated chip is closed")

// Chip models the receive holding register, the transmit register and
// the UART line. Every exchange is one tick of simulated time.
type Chip struct {
	mu sync.Mutex

	config   max3100.Word
	holding  int // -1 when empty
	incoming []byte
	sent     []byte
	words    []max3100.Word

	gap       int // ticks between line arrivals
	sinceLast int
	txLatency int // read-config polls with T clear after each write
	txBusy    int
	loopback  bool
	lossy     bool
	dropped   int

	failAfter int
	failErr   error
	closed    bool
}

var (
	_ max3100.Transport = (*Chip)(nil)
	_ max3100.BusInfo   = (*Chip)(nil)
)

// Option configures a simulated chip
type Option func(*Chip)

// WithLoopback feeds every transmitted byte back to the receiver.
func WithLoopback() Option {
	return func(c *Chip) { c.loopback = true }
}

// WithGap spaces line arrivals n exchanges apart.
func WithGap(n int) Option {
	return func(c *Chip) { c.gap = max(n, 0) }
}

// WithTxLatency keeps T clear for n status polls after each write.
func WithTxLatency(n int) Option {
	return func(c *Chip) { c.txLatency = max(n, 0) }
}

// WithLossy drops line bytes that arrive while the holding register is
// full, as the real chip does. Without it the line waits.
func WithLossy() Option {
	return func(c *Chip) { c.lossy = true }
}

// New returns an idle chip.
func New(opts ...Option) *Chip {
	c := &Chip{holding: -1}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Inject queues bytes on the receive line.
func (c *Chip) Inject(p []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.incoming = append(c.incoming, p...)
}

// FailAfter makes the transfer after the next n succeed return err.
func (c *Chip) FailAfter(n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failAfter = n + 1
	c.failErr = err
}

func (c *Chip) Transfer(tx, rx []byte) error {
	if len(tx) != len(rx) || len(tx)%2 != 0 {
		return fmt.Errorf("sim: transfer of %d/%d bytes is not whole words", len(tx), len(rx))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.failAfter > 0 {
		c.failAfter--
		if c.failAfter == 0 {
			return c.failErr
		}
	}

	for i := 0; i < len(tx); i += 2 {
		w := max3100.Word(binary.BigEndian.Uint16(tx[i:]))
		binary.BigEndian.PutUint16(rx[i:], uint16(c.exchange(w)))
	}
	return nil
}

func (c *Chip) exchange(w max3100.Word) max3100.Word {
	c.words = append(c.words, w)
	c.tick()

	var reply max3100.Word
	if c.txBusy == 0 {
		reply |= max3100.FlagT
	}

	switch w.Command() {
	case max3100.CmdWriteConfig:
		c.config = w
		c.holding = -1
	case max3100.CmdReadConfig:
		if c.holding >= 0 {
			reply |= max3100.FlagR
		}
		reply |= c.config.Payload()
		if c.txBusy > 0 {
			c.txBusy--
		}
	case max3100.CmdWriteData:
		reply |= c.take()
		b := w.Data()
		c.sent = append(c.sent, b)
		if c.loopback {
			c.incoming = append(c.incoming, b)
		}
		c.txBusy = c.txLatency
	case max3100.CmdReadData:
		reply |= c.take()
	}
	return reply
}

// tick moves the next line byte into the holding register when its gap
// has elapsed.
func (c *Chip) tick() {
	c.sinceLast++
	if len(c.incoming) == 0 || c.sinceLast <= c.gap {
		return
	}
	if c.holding >= 0 {
		if c.lossy {
			c.incoming = c.incoming[1:]
			c.dropped++
			c.sinceLast = 0
		}
		return
	}
	c.holding = int(c.incoming[0])
	c.incoming = c.incoming[1:]
	c.sinceLast = 0
}

func (c *Chip) take() max3100.Word {
	if c.holding < 0 {
		return 0
	}
	w := max3100.FlagR | max3100.Word(c.holding)
	c.holding = -1
	return w
}

func (c *Chip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.closed = true
	return nil
}

func (c *Chip) BitsPerWord() uint8 { return 8 }
func (c *Chip) MaxSpeedHz() uint32 { return max3100.DefaultMaxSpeedHz }

// Sent returns the bytes written to the transmit register.
func (c *Chip) Sent() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.sent...)
}

// Words returns every word the chip has received.
func (c *Chip) Words() []max3100.Word {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]max3100.Word(nil), c.words...)
}

// Config returns the last write-config word.
func (c *Chip) Config() max3100.Word {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// Pending returns the bytes still on the line, including the holding register.
func (c *Chip) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.incoming)
	if c.holding >= 0 {
		n++
	}
	return n
}

// Dropped returns the line bytes lost to a full holding register.
func (c *Chip) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

func (c *Chip) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Opener returns an opener that hands out fresh chips built with opts.
func Opener(opts ...Option) max3100.Opener {
	return max3100.OpenerFunc(func(bus, chip int, maxSpeedHz uint32) (max3100.Transport, error) {
		return New(opts...), nil
	})
}
