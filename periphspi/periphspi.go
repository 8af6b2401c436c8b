// Package periphspi adapts periph.io SPI connections to the max3100
// transport interface, so the driver can run on any bus periph supports
// (native spidev, FT232H, MCP2221 and friends).
package periphspi

import (
	"fmt"
	"io"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	max3100 "github.com/allbin/go-max3100"
)

// Transport wraps a connected spi.Conn
type Transport struct {
	conn   spi.Conn
	closer io.Closer
	speed  uint32
	bits   uint8
}

var (
	_ max3100.Transport = (*Transport)(nil)
	_ max3100.BusInfo   = (*Transport)(nil)
)

// New wraps conn. closer may be nil when the caller owns the port.
func New(conn spi.Conn, closer io.Closer, speedHz uint32, bits uint8) *Transport {
	return &Transport{conn: conn, closer: closer, speed: speedHz, bits: bits}
}

// Connect configures port for the MAX3100 (mode 0, 8 bit words) at speedHz.
func Connect(port spi.Port, closer io.Closer, speedHz uint32) (*Transport, error) {
	conn, err := port.Connect(physic.Frequency(speedHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("failed to connect spi port: %w", err)
	}
	return New(conn, closer, speedHz, 8), nil
}

func (t *Transport) Transfer(tx, rx []byte) error {
	return t.conn.Tx(tx, rx)
}

func (t *Transport) Close() error {
	if t.closer == nil {
		return nil
	}
	return t.closer.Close()
}

func (t *Transport) BitsPerWord() uint8 { return t.bits }
func (t *Transport) MaxSpeedHz() uint32 { return t.speed }

func (t *Transport) String() string {
	return fmt.Sprintf("periph(%s)", t.conn)
}

var (
	initOnce sync.Once
	initErr  error
)

func initHost() error {
	initOnce.Do(func() {
		_, initErr = host.Init()
	})
	return initErr
}

// PortName returns the periph registry name for bus and chip.
func PortName(bus, chip int) string {
	return fmt.Sprintf("SPI%d.%d", bus, chip)
}

// Opener opens ports through the periph host registry.
var Opener max3100.Opener = max3100.OpenerFunc(func(bus, chip int, maxSpeedHz uint32) (max3100.Transport, error) {
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	port, err := spireg.Open(PortName(bus, chip))
	if err != nil {
		return nil, err
	}
	t, err := Connect(port, port, maxSpeedHz)
	if err != nil {
		port.Close()
		return nil, err
	}
	return t, nil
})

// Ports lists the SPI ports registered with periph.
func Ports() ([]string, error) {
	if err := initHost(); err != nil {
		return nil, err
	}
	var names []string
	for _, ref := range spireg.All() {
		names = append(names, ref.Name)
	}
	return names, nil
}
