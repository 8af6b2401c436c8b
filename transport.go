package max3100

import (
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/allbin/go-max3100/spidev"
)

// Transport is a full-duplex SPI link to one chip-select.
// Transfer clocks out tx while filling rx; both have the same length and
// the whole slice is one bus transaction.
type Transport interface {
	Transfer(tx, rx []byte) error
	Close() error
}

// FileDescriptor is implemented by transports backed by a device node.
type FileDescriptor interface {
	Fd() int
}

// BusInfo is implemented by transports that know their bus settings.
type BusInfo interface {
	BitsPerWord() uint8
	MaxSpeedHz() uint32
}

// Opener opens the transport for bus and chip-select chip at maxSpeedHz.
type Opener interface {
	OpenTransport(bus, chip int, maxSpeedHz uint32) (Transport, error)
}

// OpenerFunc adapts a function to Opener
type OpenerFunc func(bus, chip int, maxSpeedHz uint32) (Transport, error)

func (f OpenerFunc) OpenTransport(bus, chip int, maxSpeedHz uint32) (Transport, error) {
	return f(bus, chip, maxSpeedHz)
}

// SpidevOpener opens /dev/spidevB.C through the Linux spidev driver.
var SpidevOpener Opener = OpenerFunc(func(bus, chip int, maxSpeedHz uint32) (Transport, error) {
	conn, err := spidev.Open(bus, chip, maxSpeedHz)
	if err != nil {
		return nil, err
	}
	return conn, nil
})

// encodeWord puts w on the wire high byte first.
func encodeWord(w Word, buf []byte) {
	binary.BigEndian.PutUint16(buf, uint16(w))
}

func decodeWord(buf []byte) Word {
	return Word(binary.BigEndian.Uint16(buf))
}

// exchange16 performs exactly one 2-byte transfer.
func exchange16(t Transport, w Word) (Word, error) {
	var tx, rx [2]byte
	encodeWord(w, tx[:])
	if err := t.Transfer(tx[:], rx[:]); err != nil {
		return 0, err
	}
	return decodeWord(rx[:]), nil
}

func isNilTransport(t Transport) bool {
	if t == nil {
		return true
	}
	v := reflect.ValueOf(t)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func openTransport(o Opener, bus, chip int, hz uint32) (Transport, error) {
	t, err := o.OpenTransport(bus, chip, hz)
	if err != nil {
		return nil, fmt.Errorf("failed to open spi bus %d.%d: %w", bus, chip, err)
	}
	if isNilTransport(t) {
		return nil, fmt.Errorf("failed to open spi bus %d.%d: opener returned no transport", bus, chip)
	}
	return t, nil
}
