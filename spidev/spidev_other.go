//go:build !linux

package spidev

// Conn is unavailable outside linux
type Conn struct{}

func Open(bus, chip int, maxSpeedHz uint32) (*Conn, error) {
	return nil, ErrUnsupported
}

func OpenPath(path string, maxSpeedHz uint32) (*Conn, error) {
	return nil, ErrUnsupported
}

func Info(path string) (*DeviceInfo, error) {
	return nil, ErrUnsupported
}

func (c *Conn) Transfer(tx, rx []byte) error { return ErrUnsupported }
func (c *Conn) SetMode(m Mode) error { return ErrUnsupported }
func (c *Conn) SetBitsPerWord(b uint8) error { return ErrUnsupported }
func (c *Conn) Close() error { return ErrUnsupported }
func (c *Conn) Fd() int { return -1 }
func (c *Conn) Path() string { return "" }
func (c *Conn) Mode() Mode { return 0 }
func (c *Conn) BitsPerWord() uint8 { return 0 }
func (c *Conn) MaxSpeedHz() uint32 { return 0 }
