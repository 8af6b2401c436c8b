//go:build linux

package spidev

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Conn is an open /dev/spidevB.C node
type Conn struct {
	mu     sync.Mutex
	fd     int
	path   string
	mode   Mode
	bits   uint8
	speed  uint32
	closed bool
}

// Open opens /dev/spidev<bus>.<chip>, reads its mode and word size and sets
// the maximum clock speed.
func Open(bus, chip int, maxSpeedHz uint32) (*Conn, error) {
	return OpenPath(DevicePath(bus, chip), maxSpeedHz)
}

// OpenPath opens a spidev node by path.
func OpenPath(path string, maxSpeedHz uint32) (*Conn, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, classify(err))
	}

	c := &Conn{fd: fd, path: path}

	var mode uint8
	if err := ioctlPtr(fd, reqRdMode, unsafe.Pointer(&mode)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to read spi mode: %w", err)
	}
	c.mode = Mode(mode)

	if err := ioctlPtr(fd, reqRdBitsPerWord, unsafe.Pointer(&c.bits)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to read bits per word: %w", err)
	}
	// spidev reports 0 for the default of 8
	if c.bits == 0 {
		c.bits = 8
	}

	if maxSpeedHz > 0 {
		speed := maxSpeedHz
		if err := ioctlPtr(fd, reqWrMaxSpeedHz, unsafe.Pointer(&speed)); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("failed to set max speed %d Hz: %w", maxSpeedHz, err)
		}
	}
	if err := ioctlPtr(fd, reqRdMaxSpeedHz, unsafe.Pointer(&c.speed)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to read max speed: %w", err)
	}

	return c, nil
}

// Transfer clocks tx out while reading the same number of bytes into rx.
func (c *Conn) Transfer(tx, rx []byte) error {
	if len(tx) != len(rx) {
		return fmt.Errorf("spidev transfer: tx length %d != rx length %d", len(tx), len(rx))
	}
	if len(tx) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	xfer := transfer{
		txBuf:       uint64(uintptr(unsafe.Pointer(&tx[0]))),
		rxBuf:       uint64(uintptr(unsafe.Pointer(&rx[0]))),
		length:      uint32(len(tx)),
		speedHz:     c.speed,
		bitsPerWord: c.bits,
	}
	if err := ioctlPtr(c.fd, messageRequest(1), unsafe.Pointer(&xfer)); err != nil {
		return fmt.Errorf("spidev transfer on %s: %w", c.path, err)
	}
	return nil
}

// SetMode changes the clock mode.
func (c *Conn) SetMode(m Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	v := uint8(m)
	if err := ioctlPtr(c.fd, reqWrMode, unsafe.Pointer(&v)); err != nil {
		return fmt.Errorf("failed to set spi mode: %w", err)
	}
	c.mode = m
	return nil
}

// SetBitsPerWord changes the word size.
func (c *Conn) SetBitsPerWord(bits uint8) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if err := ioctlPtr(c.fd, reqWrBitsPerWord, unsafe.Pointer(&bits)); err != nil {
		return fmt.Errorf("failed to set bits per word: %w", err)
	}
	c.bits = bits
	return nil
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	c.closed = true
	return unix.Close(c.fd)
}

func (c *Conn) Fd() int { return c.fd }
func (c *Conn) Path() string { return c.path }
func (c *Conn) Mode() Mode { return c.mode }
func (c *Conn) BitsPerWord() uint8 { return c.bits }
func (c *Conn) MaxSpeedHz() uint32 { return c.speed }

func ioctlPtr(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func classify(err error) error {
	switch err {
	case unix.ENOENT:
		return fmt.Errorf("%w: %v", ErrDeviceNotFound, err)
	case unix.EACCES, unix.EPERM:
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	case unix.EBUSY:
		return fmt.Errorf("%w: %v", ErrDeviceInUse, err)
	}
	return err
}

// Info opens path briefly and reports its bus settings without changing them.
func Info(path string) (*DeviceInfo, error) {
	c, err := OpenPath(path, 0)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	info := describe(path)
	info.Mode = c.mode
	info.BitsPerWord = c.bits
	info.MaxSpeedHz = c.speed
	return info, nil
}
