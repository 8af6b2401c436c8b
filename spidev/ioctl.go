package spidev

import "fmt"

// Linux _IOC encoding for the spidev driver (include/uapi/linux/spi/spidev.h)
const (
	iocNone  = 0
	iocWrite = 1
	iocRead  = 2

	iocNRShift   = 0
	iocTypeShift = 8
	iocSizeShift = 16
	iocDirShift  = 30

	spiMagic = 'k'

	transferSize = 32 // sizeof(struct spi_ioc_transfer)
)

func ioc(dir, nr, size uintptr) uintptr {
	return dir<<iocDirShift | spiMagic<<iocTypeShift | nr<<iocNRShift | size<<iocSizeShift
}

var (
	reqRdMode        = ioc(iocRead, 1, 1)
	reqWrMode        = ioc(iocWrite, 1, 1)
	reqRdBitsPerWord = ioc(iocRead, 3, 1)
	reqWrBitsPerWord = ioc(iocWrite, 3, 1)
	reqRdMaxSpeedHz  = ioc(iocRead, 4, 4)
	reqWrMaxSpeedHz  = ioc(iocWrite, 4, 4)
)

// messageRequest returns SPI_IOC_MESSAGE(n).
func messageRequest(n int) uintptr {
	return ioc(iocWrite, 0, uintptr(n*transferSize))
}

// transfer mirrors struct spi_ioc_transfer
type transfer struct {
	txBuf       uint64
	rxBuf       uint64
	length      uint32
	speedHz     uint32
	delayUsecs  uint16
	bitsPerWord uint8
	csChange    uint8
	txNBits     uint8
	rxNBits     uint8
	wordDelay   uint8
	pad         uint8
}

// Mode is the SPI clock polarity/phase mode
type Mode uint8

const (
	Mode0 Mode = 0
	Mode1 Mode = 1
	Mode2 Mode = 2
	Mode3 Mode = 3
)

func (m Mode) String() string {
	return fmt.Sprintf("mode%d (CPOL=%d CPHA=%d)", m&3, (m>>1)&1, m&1)
}
