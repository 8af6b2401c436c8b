// Package max3100 drives a MAX3100 UART behind an SPI bus and presents it
// as a buffered, flow-controlled byte stream.
//
// The chip has a one byte receive holding register and no interrupt line
// the host can see, so the driver polls. Every 16-bit exchange is full
// duplex: a read-data word returns a received byte when the R flag is set,
// and a write-data word may carry one back as well. Received bytes are moved
// into a per-handle ring buffer by a bounded receive pump that stops after a
// configurable number of empty polls in a row.
//
// # Basic Usage
//
// Open the chip on /dev/spidev0.0 with the default configuration
// (3.6864 MHz crystal, 9600 baud, 7.8 MHz SPI clock):
//
//	dev, err := max3100.Open(0, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//
//	_, err = dev.Write([]byte("AT\r"))
//	reply, err := dev.Receive(4)  // blocks for exactly 4 bytes
//	now, err := dev.Receive(0)    // whatever is buffered, never blocks
//	some, err := dev.Receive(-16) // at most 16 bytes, never blocks
//
// Device also implements io.Reader, io.Writer and io.ByteWriter.
//
// # Configuration Options
//
//	dev, err := max3100.Open(0, 1,
//	    max3100.WithCrystal(max3100.X1),
//	    max3100.WithBaudRate(115200),
//	    max3100.WithMaxSpeedHz(4000000),
//	    max3100.WithMaxMisses(20),
//	    max3100.WithLogger(slog.Default()),
//	)
//
// Baud rates missing from the crystal's divisor table fall back to 9600;
// Open logs a warning when that happens. See BaudRates for the supported
// rates.
//
// # Transports
//
// The default opener uses the Linux spidev driver (package spidev). The
// periphspi package provides an opener for any bus registered with
// periph.io, and WithTransport accepts an already open Transport.
//
// # Context Support
//
// Write and Receive may block indefinitely: Write waits for the transmit
// register to empty and Receive with a positive length waits for data. The
// Context variants check for cancellation between bus exchanges:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
//	defer cancel()
//	data, err := dev.ReceiveContext(ctx, 8)
//
// # Error Handling
//
// Failures are returned as *Error with one of four kinds, matched through
// errors.Is against ErrTransport, ErrOverrun, ErrInvalidArgument and
// ErrInvalidState:
//
//	if errors.Is(err, max3100.ErrOverrun) {
//	    // the ring filled before the caller read it
//	}
//
// Nothing is retried internally.
package max3100
