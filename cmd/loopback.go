/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	max3100 "github.com/allbin/go-max3100"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.bug.st/serial"
)

// loopbackCmd represents the loopback command
var loopbackCmd = &cobra.Command{
	Use:   "loopback <tty>",
	Short: "Check the MAX3100 against a native UART wired to it",
	Long: `Run an end-to-end test between the MAX3100 and a native serial port
whose TX and RX are cross-wired to the chip.

A random payload is sent from the serial port and read through the MAX3100,
then echoed back through the MAX3100 and read on the serial port. Both legs
are compared byte for byte and reported with their md5 sums.

Example usage:
  max3100 loopback /dev/serial0 --baud 38400
  max3100 loopback /dev/ttyAMA0 --length 64 --timeout 10s`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		length, _ := cmd.Flags().GetInt("length")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		if length <= 0 {
			fail(fmt.Errorf("length must be positive, got %d", length))
		}

		port, err := serial.Open(args[0], &serial.Mode{BaudRate: viper.GetInt("baud")})
		if err != nil {
			fail(fmt.Errorf("failed to open serial port %s: %w", args[0], err))
		}
		defer port.Close()

		if err := port.SetReadTimeout(100 * time.Millisecond); err != nil {
			fail(fmt.Errorf("failed to set read timeout: %w", err))
		}
		port.ResetInputBuffer()
		port.ResetOutputBuffer()

		dev := mustOpen()
		defer dev.Close()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := runLoopback(ctx, dev, port, makePayload(length)); err != nil {
			fail(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(loopbackCmd)

	loopbackCmd.Flags().IntP("length", "l", 512, "Payload length in bytes")
	loopbackCmd.Flags().DurationP("timeout", "t", 30*time.Second, "Deadline for both legs together")
}

// makePayload returns n random uppercase letters.
func makePayload(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = 'A' + byte(rand.IntN(26))
	}
	return p
}

func digest(p []byte) string {
	sum := md5.Sum(p)
	return hex.EncodeToString(sum[:])
}

func preview(p []byte) string {
	if len(p) > 10 {
		return string(p[:4]) + ".." + string(p[len(p)-4:])
	}
	return string(p)
}

func report(verb, via string, p []byte, elapsed time.Duration) {
	fmt.Printf("%s %4d characters (%s, %s) %s (%s) in %v\n",
		infoStyle.Render("⇄"), len(p), preview(p), digest(p), verb, via, elapsed.Round(time.Millisecond))
}

// runLoopback sends payload UART to MAX3100, then echoes what arrived back
// MAX3100 to UART.
func runLoopback(ctx context.Context, dev *max3100.Device, port io.ReadWriter, payload []byte) error {
	if err := dev.Clear(); err != nil {
		return err
	}

	// the receiver has to be pumping before the first byte lands
	type result struct {
		data []byte
		err  error
	}
	rx := make(chan result, 1)
	start := time.Now()
	go func() {
		data, err := dev.ReceiveContext(ctx, len(payload))
		rx <- result{data, err}
	}()

	report("sent", "serial", payload, 0)
	if _, err := port.Write(payload); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	got := <-rx
	if got.err != nil {
		return fmt.Errorf("max3100 receive after %d of %d bytes: %w", len(got.data), len(payload), got.err)
	}
	report("received", "max3100", got.data, time.Since(start))
	if !bytes.Equal(got.data, payload) {
		return fmt.Errorf("serial to max3100 mismatch: sent %s, received %s", digest(payload), digest(got.data))
	}

	echoed := make(chan result, 1)
	start = time.Now()
	go func() {
		data, err := readFull(ctx, port, len(payload))
		echoed <- result{data, err}
	}()

	if _, err := dev.WriteContext(ctx, got.data); err != nil {
		return fmt.Errorf("max3100 write: %w", err)
	}
	report("sent", "max3100", got.data, time.Since(start))

	back := <-echoed
	if back.err != nil {
		return fmt.Errorf("serial read after %d of %d bytes: %w", len(back.data), len(payload), back.err)
	}
	report("received", "serial", back.data, time.Since(start))
	if !bytes.Equal(back.data, payload) {
		return fmt.Errorf("max3100 to serial mismatch: sent %s, received %s", digest(payload), digest(back.data))
	}

	fmt.Printf("%s Loopback passed in both directions\n", successStyle.Render("✓"))
	return nil
}

// readFull reads n bytes from a port with a read timeout, checking ctx
// whenever a read comes back short.
func readFull(ctx context.Context, r io.Reader, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		k, err := r.Read(buf[:n-len(out)])
		out = append(out, buf[:k]...)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}
