/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	max3100 "github.com/allbin/go-max3100"
	"github.com/spf13/cobra"
)

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture <output-file>",
	Short: "Capture received data to a file",
	Long: `Capture bytes received by the MAX3100 to a file for later parsing.

Runs continuously until interrupted (Ctrl+C). The output file is opened in
append mode, allowing you to resume captures without overwriting existing
data.

Example usage:
  max3100 capture data.log
  max3100 capture output.bin --baud 9600 --bus 1
  max3100 capture capture.log --console`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		outputPath := args[0]
		bufferSize, _ := cmd.Flags().GetInt("buffer")
		showConsole, _ := cmd.Flags().GetBool("console")

		file, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fail(fmt.Errorf("failed to open output file: %w", err))
		}
		defer file.Close()

		dev := mustOpen()
		defer dev.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(os.Stderr, "Capturing data from %s to %s\n", dev, outputPath)
		if showConsole {
			fmt.Fprintf(os.Stderr, "Console display enabled\n")
		}
		fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop\n\n")

		var console io.Writer
		if showConsole {
			console = os.Stdout
		}

		start := time.Now()
		n, err := runCapture(ctx, dev, file, console, bufferSize)
		fmt.Fprintf(os.Stderr, "\nCapture complete: %d bytes written in %v\n", n, time.Since(start).Round(time.Millisecond))
		if err != nil {
			fail(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().Int("buffer", 4096, "Read buffer size")
	captureCmd.Flags().BoolP("console", "c", false, "Display incoming data on console while capturing")
}

// runCapture copies received bytes to out, and to console when set, until
// ctx is done. Cancellation is a clean stop.
func runCapture(ctx context.Context, dev *max3100.Device, out, console io.Writer, bufferSize int) (int64, error) {
	buffer := make([]byte, bufferSize)
	var written int64

	for {
		n, err := dev.ReadContext(ctx, buffer)
		if n > 0 {
			w, werr := out.Write(buffer[:n])
			written += int64(w)
			if werr != nil {
				return written, fmt.Errorf("write error: %w", werr)
			}
			if console != nil {
				console.Write(buffer[:n])
			}
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return written, nil
			}
			return written, fmt.Errorf("read error: %w", err)
		}
	}
}
