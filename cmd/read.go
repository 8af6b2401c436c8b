/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/allbin/go-max3100/internal/tui/components"
	"github.com/spf13/cobra"
)

// readCmd represents the read command
var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read received bytes from the MAX3100",
	Long: `Read bytes received by the MAX3100.

--length selects how much to read:
  N > 0   wait until exactly N bytes have arrived (bounded by --timeout)
  0       return whatever is available now, possibly nothing
  N < 0   return at most -N bytes without waiting

Example usage:
  max3100 read
  max3100 read --length 4 --timeout 2s
  max3100 read --length -16 --hex`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		length, _ := cmd.Flags().GetInt("length")
		hexMode, _ := cmd.Flags().GetBool("hex")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		data, err := readData(length, timeout)
		if len(data) > 0 {
			fmt.Println(renderData(data, hexMode))
		}
		if err != nil {
			fail(err)
		}
		if len(data) == 0 {
			fmt.Fprintln(os.Stderr, labelStyle.Render("no data"))
		}
	},
}

func init() {
	rootCmd.AddCommand(readCmd)

	readCmd.Flags().IntP("length", "l", 0, "Bytes to read: N waits for N, 0 reads what is buffered, -N reads at most N")
	readCmd.Flags().BoolP("hex", "x", false, "Print data as hexadecimal")
	readCmd.Flags().DurationP("timeout", "t", 5*time.Second, "Timeout for a blocking read")
}

func readData(length int, timeout time.Duration) ([]byte, error) {
	dev, err := openDevice()
	if err != nil {
		return nil, err
	}
	defer dev.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	data, err := dev.ReceiveContext(ctx, length)
	if errors.Is(err, context.DeadlineExceeded) {
		return data, fmt.Errorf("timed out after %v with %d of %d bytes", timeout, len(data), length)
	}
	return data, err
}

func renderData(data []byte, hexMode bool) string {
	if hexMode {
		return components.Hex(data)
	}
	return string(data)
}
