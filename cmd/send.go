/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/allbin/go-max3100/internal/tui/components"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [data]",
	Short: "Send data through the MAX3100",
	Long: `Send data out of the MAX3100 transmitter.

Data can be provided as:
- Command line argument: max3100 send "Hello World"
- From stdin (pipe): echo "test data" | max3100 send
- Interactive mode: max3100 send (prompts for input)
- Byte values: max3100 send --values 65,66,13

Each byte waits for the transmit register to empty, so a stuck line blocks
until --timeout expires.

Example usage:
  max3100 send "AT+GMR" --newline
  max3100 send 48656c6c6f --hex
  max3100 send --values 2,6,0,3 --bus 1`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		addNewline, _ := cmd.Flags().GetBool("newline")
		hexMode, _ := cmd.Flags().GetBool("hex")
		values, _ := cmd.Flags().GetString("values")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		if values != "" {
			if len(args) > 0 {
				fail(fmt.Errorf("--values and a data argument are mutually exclusive"))
			}
			vs, err := parseValues(values)
			if err != nil {
				fail(err)
			}
			if err := sendValues(vs); err != nil {
				fail(err)
			}
			return
		}

		data, err := payload(readInput(args), hexMode, addNewline)
		if err != nil {
			fail(err)
		}
		if err := sendData(data, timeout); err != nil {
			fail(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().BoolP("newline", "n", false, "Add newline character to the end of data")
	sendCmd.Flags().BoolP("hex", "x", false, "Interpret data as hexadecimal (e.g., '48656c6c6f' for 'Hello')")
	sendCmd.Flags().String("values", "", "Comma separated byte values 0-255 (e.g., '65,66,0x0d'), sent without a timeout")
	sendCmd.Flags().DurationP("timeout", "t", 5*time.Second, "Timeout for sending data")
}

// readInput takes data from the argument, a pipe or a prompt, in that order.
func readInput(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	stat, err := os.Stdin.Stat()
	if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
		return promptForData()
	}
	stdinData, err := io.ReadAll(os.Stdin)
	if err != nil {
		fail(fmt.Errorf("reading from stdin: %w", err))
	}
	return strings.TrimRight(string(stdinData), "\r\n")
}

func promptForData() string {
	promptStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99"))

	fmt.Print(promptStyle.Render("Enter data to send: "))

	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		return scanner.Text()
	}
	return ""
}

func payload(data string, hexMode, newline bool) ([]byte, error) {
	if hexMode {
		p, err := components.ParsePayload(data, components.SendHex)
		if err != nil {
			return nil, fmt.Errorf("invalid hex data: %w", err)
		}
		return p, nil
	}
	if newline {
		data += "\n"
	}
	if data == "" {
		return nil, fmt.Errorf("nothing to send")
	}
	return []byte(data), nil
}

// parseValues reads a comma separated list of integers. Decimal, 0x hex
// and 0o octal are accepted. Range is checked by the driver.
func parseValues(s string) ([]int, error) {
	var out []int
	for i, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		v, err := strconv.ParseInt(field, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("value %d %q: %w", i, field, err)
		}
		out = append(out, int(v))
	}
	return out, nil
}

func sendValues(values []int) error {
	dev, err := openDevice()
	if err != nil {
		return err
	}
	defer dev.Close()

	if err := dev.WriteValues(values); err != nil {
		return err
	}
	fmt.Printf("%s Successfully sent %d bytes\n", successStyle.Render("✓"), len(values))
	return nil
}

func sendData(data []byte, timeout time.Duration) error {
	fmt.Printf("%s Opening %s...\n", infoStyle.Render("⚡"), devicePath())

	dev, err := openDevice()
	if err != nil {
		return err
	}
	defer dev.Close()

	fmt.Printf("%s Configured %s\n", successStyle.Render("✓"), dev)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	fmt.Printf("%s Sending %d bytes...\n", infoStyle.Render("📤"), len(data))

	n, err := dev.WriteContext(ctx, data)
	if err != nil {
		return fmt.Errorf("failed to send data after %d bytes: %w", n, err)
	}

	fmt.Printf("%s Successfully sent %d bytes\n", successStyle.Render("✓"), n)

	preview := data
	suffix := ""
	if len(preview) > 50 {
		preview, suffix = preview[:50], "..."
	}
	fmt.Printf("%s Data: %s%s\n", infoStyle.Render("📋"), components.Printable(preview), suffix)
	return nil
}
