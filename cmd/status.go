/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	max3100 "github.com/allbin/go-max3100"
	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show buffered byte count and bus counters",
	Long: `Show the state of the MAX3100 handle: configuration word, bytes
waiting in the receive buffer and the bus counters.

With --watch the count is polled until Ctrl+C, which is handy to check that
a peer is sending at all.

Example usage:
  max3100 status
  max3100 status --watch --interval 200ms`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		watch, _ := cmd.Flags().GetBool("watch")
		interval, _ := cmd.Flags().GetDuration("interval")

		dev := mustOpen()
		defer dev.Close()

		if !watch {
			if err := printStatus(dev); err != nil {
				fail(err)
			}
			return
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := watchStatus(ctx, dev, interval); err != nil {
			fail(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolP("watch", "w", false, "Poll until interrupted")
	statusCmd.Flags().DurationP("interval", "i", 500*time.Millisecond, "Poll interval for --watch")
}

func printStatus(dev *max3100.Device) error {
	n, err := dev.Available()
	if err != nil {
		return err
	}
	config := dev.Config()
	row := func(label string, value any) {
		fmt.Printf("%s %v\n", labelStyle.Render(fmt.Sprintf("%-12s", label)), value)
	}

	fmt.Println(infoStyle.Render(dev.String()))
	row("config", fmt.Sprintf("%#04x (%s)", uint16(dev.ConfigWord()), dev.ConfigWord()))
	row("spi", fmt.Sprintf("%d bits, %d Hz", dev.BitsPerWord(), dev.MaxSpeedHz()))
	row("max misses", config.MaxMisses)
	row("buffer", fmt.Sprintf("%d / %d", n, config.BufferSize-1))
	row("stats", dev.Stats())
	return nil
}

func watchStatus(ctx context.Context, dev *max3100.Device, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := -1
	for {
		n, err := dev.Available()
		if err != nil {
			return err
		}
		if n != last {
			fmt.Printf("%s %s %d bytes available\n",
				labelStyle.Render(time.Now().Format("15:04:05.000")), infoStyle.Render("⇣"), n)
			last = n
		}
		select {
		case <-ctx.Done():
			fmt.Println(dev.Stats())
			return nil
		case <-ticker.C:
		}
	}
}
