/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	max3100 "github.com/allbin/go-max3100"
	"github.com/allbin/go-max3100/spidev"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <bus.device>",
	Short: "Display bus settings of a spidev node",
	Long: `Display the current SPI mode, word size and clock limit of a spidev node,
and the MAX3100 configuration word the current flags would send.

The node is opened briefly and its settings are left unchanged.

Examples:
  max3100 info 0.0
  max3100 info /dev/spidev1.0 --baud 115200`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		bus, chip, err := spidev.ParseName(args[0])
		if err != nil {
			fail(err)
		}
		path := spidev.DevicePath(bus, chip)

		info, err := spidev.GetDeviceInfo(path)
		if err != nil {
			fail(fmt.Errorf("failed to read %s: %w", path, err))
		}

		fmt.Printf("SPI Device Information: %s\n\n", info.Path)
		fmt.Printf("  Name:         %s\n", info.Name)
		fmt.Printf("  Bus:          %d\n", info.Bus)
		fmt.Printf("  Chip select:  %d\n", info.Chip)
		fmt.Printf("  Mode:         %s\n", info.Mode)
		fmt.Printf("  Bits/word:    %d\n", info.BitsPerWord)
		fmt.Printf("  Max speed:    %d Hz\n", info.MaxSpeedHz)

		crystal := max3100.Crystal(viper.GetInt("crystal"))
		baud := viper.GetInt("baud")
		word := max3100.ConfigWord(crystal, baud)

		fmt.Println("\nMAX3100 Configuration:")
		fmt.Printf("  Crystal:      %s\n", crystal)
		fmt.Printf("  Baud rate:    %d\n", baud)
		if _, ok := max3100.LookupBaud(crystal, baud); !ok {
			fmt.Printf("  %s\n", errorStyle.Render(fmt.Sprintf("unsupported, falls back to %d", max3100.FallbackBaud)))
		}
		fmt.Printf("  Config word:  %#04x (%s)\n", uint16(word), word)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
