/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/allbin/go-max3100/periphspi"
	"github.com/allbin/go-max3100/spidev"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available SPI buses",
	Long: `List the SPI buses a MAX3100 can be opened on.

With the default spidev driver this scans /dev for spidev<bus>.<device>
nodes. With --driver periph the ports registered by the periph.io host
drivers are listed instead.`,
	Run: func(cmd *cobra.Command, args []string) {
		tableFormat, _ := cmd.Flags().GetBool("table")

		if strings.EqualFold(viper.GetString("driver"), "periph") {
			ports, err := periphspi.Ports()
			if err != nil {
				fail(fmt.Errorf("listing periph ports: %w", err))
			}
			if len(ports) == 0 {
				fmt.Println("No SPI ports registered")
				return
			}
			renderSimple(ports)
			return
		}

		devices, err := spidev.ListDevices()
		if err != nil {
			fail(fmt.Errorf("listing spidev nodes: %w", err))
		}
		if len(devices) == 0 {
			fmt.Println("No spidev devices found")
			return
		}

		if tableFormat {
			renderTable(devices)
		} else {
			renderSimple(devices)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format with bus settings")
}

// renderTable renders the device list in a styled static table format
func renderTable(devices []string) {
	fmt.Printf("Found %d spidev device(s):\n\n", len(devices))

	nameWidth := 14
	modeWidth := 22
	bitsWidth := 6
	speedWidth := 12

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("240")).
		PaddingBottom(1)

	cellStyle := lipgloss.NewStyle().
		PaddingRight(2)

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s",
		nameWidth, "Device",
		modeWidth, "Mode",
		bitsWidth, "Bits",
		speedWidth, "Max Hz")
	fmt.Println(headerStyle.Render(header))

	for _, path := range devices {
		info, err := spidev.GetDeviceInfo(path)
		if err != nil {
			row := fmt.Sprintf("%-*s %s", nameWidth, path, fmt.Sprintf("Error: %v", err))
			fmt.Println(cellStyle.Render(row))
			continue
		}
		row := fmt.Sprintf("%-*s %-*s %-*d %-*d",
			nameWidth, info.Name,
			modeWidth, info.Mode,
			bitsWidth, info.BitsPerWord,
			speedWidth, info.MaxSpeedHz)
		fmt.Println(cellStyle.Render(row))
	}
}

// renderSimple renders the device list in simple text format
func renderSimple(devices []string) {
	for _, d := range devices {
		fmt.Println(d)
	}
}
