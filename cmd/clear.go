/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// clearCmd represents the clear command
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard everything the MAX3100 has received",
	Long: `Drain the chip's receive register into the buffer and discard it.

Use it before a request/response exchange so stale bytes do not end up in
the reply.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		dev := mustOpen()
		defer dev.Close()

		n, err := dev.Available()
		if err != nil {
			fail(err)
		}
		if err := dev.Clear(); err != nil {
			fail(err)
		}
		fmt.Printf("%s Discarded %d bytes\n", successStyle.Render("✓"), n)
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
}
