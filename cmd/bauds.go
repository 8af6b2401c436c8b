/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	max3100 "github.com/allbin/go-max3100"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	columnKeyBaud    = "baud"
	columnKeyDivisor = "divisor"
	columnKeyWord    = "word"
	columnKeyBits    = "bits"
)

// baudsCmd represents the bauds command
var baudsCmd = &cobra.Command{
	Use:   "bauds",
	Short: "List the baud rates a crystal supports",
	Long: `List the baud rates the MAX3100 divisor table supports for a crystal,
fastest first, with the divisor bits and the full configuration word.

Rates not in the table fall back to 9600 when the device is opened.

Example usage:
  max3100 bauds
  max3100 bauds --crystal 1 --table`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		tableFormat, _ := cmd.Flags().GetBool("table")
		crystal := max3100.Crystal(viper.GetInt("crystal"))

		if tableFormat {
			fmt.Printf("Baud rates for %s crystal:\n\n", crystal)
			fmt.Println(baudTable(crystal).View())
			return
		}
		for _, rate := range max3100.BaudRates(crystal) {
			fmt.Println(rate)
		}
	},
}

func init() {
	rootCmd.AddCommand(baudsCmd)

	baudsCmd.Flags().BoolP("table", "t", false, "Display divisor bits and config words in a table")
}

func baudRows(crystal max3100.Crystal) []table.Row {
	var rows []table.Row
	for _, rate := range max3100.BaudRates(crystal) {
		divisor, _ := max3100.LookupBaud(crystal, rate)
		word := max3100.ConfigWord(crystal, rate)
		rows = append(rows, table.NewRow(table.RowData{
			columnKeyBaud:    rate,
			columnKeyDivisor: fmt.Sprintf("%#x", uint16(divisor)),
			columnKeyWord:    fmt.Sprintf("%#04x", uint16(word)),
			columnKeyBits:    word.String(),
		}))
	}
	return rows
}

func baudTable(crystal max3100.Crystal) table.Model {
	return table.New([]table.Column{
		table.NewColumn(columnKeyBaud, "Baud", 8),
		table.NewColumn(columnKeyDivisor, "Divisor", 9),
		table.NewColumn(columnKeyWord, "Config", 8),
		table.NewColumn(columnKeyBits, "Bits", 19),
	}).
		WithRows(baudRows(crystal)).
		HeaderStyle(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))).
		BorderRounded()
}
