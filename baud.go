package max3100

import (
	"fmt"
	"slices"
)

// Crystal identifies the oscillator fitted to the chip
type Crystal int

const (
	X1 Crystal = 1 // 1.8432 MHz
	X2 Crystal = 2 // 3.6864 MHz
)

// FallbackBaud is used when a rate is not in the crystal's table
const FallbackBaud = 9600

func (c Crystal) String() string {
	switch c {
	case X1:
		return "1.8432MHz"
	case X2:
		return "3.6864MHz"
	default:
		return fmt.Sprintf("Crystal(%d)", int(c))
	}
}

var baudTables = map[Crystal]map[int]Word{
	X1: {
		115200: 0x0,
		57600:  0x1,
		38400:  0x8,
		19200:  0x9,
		9600:   0xA,
		4800:   0xB,
		2400:   0xC,
		1200:   0xD,
		600:    0xE,
		300:    0xF,
	},
	X2: {
		230400: 0x0,
		115200: 0x1,
		57600:  0x2,
		38400:  0x9,
		19200:  0xA,
		9600:   0xB,
		4800:   0xC,
		2400:   0xD,
		1200:   0xE,
		600:    0xF,
	},
}

func table(c Crystal) map[int]Word {
	if c == X2 {
		return baudTables[X2]
	}
	return baudTables[X1]
}

// LookupBaud returns the divisor bits for baud and whether the rate is supported.
// Any crystal other than X2 uses the X1 table.
func LookupBaud(c Crystal, baud int) (Word, bool) {
	div, ok := table(c)[baud]
	return div, ok
}

// ResolveBaud returns the divisor bits for baud, falling back to 9600.
func ResolveBaud(c Crystal, baud int) Word {
	if div, ok := LookupBaud(c, baud); ok {
		return div
	}
	return table(c)[FallbackBaud]
}

// ConfigWord returns the write-config word sent at open.
func ConfigWord(c Crystal, baud int) Word {
	return Encode(CmdWriteConfig, ConfRM|ResolveBaud(c, baud))
}

// BaudRates lists the supported rates for c, fastest first.
func BaudRates(c Crystal) []int {
	t := table(c)
	rates := make([]int, 0, len(t))
	for rate := range t {
		rates = append(rates, rate)
	}
	slices.Sort(rates)
	slices.Reverse(rates)
	return rates
}
