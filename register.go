package max3100

import "fmt"

// Word is a 16-bit MAX3100 command or reply
type Word uint16

// Command selects the operation in the top two bits of a word
type Command Word

const (
	CmdReadData    Command = 0x0000
	CmdReadConfig  Command = 0x4000
	CmdWriteData   Command = 0x8000
	CmdWriteConfig Command = 0xC000

	commandMask Word = 0xC000
)

// Reply flags
const (
	FlagR Word = 0x8000 // receive data ready
	FlagT Word = 0x4000 // transmit buffer empty
)

// ConfRM is carried into the configuration word at open.
// Verify against the datasheet before relying on its interrupt-mask meaning.
const ConfRM Word = 0x0C00

func (c Command) String() string {
	switch c {
	case CmdReadData:
		return "read-data"
	case CmdReadConfig:
		return "read-config"
	case CmdWriteData:
		return "write-data"
	case CmdWriteConfig:
		return "write-config"
	default:
		return fmt.Sprintf("Command(%#04x)", uint16(c))
	}
}

// Encode builds a command word. It panics if payload touches the command bits.
func Encode(cmd Command, payload Word) Word {
	if payload&commandMask != 0 {
		panic(fmt.Sprintf("max3100: payload %#04x overlaps command bits", uint16(payload)))
	}
	return Word(cmd) | payload
}

// DataWord returns the write-data word for b.
func DataWord(b byte) Word {
	return Encode(CmdWriteData, Word(b))
}

// Command returns the command selected by an outgoing word.
func (w Word) Command() Command { return Command(w & commandMask) }

// Payload returns the bits below the command field.
func (w Word) Payload() Word { return w &^ commandMask }

// Received reports the R flag of a reply.
func (w Word) Received() bool { return w&FlagR != 0 }

// TransmitEmpty reports the T flag of a reply.
func (w Word) TransmitEmpty() bool { return w&FlagT != 0 }

// Data returns the received byte carried by a data reply.
func (w Word) Data() byte { return byte(w) }

// Status is the flag pair reported by a read-config exchange
type Status struct {
	R bool
	T bool
}

// Status decodes the reply flags.
func (w Word) Status() Status {
	return Status{R: w.Received(), T: w.TransmitEmpty()}
}

func (w Word) String() string {
	return fmt.Sprintf("%08b %08b", byte(w>>8), byte(w))
}
