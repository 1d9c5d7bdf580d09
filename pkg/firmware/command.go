package firmware

import "fmt"

// Command is a decoded command.
type Command int

// Commands.
const (
	CmdUnknown Command = iota
	CmdConnect
	CmdStartStreaming
	CmdStopStreaming
	CmdSelectWave1
	CmdSelectWave2
	CmdSelectRangeSmall
	CmdSelectRangeLarge
)

var commandNames = map[Command]string{
	CmdUnknown:          "Unknown",
	CmdConnect:          "Connect",
	CmdStartStreaming:   "StartStreaming",
	CmdStopStreaming:    "StopStreaming",
	CmdSelectWave1:      "SelectWave1",
	CmdSelectWave2:      "SelectWave2",
	CmdSelectRangeSmall: "SelectRangeSmall",
	CmdSelectRangeLarge: "SelectRangeLarge",
}

// String implements fmt.Stringer.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// Request is a received byte and the command it decodes to.
type Request struct {
	Command Command
	Byte    byte
}

// CommandTable maps received bytes to commands.
type CommandTable map[byte]Command

// DefaultCommandTable is the byte protocol spoken by the host tools.
var DefaultCommandTable = CommandTable{
	'v': CmdConnect,
	'b': CmdStartStreaming,
	's': CmdStopStreaming,
	'e': CmdSelectWave1,
	'f': CmdSelectWave2,
	't': CmdSelectRangeSmall,
	'y': CmdSelectRangeLarge,
}

// Decode decodes b. Bytes missing from the table decode to CmdUnknown.
func (t CommandTable) Decode(b byte) Request {
	cmd, ok := t[b]
	if !ok {
		cmd = CmdUnknown
	}
	return Request{Command: cmd, Byte: b}
}
