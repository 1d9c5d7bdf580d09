package protocol

import (
	"fmt"
	"io"
)

// Frame delimiters.
const (
	StartByte byte = 0xA0
	EndByte   byte = 0xC0
)

// SamplePacketSize is the size of an encoded sample frame.
const SamplePacketSize = 4

// Command bytes understood by the device.
const (
	CmdConnect        byte = 'v'
	CmdStartStreaming byte = 'b'
	CmdStopStreaming  byte = 's'
	CmdWave1          byte = 'e'
	CmdWave2          byte = 'f'
	CmdRangeSmall     byte = 't'
	CmdRangeLarge     byte = 'y'
)

const (
	connectionMessage = "Wave Kivy $$$"
	// IdentificationMarker terminates the identification reply.
	IdentificationMarker = "$$$"
	errorMessagePrefix   = "Unknown command "
	lineTerminator       = "\r\n"
)

// FullScaleVolts is the input voltage a raw value of 0xFFFF represents.
const FullScaleVolts = 5.0

// Sample is one 16-bit reading of the analog input.
type Sample uint16

// Volts converts the raw reading to volts.
func (s Sample) Volts() float64 {
	return float64(s) / 0xFFFF * FullScaleVolts
}

// Bytes returns the encoded frame.
func (s Sample) Bytes() []byte {
	return []byte{StartByte, byte(s >> 8), byte(s), EndByte}
}

// WriteTo writes the encoded frame.
func (s Sample) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(s.Bytes())
	return int64(n), err
}

// String implements fmt.Stringer.
func (s Sample) String() string {
	return fmt.Sprintf("0x%04x (%.4fV)", uint16(s), s.Volts())
}

// EncodeSample encodes a raw reading into a sample frame. Bits above
// the lower 16 are dropped.
func EncodeSample(raw uint32) []byte {
	return Sample(uint16(raw)).Bytes()
}

// EncodeConnection returns the identification reply.
func EncodeConnection() []byte {
	return []byte(connectionMessage)
}

// EncodeError returns the reply to an unknown command byte c.
func EncodeError(c byte) []byte {
	b := make([]byte, 0, len(errorMessagePrefix)+1+len(lineTerminator))
	b = append(b, errorMessagePrefix...)
	b = append(b, c)
	return append(b, lineTerminator...)
}
