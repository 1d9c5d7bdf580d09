// Package protocol implements the wavedac serial protocol.
//
// The host sends single command bytes. The device answers with 4-byte
// sample frames while streaming, an identification string on connect and
// an error line for unknown commands:
//
//	sample:         0xA0 HI LO 0xC0
//	identification: "Wave Kivy $$$"
//	error:          "Unknown command " C "\r\n"
//
// There is no sequence number, checksum or acknowledgement; the host
// resynchronizes on the frame start byte.
//
// Producer: device firmware
// Consumer: host tools
package protocol
