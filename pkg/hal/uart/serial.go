package uart

import (
	"fmt"
	"sort"

	"go.bug.st/serial"
)

// DefaultBaudRate is the baud rate of the device link.
const DefaultBaudRate = 115200

// OpenSerial opens a serial port in 8N1 mode.
func OpenSerial(name string, baud int) (serial.Port, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %v", name, err)
	}
	return port, nil
}

// ListPorts lists the serial ports of the system, sorted by name.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}
	sort.Strings(ports)
	return ports, nil
}
