package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected indicates the device has not answered a connect yet.
	ErrNotConnected = errors.New("not connected")
	// ErrTimeout indicates the device did not reply in time.
	ErrTimeout = errors.New("reply timeout")
	// ErrNoDevice indicates no probed port answered as a device.
	ErrNoDevice = errors.New("no device found")
)

// CommandError is reported when the device rejects a command byte.
type CommandError struct {
	Byte byte
}

// Error implements error.
func (e *CommandError) Error() string {
	return fmt.Sprintf("unknown command %q", e.Byte)
}
