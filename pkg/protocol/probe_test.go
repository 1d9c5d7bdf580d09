package protocol

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProbe(t *testing.T) {
	dev := newFakeDevice()
	defer dev.Close()
	require.NoError(t, Probe(context.Background(), dev, time.Second))
	require.Equal(t, []byte{CmdConnect}, dev.sent())
}

func TestDiscover(t *testing.T) {
	devices := map[string]*fakeDevice{
		"/dev/ttyS0":   func() *fakeDevice { d := newFakeDevice(); d.silent = true; return d }(),
		"/dev/ttyACM0": newFakeDevice(),
	}
	open := func(name string) (io.ReadWriteCloser, error) {
		if dev, ok := devices[name]; ok {
			return dev, nil
		}
		return nil, errors.New("no such port")
	}

	name, err := Discover(context.Background(), []string{"/dev/ttyS0", "/dev/ttyUSB9", "/dev/ttyACM0"}, open, 200*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyACM0", name)

	_, err = Discover(context.Background(), []string{"/dev/ttyUSB9"}, open, 50*time.Millisecond)
	require.Equal(t, ErrNoDevice, err)
}
