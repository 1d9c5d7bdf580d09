package protocol

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeDevice answers the way the firmware does, without streaming on its own.
type fakeDevice struct {
	silent  bool
	readCh  chan byte
	lock    sync.Mutex
	written []byte
	closed  bool
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{readCh: make(chan byte, 256)}
}

func (d *fakeDevice) Read(p []byte) (int, error) {
	b, ok := <-d.readCh
	if !ok {
		return 0, io.EOF
	}
	p[0] = b
	return 1, nil
}

func (d *fakeDevice) Write(p []byte) (int, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.closed {
		return 0, io.ErrClosedPipe
	}
	d.written = append(d.written, p...)
	for _, b := range p {
		if d.silent {
			continue
		}
		switch b {
		case CmdConnect:
			d.emitLocked(EncodeConnection())
		case CmdStartStreaming, CmdStopStreaming, CmdWave1, CmdWave2, CmdRangeSmall, CmdRangeLarge:
		default:
			d.emitLocked(EncodeError(b))
		}
	}
	return len(p), nil
}

func (d *fakeDevice) emit(p []byte) {
	d.lock.Lock()
	d.emitLocked(p)
	d.lock.Unlock()
}

func (d *fakeDevice) emitLocked(p []byte) {
	for _, b := range p {
		d.readCh <- b
	}
}

func (d *fakeDevice) Close() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if !d.closed {
		d.closed = true
		close(d.readCh)
	}
	return nil
}

func (d *fakeDevice) sent() []byte {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]byte(nil), d.written...)
}

func runClient(t *testing.T, dev *fakeDevice) (*Client, func()) {
	client := NewClient(NewLink(dev))
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- client.Run(ctx) }()
	return client, func() {
		cancel()
		dev.Close()
		<-errCh
	}
}

func TestClientConnectAndCommands(t *testing.T) {
	dev := newFakeDevice()
	client, stop := runClient(t, dev)
	defer stop()

	require.Equal(t, ErrNotConnected, client.StartStreaming())
	require.NoError(t, client.Connect(context.Background(), time.Second))
	require.True(t, client.IsConnected())

	reply := <-client.Replies()
	require.Equal(t, ReplyIdentification, reply.Kind)

	require.NoError(t, client.StartStreaming())
	require.NoError(t, client.SelectWaveform(WaveTriangle))
	require.NoError(t, client.SelectRange(RangeSmall))
	require.NoError(t, client.SelectRange(RangeLarge))
	require.NoError(t, client.SelectWaveform(WaveSine))
	require.NoError(t, client.StopStreaming())
	require.Equal(t, []byte("vbftyes"), dev.sent())
}

func TestClientSamples(t *testing.T) {
	dev := newFakeDevice()
	client, stop := runClient(t, dev)
	defer stop()

	dev.emit([]byte{0x00, 0xA0, 0x12, 0x34, 0xC0, 0xA0, 0x00, 0x01, 0x02, 0xA0, 0xFF, 0xFF, 0xC0})
	for _, expect := range []Sample{0x1234, 0xFFFF} {
		select {
		case s := <-client.Samples():
			require.Equal(t, expect, s)
		case <-time.After(time.Second):
			t.Fatal("sample timeout")
		}
	}
	require.Eventually(t, func() bool {
		return client.Link().Stats() == LinkStats{Samples: 2, Dropped: 1}
	}, time.Second, 10*time.Millisecond)
}

func TestClientErrorReply(t *testing.T) {
	dev := newFakeDevice()
	client, stop := runClient(t, dev)
	defer stop()

	require.NoError(t, client.Send('z'))
	select {
	case reply := <-client.Replies():
		var cmdErr *CommandError
		require.True(t, errors.As(reply.Err(), &cmdErr))
		require.Equal(t, byte('z'), cmdErr.Byte)
	case <-time.After(time.Second):
		t.Fatal("reply timeout")
	}
}

func TestClientConnectTimeout(t *testing.T) {
	dev := newFakeDevice()
	dev.silent = true
	client, stop := runClient(t, dev)
	defer stop()

	require.Equal(t, ErrTimeout, client.Connect(context.Background(), 50*time.Millisecond))
	require.False(t, client.IsConnected())
}

func TestParseNames(t *testing.T) {
	w, err := ParseWaveform("Triangle")
	require.NoError(t, err)
	require.Equal(t, WaveTriangle, w)
	require.Equal(t, CmdWave2, w.Command())
	_, err = ParseWaveform("square")
	require.Error(t, err)

	r, err := ParseRange("SMALL")
	require.NoError(t, err)
	require.Equal(t, RangeSmall, r)
	require.Equal(t, CmdRangeSmall, r.Command())
	r, err = ParseRange("4v")
	require.NoError(t, err)
	require.Equal(t, RangeLarge, r)
	_, err = ParseRange("huge")
	require.Error(t, err)
}
