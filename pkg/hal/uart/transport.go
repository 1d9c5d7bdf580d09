package uart

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"

	fx "github.com/robotalks/wavedac/pkg/framework"
)

// DefaultBufferSize is the size of the receive buffer.
const DefaultBufferSize = 64

// ErrEmpty is returned by ReadByte when nothing is received.
var ErrEmpty = errors.New("receive buffer empty")

// Transport is a buffered byte transport over a stream. Received bytes are
// queued by Run in the background and consumed one by one with ReadByte,
// the way a UART receive buffer is drained by firmware.
type Transport struct {
	// BufferSize limits queued bytes. Bytes received when the buffer is
	// full are dropped and counted as overruns.
	BufferSize int

	stream io.ReadWriter
	rxLock sync.Mutex
	rxBuf  []byte
	txLock sync.Mutex
	wake   func()

	overruns atomic.Uint64
}

// New creates a Transport over stream.
func New(stream io.ReadWriter) *Transport {
	return &Transport{BufferSize: DefaultBufferSize, stream: stream}
}

// SetWaker implements firmware.Waker. fn is called when bytes are queued.
func (t *Transport) SetWaker(fn func()) {
	t.rxLock.Lock()
	t.wake = fn
	t.rxLock.Unlock()
}

// Available returns the number of queued bytes.
func (t *Transport) Available() int {
	t.rxLock.Lock()
	defer t.rxLock.Unlock()
	return len(t.rxBuf)
}

// ReadByte dequeues one byte.
func (t *Transport) ReadByte() (byte, error) {
	t.rxLock.Lock()
	defer t.rxLock.Unlock()
	if len(t.rxBuf) == 0 {
		return 0, ErrEmpty
	}
	b := t.rxBuf[0]
	t.rxBuf = t.rxBuf[1:]
	return b, nil
}

// Write writes data to the stream.
func (t *Transport) Write(data []byte) (int, error) {
	t.txLock.Lock()
	defer t.txLock.Unlock()
	return t.stream.Write(data)
}

// Overruns returns the number of dropped bytes.
func (t *Transport) Overruns() uint64 {
	return t.overruns.Load()
}

// Run implements framework.Runnable. If the stream is an io.Closer, it is
// closed when ctx is done.
func (t *Transport) Run(ctx context.Context) error {
	if closer, ok := t.stream.(io.Closer); ok {
		return fx.RunWithContextCloser(ctx, closer, t.receive)
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- t.receive()
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (t *Transport) receive() error {
	buf := make([]byte, DefaultBufferSize)
	for {
		n, err := t.stream.Read(buf)
		if n > 0 {
			t.enqueue(buf[:n])
		}
		if err != nil {
			return err
		}
	}
}

func (t *Transport) enqueue(data []byte) {
	size := t.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}
	t.rxLock.Lock()
	room := size - len(t.rxBuf)
	if room < 0 {
		room = 0
	}
	accepted := data
	if len(accepted) > room {
		accepted = accepted[:room]
	}
	t.rxBuf = append(t.rxBuf, accepted...)
	wake := t.wake
	t.rxLock.Unlock()

	if dropped := len(data) - len(accepted); dropped > 0 {
		t.overruns.Add(uint64(dropped))
		glog.Warningf("receive overrun: %d bytes dropped", dropped)
	}
	if wake != nil && len(accepted) > 0 {
		wake()
	}
}
