package protocol

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// Waveform names the output waveforms the device can generate.
type Waveform int

// Waveforms.
const (
	WaveSine Waveform = iota
	WaveTriangle
)

// Command returns the command byte selecting w.
func (w Waveform) Command() byte {
	if w == WaveTriangle {
		return CmdWave2
	}
	return CmdWave1
}

// String implements fmt.Stringer.
func (w Waveform) String() string {
	if w == WaveTriangle {
		return "triangle"
	}
	return "sine"
}

// ParseWaveform parses a waveform name.
func ParseWaveform(name string) (Waveform, error) {
	switch strings.ToLower(name) {
	case "sine", "1":
		return WaveSine, nil
	case "triangle", "2":
		return WaveTriangle, nil
	}
	return WaveSine, fmt.Errorf("unknown waveform %q", name)
}

// Range names the output voltage ranges.
type Range int

// Ranges.
const (
	RangeSmall Range = iota
	RangeLarge
)

// Command returns the command byte selecting r.
func (r Range) Command() byte {
	if r == RangeLarge {
		return CmdRangeLarge
	}
	return CmdRangeSmall
}

// String implements fmt.Stringer.
func (r Range) String() string {
	if r == RangeLarge {
		return "large"
	}
	return "small"
}

// ParseRange parses a range name.
func ParseRange(name string) (Range, error) {
	switch strings.ToLower(name) {
	case "small", "1v":
		return RangeSmall, nil
	case "large", "4v":
		return RangeLarge, nil
	}
	return RangeSmall, fmt.Errorf("unknown range %q", name)
}

// DefaultConnectTimeout is used by Connect when timeout is zero.
const DefaultConnectTimeout = 2 * time.Second

// Client provides host side operations over a Link.
type Client struct {
	link      *Link
	sampleCh  chan Sample
	replyCh   chan *Reply
	identCh   chan struct{}
	connected atomic.Bool
	overruns  atomic.Uint64
}

// NewClient creates client and wraps the link.
func NewClient(link *Link) *Client {
	c := &Client{
		link:     link,
		sampleCh: make(chan Sample, 256),
		replyCh:  make(chan *Reply, 16),
		identCh:  make(chan struct{}, 1),
	}
	c.link.Samples = HandleSampleFunc(c.handleSample)
	c.link.Replies = HandleReplyFunc(c.handleReply)
	return c
}

// Link gets the wrapped Link.
func (c *Client) Link() *Link {
	return c.link
}

// Samples retrieves the chan of received samples. Samples are
// dropped and counted as overruns when nobody drains it.
func (c *Client) Samples() <-chan Sample {
	return c.sampleCh
}

// Replies retrieves the chan of received text replies.
func (c *Client) Replies() <-chan *Reply {
	return c.replyCh
}

// Overruns returns the number of samples dropped because the
// sample chan was full.
func (c *Client) Overruns() uint64 {
	return c.overruns.Load()
}

// IsConnected indicates the device answered a connect.
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

// Connect sends the connect command and waits for the identification.
// The device stops streaming and restores its default output on connect.
func (c *Client) Connect(ctx context.Context, timeout time.Duration) error {
	if timeout == 0 {
		timeout = DefaultConnectTimeout
	}
	select {
	case <-c.identCh:
	default:
	}
	c.connected.Store(false)
	if err := c.link.Send(CmdConnect); err != nil {
		return err
	}
	select {
	case <-c.identCh:
		c.connected.Store(true)
		return nil
	case <-time.After(timeout):
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartStreaming asks the device to stream samples.
func (c *Client) StartStreaming() error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return c.link.Send(CmdStartStreaming)
}

// StopStreaming asks the device to stop streaming.
func (c *Client) StopStreaming() error {
	return c.link.Send(CmdStopStreaming)
}

// SelectWaveform selects the output waveform.
func (c *Client) SelectWaveform(w Waveform) error {
	return c.link.Send(w.Command())
}

// SelectRange selects the output range.
func (c *Client) SelectRange(r Range) error {
	return c.link.Send(r.Command())
}

// Send forwards a raw command byte.
func (c *Client) Send(cmd byte) error {
	return c.link.Send(cmd)
}

// Run wraps Link.Run to implement Runnable.
func (c *Client) Run(ctx context.Context) error {
	return c.link.Run(ctx)
}

func (c *Client) handleSample(ctx context.Context, s Sample) {
	select {
	case c.sampleCh <- s:
	default:
		c.overruns.Add(1)
	}
}

func (c *Client) handleReply(ctx context.Context, r *Reply) {
	if r.Kind == ReplyIdentification {
		select {
		case c.identCh <- struct{}{}:
		default:
		}
	}
	select {
	case c.replyCh <- r:
	default:
		glog.Warningf("reply dropped: %q", r.Text)
	}
}
