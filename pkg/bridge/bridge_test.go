package bridge

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/wavedac/pkg/bridge/mqtt"
	fx "github.com/robotalks/wavedac/pkg/framework"
	"github.com/robotalks/wavedac/pkg/protocol"
)

type fakeDevice struct {
	samples chan protocol.Sample
	replies chan *protocol.Reply

	lock sync.Mutex
	sent []byte
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		samples: make(chan protocol.Sample, 16),
		replies: make(chan *protocol.Reply, 16),
	}
}

func (d *fakeDevice) Samples() <-chan protocol.Sample { return d.samples }
func (d *fakeDevice) Replies() <-chan *protocol.Reply { return d.replies }

func (d *fakeDevice) Send(cmd byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.sent = append(d.sent, cmd)
	return nil
}

func (d *fakeDevice) sentCommands() string {
	d.lock.Lock()
	defer d.lock.Unlock()
	return string(d.sent)
}

type published struct {
	topic    string
	payload  string
	retained bool
}

type fakeQueue struct {
	lock     sync.Mutex
	msgs     []published
	handlers map[string]mqtt.Handler
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func (q *fakeQueue) Publish(topic string, payload []byte) error {
	q.lock.Lock()
	defer q.lock.Unlock()
	q.msgs = append(q.msgs, published{topic: topic, payload: string(payload)})
	return nil
}

func (q *fakeQueue) PublishRetained(topic string, payload []byte) error {
	q.lock.Lock()
	defer q.lock.Unlock()
	q.msgs = append(q.msgs, published{topic: topic, payload: string(payload), retained: true})
	return nil
}

func (q *fakeQueue) Subscribe(pattern string, handler mqtt.Handler) io.Closer {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.handlers == nil {
		q.handlers = make(map[string]mqtt.Handler)
	}
	q.handlers[pattern] = handler
	return closerFunc(func() error {
		q.lock.Lock()
		delete(q.handlers, pattern)
		q.lock.Unlock()
		return nil
	})
}

func (q *fakeQueue) handler(pattern string) mqtt.Handler {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.handlers[pattern]
}

func (q *fakeQueue) published() []published {
	q.lock.Lock()
	defer q.lock.Unlock()
	return append([]published(nil), q.msgs...)
}

type fakeFeed struct {
	lock sync.Mutex
	msgs []string
}

func (f *fakeFeed) Broadcast(msg []byte) {
	f.lock.Lock()
	f.msgs = append(f.msgs, string(msg))
	f.lock.Unlock()
}

func (f *fakeFeed) received() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string(nil), f.msgs...)
}

func runBridge(t *testing.T, b *Bridge) (stop func()) {
	l := fx.NewLoop()
	l.Interval = time.Millisecond
	l.Add(b)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()
	return func() {
		cancel()
		<-done
	}
}

func TestBridgeForwarding(t *testing.T) {
	dev, q, feed := newFakeDevice(), &fakeQueue{}, &fakeFeed{}
	b := New("bench", dev, q)
	b.Feed = feed
	stop := runBridge(t, b)
	defer stop()

	require.Eventually(t, func() bool { return q.handler("bench/cmd") != nil }, time.Second, time.Millisecond)
	dev.samples <- protocol.Sample(0)
	dev.samples <- protocol.Sample(0xFFFF)
	require.Eventually(t, func() bool { return len(q.published()) == 3 }, time.Second, time.Millisecond)
	dev.replies <- &protocol.Reply{Kind: protocol.ReplyError, Text: "Unknown command x\r\n", Byte: 'x'}

	require.Eventually(t, func() bool { return len(q.published()) == 4 }, time.Second, time.Millisecond)
	require.Equal(t, []published{
		{topic: "bench/status", payload: "online", retained: true},
		{topic: "bench/samples", payload: `{"raw":0,"volts":0}`},
		{topic: "bench/samples", payload: `{"raw":65535,"volts":5}`},
		{topic: "bench/reply", payload: `{"kind":"error","text":"Unknown command x\r\n","byte":120}`},
	}, q.published())
	require.Equal(t, []string{`{"raw":0,"volts":0}`, `{"raw":65535,"volts":5}`}, feed.received())
	require.Equal(t, 2.0, testutil.ToFloat64(b.Metrics.Samples))
	require.Equal(t, 1.0, testutil.ToFloat64(b.Metrics.Replies.WithLabelValues("error")))

	q.handler("bench/cmd")("bench/cmd", []byte("bt"))
	q.handler("bench/cmd")("bench/cmd", nil)
	require.Eventually(t, func() bool { return dev.sentCommands() == "bt" }, time.Second, time.Millisecond)
	require.Equal(t, 2.0, testutil.ToFloat64(b.Metrics.Commands))

	stop()
	require.Nil(t, q.handler("bench/cmd"))
}

func TestEncodeReply(t *testing.T) {
	payload, err := EncodeReply(&protocol.Reply{Kind: protocol.ReplyIdentification, Text: "Wave Kivy $$$"})
	require.NoError(t, err)
	require.Equal(t, `{"kind":"identification","text":"Wave Kivy $$$"}`, string(payload))
}

func TestBridgeHandler(t *testing.T) {
	b := New("bench", newFakeDevice(), &fakeQueue{})
	b.Metrics = NewMetrics(func() protocol.LinkStats {
		return protocol.LinkStats{Samples: 10, Dropped: 3}
	})
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "wavedac_link_dropped_frames_total 3")
	require.True(t, strings.Contains(string(body), "wavedac_link_samples_total 10"))
}
