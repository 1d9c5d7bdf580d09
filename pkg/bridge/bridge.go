package bridge

import (
	"context"
	"io"
	"net/http"

	"github.com/golang/glog"

	"github.com/robotalks/wavedac/pkg/bridge/mqtt"
	fx "github.com/robotalks/wavedac/pkg/framework"
	"github.com/robotalks/wavedac/pkg/protocol"
)

// Topic names relative to the device ID.
const (
	TopicSamples = "samples"
	TopicReply   = "reply"
	TopicStatus  = "status"
	TopicCmd     = "cmd"
)

// Status payloads.
var (
	StatusOnline  = []byte("online")
	StatusOffline = []byte("offline")
)

// Device is the bridged device.
type Device interface {
	Samples() <-chan protocol.Sample
	Replies() <-chan *protocol.Reply
	Send(cmd byte) error
}

// Queue is the message queue consumers are attached to.
type Queue interface {
	Publish(topic string, payload []byte) error
	PublishRetained(topic string, payload []byte) error
	Subscribe(pattern string, handler mqtt.Handler) io.Closer
}

// Feed receives every encoded sample.
type Feed interface {
	Broadcast(msg []byte)
}

// Bridge connects a Device to a Queue through the dispatch loop.
type Bridge struct {
	DeviceID string
	Device   Device
	Queue    Queue
	Feed     Feed
	Metrics  *Metrics
}

// New creates a Bridge.
func New(id string, dev Device, q Queue) *Bridge {
	return &Bridge{DeviceID: id, Device: dev, Queue: q, Metrics: NewMetrics(nil)}
}

// Topic returns the queue topic of name for this device.
func (b *Bridge) Topic(name string) string {
	return b.DeviceID + "/" + name
}

// AddToLoop implements framework.LoopAdder.
func (b *Bridge) AddToLoop(l *fx.Loop) {
	l.AddRunnable(fx.NamedRun("bridge", b))
	l.AddController(fx.PrLvCommand, fx.ControlFunc(b.forwardCommands))
	l.AddController(fx.PrLvPublish, fx.ControlFunc(b.publish))
}

// Run implements framework.Runnable. It moves device output and queue
// commands into loop messages.
func (b *Bridge) Run(ctx context.Context) error {
	ctl := fx.LoopCtlFrom(ctx)
	sub := b.Queue.Subscribe(b.Topic(TopicCmd), func(topic string, payload []byte) {
		if len(payload) == 0 {
			return
		}
		cmds := make([]byte, len(payload))
		copy(cmds, payload)
		ctl.PostMessage(&CommandMessage{Commands: cmds})
		ctl.TriggerNext()
	})
	defer sub.Close()
	if err := b.Queue.PublishRetained(b.Topic(TopicStatus), StatusOnline); err != nil {
		glog.Warningf("publish status error: %v", err)
	}

	samples, replies := b.Device.Samples(), b.Device.Replies()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s := <-samples:
			ctl.PostMessage(&SampleMessage{Sample: s})
		case r := <-replies:
			ctl.PostMessage(&ReplyMessage{Reply: r})
		}
		ctl.TriggerNext()
	}
}

func (b *Bridge) forwardCommands(cc fx.ControlContext) error {
	var errs fx.AggregatedError
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		msg, ok := mctx.CurrentMessage().(*CommandMessage)
		if !ok {
			return
		}
		mctx.MessageTaken()
		for _, cmd := range msg.Commands {
			glog.V(2).Infof("forward command %q", cmd)
			if err := b.Device.Send(cmd); err != nil {
				errs.Add(err)
				continue
			}
			b.Metrics.Commands.Inc()
		}
	}))
	return errs.Aggregate()
}

func (b *Bridge) publish(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		switch msg := mctx.CurrentMessage().(type) {
		case *SampleMessage:
			mctx.MessageTaken()
			b.publishSample(msg.Sample)
		case *ReplyMessage:
			mctx.MessageTaken()
			b.publishReply(msg.Reply)
		}
	}))
	return nil
}

func (b *Bridge) publishSample(s protocol.Sample) {
	payload, err := EncodeSample(s)
	if err != nil {
		glog.Errorf("encode sample error: %v", err)
		return
	}
	b.Metrics.Samples.Inc()
	if b.Feed != nil {
		b.Feed.Broadcast(payload)
	}
	if err := b.Queue.Publish(b.Topic(TopicSamples), payload); err != nil {
		b.Metrics.PublishErrors.Inc()
		glog.V(2).Infof("publish sample error: %v", err)
	}
}

func (b *Bridge) publishReply(r *protocol.Reply) {
	b.Metrics.Replies.WithLabelValues(r.Kind.String()).Inc()
	if r.Kind == protocol.ReplyError {
		glog.Warningf("device rejected command %q", r.Byte)
	}
	payload, err := EncodeReply(r)
	if err != nil {
		glog.Errorf("encode reply error: %v", err)
		return
	}
	if err := b.Queue.Publish(b.Topic(TopicReply), payload); err != nil {
		b.Metrics.PublishErrors.Inc()
		glog.Warningf("publish reply error: %v", err)
	}
}

// Handler serves /metrics and, if Feed is an http.Handler, /samples.
func (b *Bridge) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", b.Metrics.Handler())
	if h, ok := b.Feed.(http.Handler); ok {
		mux.Handle("/samples", h)
	}
	return mux
}
