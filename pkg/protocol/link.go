package protocol

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
)

// SampleHandler is called when a sample frame is received.
type SampleHandler interface {
	HandleSample(context.Context, Sample)
}

// HandleSampleFunc is func type of SampleHandler.
type HandleSampleFunc func(context.Context, Sample)

// HandleSample implements SampleHandler.
func (f HandleSampleFunc) HandleSample(ctx context.Context, s Sample) {
	f(ctx, s)
}

// ReplyHandler is called when a text reply is received.
type ReplyHandler interface {
	HandleReply(context.Context, *Reply)
}

// HandleReplyFunc is func type of ReplyHandler.
type HandleReplyFunc func(context.Context, *Reply)

// HandleReply implements ReplyHandler.
func (f HandleReplyFunc) HandleReply(ctx context.Context, r *Reply) {
	f(ctx, r)
}

// LinkStats counts what a Link has decoded so far.
type LinkStats struct {
	Samples uint64
	Replies uint64
	Dropped uint64
}

// Link sends commands and decodes device output over a byte stream.
type Link struct {
	ReadWriter io.ReadWriter
	Samples    SampleHandler
	Replies    ReplyHandler

	sendLock sync.Mutex
	parser   Parser

	samples atomic.Uint64
	replies atomic.Uint64
	dropped atomic.Uint64
}

// NewLink creates a Link.
func NewLink(rw io.ReadWriter) *Link {
	return &Link{ReadWriter: rw}
}

// Send writes one command byte.
func (l *Link) Send(cmd byte) error {
	l.sendLock.Lock()
	defer l.sendLock.Unlock()
	glog.V(2).Infof("SND %q", cmd)
	_, err := l.ReadWriter.Write([]byte{cmd})
	return err
}

// Stats returns the decoding counters.
func (l *Link) Stats() LinkStats {
	return LinkStats{
		Samples: l.samples.Load(),
		Replies: l.replies.Load(),
		Dropped: l.dropped.Load(),
	}
}

// Run decodes the stream until ctx is done or reading fails.
// The background reader exits once the underlying stream is closed.
func (l *Link) Run(ctx context.Context) error {
	l.parser.Reset()
	chunkCh, errCh := make(chan []byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go l.readLoop(subCtx, chunkCh, errCh)
	for {
		select {
		case chunk := <-chunkCh:
			for _, b := range chunk {
				l.apply(ctx, l.parser.Parse(b))
			}
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Link) readLoop(ctx context.Context, chunkCh chan []byte, errCh chan error) {
	buf := make([]byte, 64)
	for {
		n, err := l.ReadWriter.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case chunkCh <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			errCh <- err
			return
		}
	}
}

func (l *Link) apply(ctx context.Context, pr ParseResult) {
	if pr.Dropped {
		l.dropped.Add(1)
		glog.V(2).Info("frame dropped")
	}
	if pr.Sample != nil {
		l.samples.Add(1)
		if h := l.Samples; h != nil {
			h.HandleSample(ctx, *pr.Sample)
		}
	}
	if pr.Reply != nil {
		l.replies.Add(1)
		glog.V(2).Infof("RCV %q", pr.Reply.Text)
		if h := l.Replies; h != nil {
			h.HandleReply(ctx, pr.Reply)
		}
	}
}
