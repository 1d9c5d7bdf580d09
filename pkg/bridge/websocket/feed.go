package websocket

import (
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// DefaultBufferSize is the number of messages queued per connection.
const DefaultBufferSize = 64

// Feed broadcasts text messages to all connected websocket clients.
// Slow clients lose messages instead of blocking the feed.
type Feed struct {
	BufferSize int

	lock  sync.Mutex
	conns map[*feedConn]struct{}
}

type feedConn struct {
	ch      chan []byte
	dropped uint64
}

// NewFeed creates a Feed.
func NewFeed() *Feed {
	return &Feed{BufferSize: DefaultBufferSize}
}

// ServeHTTP implements http.Handler.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(f.serve).ServeHTTP(w, r)
}

// Clients returns the number of connected clients.
func (f *Feed) Clients() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return len(f.conns)
}

// Broadcast queues msg to every connected client.
func (f *Feed) Broadcast(msg []byte) {
	f.lock.Lock()
	defer f.lock.Unlock()
	for c := range f.conns {
		select {
		case c.ch <- msg:
		default:
			c.dropped++
		}
	}
}

func (f *Feed) add() *feedConn {
	size := f.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}
	c := &feedConn{ch: make(chan []byte, size)}
	f.lock.Lock()
	if f.conns == nil {
		f.conns = make(map[*feedConn]struct{})
	}
	f.conns[c] = struct{}{}
	f.lock.Unlock()
	return c
}

func (f *Feed) remove(c *feedConn) uint64 {
	f.lock.Lock()
	defer f.lock.Unlock()
	delete(f.conns, c)
	return c.dropped
}

func (f *Feed) serve(conn *websocket.Conn) {
	defer conn.Close()
	c := f.add()
	glog.V(2).Infof("feed client %s connected", conn.Request().RemoteAddr)

	// clients never send, reading only detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		var discard string
		for websocket.Message.Receive(conn, &discard) == nil {
		}
	}()

	for {
		select {
		case msg := <-c.ch:
			if err := websocket.Message.Send(conn, string(msg)); err != nil {
				glog.V(2).Infof("feed send error: %v", err)
				f.close(conn, c)
				return
			}
		case <-closed:
			f.close(conn, c)
			return
		}
	}
}

func (f *Feed) close(conn *websocket.Conn, c *feedConn) {
	dropped := f.remove(c)
	glog.V(2).Infof("feed client %s disconnected, %d messages dropped", conn.Request().RemoteAddr, dropped)
}
