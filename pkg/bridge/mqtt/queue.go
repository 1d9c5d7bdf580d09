package mqtt

import (
	"errors"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

// DefaultTimeout bounds connecting and publishing.
const DefaultTimeout = 5 * time.Second

// ErrTimeout is returned when the broker does not acknowledge in time.
var ErrTimeout = errors.New("mqtt timeout")

// Handler is the callback when a message is received. topic has the
// queue's prefix stripped.
type Handler func(topic string, payload []byte)

// Option customizes the client options.
type Option func(opts *paho.ClientOptions, topicPrefix string)

// WithClientID sets the client ID unless the URL specifies one.
func WithClientID(id string) Option {
	return func(opts *paho.ClientOptions, _ string) {
		if opts.ClientID == "" {
			opts.SetClientID(id)
		}
	}
}

// WithWill sets the last will, published retained when the connection
// is lost.
func WithWill(topic string, payload []byte) Option {
	return func(opts *paho.ClientOptions, topicPrefix string) {
		opts.SetBinaryWill(topicPrefix+topic, payload, 0, true)
	}
}

// Queue wraps an MQTT client with topics relative to a prefix.
type Queue struct {
	Client      paho.Client
	TopicPrefix string
	Timeout     time.Duration
	// OnConnect is called after each (re)connect, once subscriptions are
	// restored.
	OnConnect func(*Queue)

	subsLock sync.RWMutex
	subs     map[string][]*Subscription
}

// Subscription is a handler subscribed to a topic pattern.
type Subscription struct {
	queue   *Queue
	pattern string
	handler Handler
}

// MatchTopic matches topic with an MQTT topic filter.
func MatchTopic(topic, pattern string) bool {
	tokensT, tokensP := strings.Split(topic, "/"), strings.Split(pattern, "/")
	for i, token := range tokensP {
		if token == "#" {
			return i+1 == len(tokensP)
		}
		if i >= len(tokensT) {
			return false
		}
		if token != "+" && token != tokensT[i] {
			return false
		}
	}
	return len(tokensT) == len(tokensP)
}

// ClientOptionsFromURL creates ClientOptions from URL
// mqtt://[user:pass@]host:port/topic-prefix[?client-id=ID].
func ClientOptionsFromURL(serverURL string) (*paho.ClientOptions, string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, "", err
	}
	scheme := u.Scheme
	if scheme == "" || scheme == "mqtt" {
		scheme = "tcp"
	}
	opts := paho.NewClientOptions()
	opts.AddBroker(scheme + "://" + u.Host).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if pwd, ok := u.User.Password(); ok {
			opts.SetPassword(pwd)
		}
	}
	if clientID := u.Query().Get("client-id"); clientID != "" {
		opts.SetClientID(clientID)
	}
	return opts, strings.TrimPrefix(u.Path, "/"), nil
}

// NewQueue creates Queue.
func NewQueue(options *paho.ClientOptions, topicPrefix string) *Queue {
	q := &Queue{TopicPrefix: topicPrefix, Timeout: DefaultTimeout}
	options.SetOnConnectHandler(q.onConnect)
	options.SetConnectionLostHandler(q.onConnectionLost)
	q.Client = paho.NewClient(options)
	return q
}

// NewQueueFromURL creates Queue from URL.
func NewQueueFromURL(brokerURL string, options ...Option) (*Queue, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	for _, opt := range options {
		opt(opts, topicPrefix)
	}
	return NewQueue(opts, topicPrefix), nil
}

func (q *Queue) wait(token paho.Token) error {
	if !token.WaitTimeout(q.Timeout) {
		return ErrTimeout
	}
	return token.Error()
}

// Connect connects to the broker.
func (q *Queue) Connect() error {
	return q.wait(q.Client.Connect())
}

// Close implements io.Closer.
func (q *Queue) Close() error {
	q.Client.Disconnect(250)
	return nil
}

// Publish publishes payload to topic with QoS 0.
func (q *Queue) Publish(topic string, payload []byte) error {
	return q.wait(q.Client.Publish(q.TopicPrefix+topic, 0, false, payload))
}

// PublishRetained publishes a retained payload to topic.
func (q *Queue) PublishRetained(topic string, payload []byte) error {
	return q.wait(q.Client.Publish(q.TopicPrefix+topic, 0, true, payload))
}

// Subscribe subscribes handler to a topic pattern relative to the prefix.
// The returned Closer unsubscribes.
func (q *Queue) Subscribe(pattern string, handler Handler) io.Closer {
	sub := &Subscription{queue: q, pattern: pattern, handler: handler}
	q.subsLock.Lock()
	if q.subs == nil {
		q.subs = make(map[string][]*Subscription)
	}
	first := len(q.subs[pattern]) == 0
	q.subs[pattern] = append(q.subs[pattern], sub)
	q.subsLock.Unlock()

	if first {
		glog.V(2).Infof("SUB %q", q.TopicPrefix+pattern)
		q.Client.Subscribe(q.TopicPrefix+pattern, 0, q.dispatch)
	}
	return sub
}

func (q *Queue) resubscribe() {
	filters := make(map[string]byte)
	q.subsLock.RLock()
	for pattern := range q.subs {
		filters[q.TopicPrefix+pattern] = 0
	}
	q.subsLock.RUnlock()
	if len(filters) > 0 {
		glog.V(2).Infof("SUB %d topics", len(filters))
		q.Client.SubscribeMultiple(filters, q.dispatch)
	}
}

func (q *Queue) onConnect(paho.Client) {
	glog.Info("mqtt connected")
	q.resubscribe()
	if h := q.OnConnect; h != nil {
		h(q)
	}
}

func (q *Queue) onConnectionLost(_ paho.Client, err error) {
	glog.Warningf("mqtt connection lost: %v", err)
}

func (q *Queue) dispatch(_ paho.Client, msg paho.Message) {
	topic := msg.Topic()
	if !strings.HasPrefix(topic, q.TopicPrefix) {
		return
	}
	topic = topic[len(q.TopicPrefix):]
	glog.V(2).Infof("RCV %q", topic)
	var handlers []Handler
	q.subsLock.RLock()
	for pattern, subs := range q.subs {
		if MatchTopic(topic, pattern) {
			for _, sub := range subs {
				handlers = append(handlers, sub.handler)
			}
		}
	}
	q.subsLock.RUnlock()
	payload := msg.Payload()
	for _, h := range handlers {
		h(topic, payload)
	}
}

// Close unsubscribes the handler.
func (s *Subscription) Close() error {
	q := s.queue
	q.subsLock.Lock()
	subs := q.subs[s.pattern]
	for i, sub := range subs {
		if sub == s {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	last := len(subs) == 0
	if last {
		delete(q.subs, s.pattern)
	} else {
		q.subs[s.pattern] = subs
	}
	q.subsLock.Unlock()
	if last && q.Client.IsConnected() {
		glog.V(2).Infof("UNSUB %q", q.TopicPrefix+s.pattern)
		return q.wait(q.Client.Unsubscribe(q.TopicPrefix + s.pattern))
	}
	return nil
}
