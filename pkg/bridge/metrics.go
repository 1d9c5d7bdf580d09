package bridge

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robotalks/wavedac/pkg/protocol"
)

// Metrics are the bridge counters, kept in a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	Samples       prometheus.Counter
	Replies       *prometheus.CounterVec
	Commands      prometheus.Counter
	PublishErrors prometheus.Counter
}

// NewMetrics creates Metrics. If stats is not nil, the link counters are
// exported as well.
func NewMetrics(stats func() protocol.LinkStats) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Samples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wavedac_samples_published_total",
			Help: "Samples forwarded to consumers.",
		}),
		Replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wavedac_replies_total",
			Help: "Text replies received from the device.",
		}, []string{"kind"}),
		Commands: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wavedac_commands_total",
			Help: "Command bytes forwarded to the device.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wavedac_publish_errors_total",
			Help: "Failed MQTT publishes.",
		}),
	}
	m.Registry.MustRegister(m.Samples, m.Replies, m.Commands, m.PublishErrors,
		collectors.NewGoCollector())
	if stats != nil {
		m.Registry.MustRegister(
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Name: "wavedac_link_samples_total",
				Help: "Sample frames decoded from the serial link.",
			}, func() float64 { return float64(stats().Samples) }),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Name: "wavedac_link_dropped_frames_total",
				Help: "Malformed sample frames dropped by the parser.",
			}, func() float64 { return float64(stats().Dropped) }),
		)
	}
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
