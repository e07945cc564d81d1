package myftp

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/myftp/myftp/encoding/frame"
)

// serverMetrics instruments a Server.
type serverMetrics struct {
	connections    prometheus.Counter
	active         prometheus.Gauge
	requests       *prometheus.CounterVec
	bytesSent      prometheus.Counter
	bytesReceived  prometheus.Counter
	protocolErrors prometheus.Counter
}

func newServerMetrics() *serverMetrics {
	return &serverMetrics{
		connections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "myftp",
			Name:      "connections_total",
			Help:      "Connections accepted.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "myftp",
			Name:      "connections_active",
			Help:      "Connections currently being served.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "myftp",
			Name:      "requests_total",
			Help:      "Requests received, by message type.",
		}, []string{"type"}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "myftp",
			Name:      "bytes_sent_total",
			Help:      "File bytes streamed to clients.",
		}),
		bytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "myftp",
			Name:      "bytes_received_total",
			Help:      "File bytes streamed from clients.",
		}),
		protocolErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "myftp",
			Name:      "protocol_errors_total",
			Help:      "Connections dropped for violating the protocol.",
		}),
	}
}

func (m *serverMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.connections,
		m.active,
		m.requests,
		m.bytesSent,
		m.bytesReceived,
		m.protocolErrors,
	}
}

func (m *serverMetrics) register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *serverMetrics) request(t frame.MessageType) {
	m.requests.WithLabelValues(t.String()).Inc()
}

func (m *serverMetrics) sent(n int) {
	m.bytesSent.Add(float64(n))
}

func (m *serverMetrics) received(n int) {
	m.bytesReceived.Add(float64(n))
}
