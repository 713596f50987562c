package realtime

import "github.com/prometheus/client_golang/prometheus"

// Metrics tracks the realtime connection. A nil *Metrics records nothing.
type Metrics struct {
	up         prometheus.Gauge
	inbound    *prometheus.CounterVec
	outbound   *prometheus.CounterVec
	reconnects prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		up: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "compass",
			Subsystem: "realtime",
			Name:      "connected",
			Help:      "1 while the realtime connection is established.",
		}),
		inbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "compass",
			Subsystem: "realtime",
			Name:      "events_received_total",
			Help:      "Realtime events received by name.",
		}, []string{"event"}),
		outbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "compass",
			Subsystem: "realtime",
			Name:      "events_emitted_total",
			Help:      "Realtime events emitted by name.",
		}, []string{"event"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "compass",
			Subsystem: "realtime",
			Name:      "reconnect_attempts_total",
			Help:      "Reconnect attempts after the connection dropped.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.up, m.inbound, m.outbound, m.reconnects)
	}
	return m
}

func (m *Metrics) setConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.up.Set(1)
		return
	}
	m.up.Set(0)
}

func (m *Metrics) received(event string) {
	if m == nil {
		return
	}
	m.inbound.WithLabelValues(event).Inc()
}

func (m *Metrics) emitted(event string) {
	if m == nil {
		return
	}
	m.outbound.WithLabelValues(event).Inc()
}

func (m *Metrics) reconnectAttempt() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}
