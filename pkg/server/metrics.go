package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/edom-dev/edom/pkg/protocol"
)

// metrics holds the connection-level Prometheus metrics. Per-cycle metrics
// live in pkg/middleware.
type metrics struct {
	activeSessions prometheus.Gauge
	sessionsTotal  prometheus.Counter
	handshakes     *prometheus.CounterVec
	framesSent     *prometheus.CounterVec
	framesReceived *prometheus.CounterVec
	bytesSent      prometheus.Counter
	bytesReceived  prometheus.Counter
	opsSent        prometheus.Counter
	aborted        prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	const ns, sub = "edom", "server"

	return &metrics{
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: sub,
			Name: "active_sessions",
			Help: "Number of live sessions, connected or waiting for their socket",
		}),
		sessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "sessions_total",
			Help: "Total number of sessions created",
		}),
		handshakes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "handshakes_total",
			Help: "WebSocket handshakes by status",
		}, []string{"status"}),
		framesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "frames_sent_total",
			Help: "Frames written to clients by type",
		}, []string{"type"}),
		framesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "frames_received_total",
			Help: "Frames read from clients by type",
		}, []string{"type"}),
		bytesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "bytes_sent_total",
			Help: "Bytes written to clients",
		}),
		bytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "bytes_received_total",
			Help: "Bytes read from clients",
		}),
		opsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "host_ops_sent_total",
			Help: "Host operations sent to clients",
		}),
		aborted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "engines_aborted_total",
			Help: "Sessions closed because their engine aborted",
		}),
	}
}

func (m *metrics) frameSent(ft protocol.FrameType, n int) {
	m.framesSent.WithLabelValues(ft.String()).Inc()
	m.bytesSent.Add(float64(n))
}

func (m *metrics) frameReceived(ft protocol.FrameType, n int) {
	m.framesReceived.WithLabelValues(ft.String()).Inc()
	m.bytesReceived.Add(float64(n))
}
