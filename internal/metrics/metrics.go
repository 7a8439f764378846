package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "livequiz"

// Metrics holds the Prometheus collectors for the quiz server. It implements ws.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	connections     prometheus.Gauge
	messagesSent    *prometheus.CounterVec
	messagesDropped *prometheus.CounterVec
	events          *prometheus.CounterVec
	admission       *prometheus.CounterVec
	participants    prometheus.Gauge
	answers         prometheus.Gauge
	questions       prometheus.Counter
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections",
			Help:      "Open WebSocket connections.",
		}),
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_sent_total",
			Help:      "Outbound messages queued for delivery, per recipient.",
		}, []string{"type"}),
		messagesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_dropped_total",
			Help:      "Outbound messages dropped because the recipient queue was full or closed.",
		}, []string{"type"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Inbound events handled, by type and outcome.",
		}, []string{"type", "outcome"}),
		admission: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admission_rejections_total",
			Help:      "Connections rejected before upgrade.",
		}, []string{"reason"}),
		participants: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_participants",
			Help:      "Participants currently joined to the session.",
		}),
		answers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_answers",
			Help:      "Answers recorded for the current question.",
		}),
		questions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_published_total",
			Help:      "Questions published by the administrator.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.connections,
		m.messagesSent,
		m.messagesDropped,
		m.events,
		m.admission,
		m.participants,
		m.answers,
		m.questions,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ConnectionOpened() { m.connections.Inc() }

func (m *Metrics) ConnectionClosed() { m.connections.Dec() }

func (m *Metrics) MessageSent(msgType string) {
	m.messagesSent.WithLabelValues(msgType).Inc()
}

func (m *Metrics) MessageDropped(msgType string) {
	m.messagesDropped.WithLabelValues(msgType).Inc()
}

// EventHandled counts an inbound event; outcome is "ok" or an error code.
func (m *Metrics) EventHandled(msgType, outcome string) {
	m.events.WithLabelValues(msgType, outcome).Inc()
}

func (m *Metrics) AdmissionRejected(reason string) {
	m.admission.WithLabelValues(reason).Inc()
}

func (m *Metrics) QuestionPublished() { m.questions.Inc() }

// SessionSize records the live participant and answer counts.
func (m *Metrics) SessionSize(participants, answers int) {
	m.participants.Set(float64(participants))
	m.answers.Set(float64(answers))
}
