// Package telemetry provides Prometheus metrics for the event engine and chat transport.
package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	// Counters, labelled by event kind
	EventsStarted   *prometheus.CounterVec
	EventsRejected  *prometheus.CounterVec
	EventsSettled   *prometheus.CounterVec
	EventsCancelled *prometheus.CounterVec

	// Chews moved by settlements, labelled by event kind and direction (escrow, refund, payout)
	ChewsMoved *prometheus.CounterVec

	// Chat messages sent, labelled by method (message, whisper, timeout)
	ChatMessagesSent *prometheus.CounterVec

	// Gauges
	ActiveEvents *prometheus.GaugeVec
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		EventsStarted = promauto.NewCounterVec(prometheus.CounterOpts{Name: "chewbot_events_started_total", Help: "Participation events started"}, []string{"kind"})
		EventsRejected = promauto.NewCounterVec(prometheus.CounterOpts{Name: "chewbot_events_rejected_total", Help: "Participation event starts vetoed"}, []string{"kind"})
		EventsSettled = promauto.NewCounterVec(prometheus.CounterOpts{Name: "chewbot_events_settled_total", Help: "Participation events settled"}, []string{"kind"})
		EventsCancelled = promauto.NewCounterVec(prometheus.CounterOpts{Name: "chewbot_events_cancelled_total", Help: "Participation events cancelled with a refund"}, []string{"kind"})
		ChewsMoved = promauto.NewCounterVec(prometheus.CounterOpts{Name: "chewbot_chews_moved_total", Help: "Chews moved by the event engine"}, []string{"kind", "direction"})
		ChatMessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{Name: "chewbot_chat_messages_sent_total", Help: "Chat messages sent by the bot"}, []string{"method"})
		ActiveEvents = promauto.NewGaugeVec(prometheus.GaugeOpts{Name: "chewbot_active_events", Help: "Events currently registered, including cooling ones"}, []string{"kind"})
	})
}

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }

func incVec(vec *prometheus.CounterVec, labels ...string) {
	if vec != nil {
		vec.WithLabelValues(labels...).Inc()
	}
}

// EventStarted records a successful start of kind.
func EventStarted(kind string) {
	incVec(EventsStarted, kind)
	if ActiveEvents != nil {
		ActiveEvents.WithLabelValues(kind).Inc()
	}
}

// EventRejected records a vetoed start of kind.
func EventRejected(kind string) { incVec(EventsRejected, kind) }

// EventSettled records a settlement of kind.
func EventSettled(kind string) { incVec(EventsSettled, kind) }

// EventCancelled records a refunded cancellation of kind.
func EventCancelled(kind string) { incVec(EventsCancelled, kind) }

// EventDeregistered records that an event of kind left the registry.
func EventDeregistered(kind string) {
	if ActiveEvents != nil {
		ActiveEvents.WithLabelValues(kind).Dec()
	}
}

// AddChews records amount chews moved in direction for kind.
func AddChews(kind, direction string, amount int64) {
	if ChewsMoved != nil && amount > 0 {
		ChewsMoved.WithLabelValues(kind, direction).Add(float64(amount))
	}
}

// ChatSent records one outgoing chat action.
func ChatSent(method string) { incVec(ChatMessagesSent, method) }
