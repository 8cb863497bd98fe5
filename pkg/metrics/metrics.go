package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "collabwrite", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "collabwrite", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "collabwrite", Name: "realtime_active_sessions", Help: "Currently connected realtime sessions."},
	)
	EventsRelayed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "collabwrite", Name: "realtime_events_relayed_total", Help: "Events fanned out to room members by event type."},
		[]string{"event"},
	)
	DocumentSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "collabwrite", Name: "document_saves_total", Help: "Document save attempts by trigger source and outcome."},
		[]string{"trigger", "outcome"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(ActiveSessions)
	reg.MustRegister(EventsRelayed)
	reg.MustRegister(DocumentSaves)
}
