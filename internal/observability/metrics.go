package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec

	realtimeSessionsActive  prometheus.Gauge
	realtimeRoomsActive     prometheus.Gauge
	realtimeEventsReceived  *prometheus.CounterVec
	realtimeEventsPublished *prometheus.CounterVec
	realtimeEventsDropped   *prometheus.CounterVec

	messagesAppendedTotal      *prometheus.CounterVec
	conversationsCreatedTotal  *prometheus.CounterVec
	rosterReconciliationsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the chat service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_http_requests_total",
			Help: "Total number of chat API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chat_http_latency_seconds",
			Help:    "Latency distribution for chat API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_http_errors_total",
			Help: "Total number of error responses returned by chat endpoints.",
		}, []string{"method", "route", "status"})

		realtimeSessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "realtime_sessions_active",
			Help: "Number of websocket sessions currently connected.",
		})

		realtimeRoomsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "realtime_rooms_active",
			Help: "Number of rooms with at least one joined session.",
		})

		realtimeEventsReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_events_received_total",
			Help: "Total number of inbound realtime events by event name.",
		}, []string{"event"})

		realtimeEventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_events_published_total",
			Help: "Total number of events delivered to sessions by event name.",
		}, []string{"event"})

		realtimeEventsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_events_dropped_total",
			Help: "Total number of events dropped for slow or closed sessions.",
		}, []string{"event"})

		messagesAppendedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_messages_appended_total",
			Help: "Total number of messages persisted by content kind.",
		}, []string{"kind"})

		conversationsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_conversations_created_total",
			Help: "Total number of conversations created by kind.",
		}, []string{"kind"})

		rosterReconciliationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_roster_reconciliations_total",
			Help: "Total number of committee roster reconciliations by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			realtimeSessionsActive,
			realtimeRoomsActive,
			realtimeEventsReceived,
			realtimeEventsPublished,
			realtimeEventsDropped,
			messagesAppendedTotal,
			conversationsCreatedTotal,
			rosterReconciliationsTotal,
		)
	})
}

// HTTPRequests exposes the counter for chat API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for chat API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for chat API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// RealtimeSessionsActive exposes the connected-session gauge.
func RealtimeSessionsActive() prometheus.Gauge {
	RegisterMetrics()
	return realtimeSessionsActive
}

// RealtimeRoomsActive exposes the active-room gauge.
func RealtimeRoomsActive() prometheus.Gauge {
	RegisterMetrics()
	return realtimeRoomsActive
}

// RealtimeEventsReceived exposes the inbound-event counter.
func RealtimeEventsReceived() *prometheus.CounterVec {
	RegisterMetrics()
	return realtimeEventsReceived
}

// RealtimeEventsPublished exposes the delivered-event counter.
func RealtimeEventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return realtimeEventsPublished
}

// RealtimeEventsDropped exposes the dropped-event counter.
func RealtimeEventsDropped() *prometheus.CounterVec {
	RegisterMetrics()
	return realtimeEventsDropped
}

// MessagesAppended exposes the persisted-message counter.
func MessagesAppended() *prometheus.CounterVec {
	RegisterMetrics()
	return messagesAppendedTotal
}

// ConversationsCreated exposes the conversation-creation counter.
func ConversationsCreated() *prometheus.CounterVec {
	RegisterMetrics()
	return conversationsCreatedTotal
}

// RosterReconciliations exposes the reconciliation-outcome counter.
func RosterReconciliations() *prometheus.CounterVec {
	RegisterMetrics()
	return rosterReconciliationsTotal
}
