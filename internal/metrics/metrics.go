package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connection metrics
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "coview_connections_active",
		Help: "The current number of live real-time connections.",
	})
	TotalConnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coview_connections_total",
		Help: "The total number of real-time connections accepted.",
	})
	MessagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coview_messages_received_total",
		Help: "The total number of inbound events, by event name.",
	}, []string{"event"})
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coview_messages_sent_total",
		Help: "The total number of frames queued for clients.",
	})
	SlowConsumers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coview_slow_consumers_total",
		Help: "The total number of connections closed because their send buffer was full.",
	})

	// Session metrics
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "coview_sessions_active",
		Help: "The current number of live co-viewing sessions.",
	})
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coview_sessions_created_total",
		Help: "The total number of sessions created.",
	})
	SessionsTerminated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coview_sessions_terminated_total",
		Help: "The total number of sessions terminated, by reason.",
	}, []string{"reason"})
	PageChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coview_page_changes_total",
		Help: "The total number of authorized page changes broadcast.",
	})
	HandlerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coview_handler_errors_total",
		Help: "The total number of errors returned to clients, by kind.",
	}, []string{"kind"})

	// Upload metrics
	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coview_uploads_total",
		Help: "The total number of PDF uploads, by result.",
	}, []string{"result"})
	BlobDeletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coview_blob_deletes_total",
		Help: "The total number of blob deletions attempted, by result.",
	}, []string{"result"})
)
