package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "repowatch"

var (
	webhookEventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "webhook",
		Name:      "events_received_total",
		Help:      "Webhook events accepted by the listener, by event type.",
	}, []string{"event"})

	webhookEventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "webhook",
		Name:      "events_dropped_total",
		Help:      "Webhook events dropped for lacking a projector or relevant action.",
	})

	notificationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "notify",
		Name:      "deliveries_total",
		Help:      "Notification messages delivered to recipients.",
	})

	notificationsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "notify",
		Name:      "delivery_failures_total",
		Help:      "Notification deliveries that failed.",
	})

	reconcilePasses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "poll",
		Name:      "cycles_total",
		Help:      "Completed reconciliation cycles.",
	})

	reconcileNewItems = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "poll",
		Name:      "new_items_total",
		Help:      "Items detected as new since the previous watermark.",
	})
)
