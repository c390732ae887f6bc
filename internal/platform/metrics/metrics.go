package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the portal.
type Metrics struct {
	GuardDecisions      *prometheus.CounterVec
	SignIns             prometheus.Counter
	NotificationsQueued prometheus.Counter
	NotificationsFailed prometheus.Counter
	DependencyUp        *prometheus.GaugeVec
}

// New creates and registers all portal metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		GuardDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_guard_decisions_total",
			Help: "Route guard decisions by outcome (allow, deny, public).",
		}, []string{"outcome"}),
		SignIns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "portal_sign_ins_total",
			Help: "Successful credential sign-ins.",
		}),
		NotificationsQueued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "portal_notifications_queued_total",
			Help: "Record-change notifications handed to the dispatcher.",
		}),
		NotificationsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "portal_notifications_failed_total",
			Help: "Notification deliveries that failed (logged, never retried).",
		}),
		DependencyUp: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "portal_dependency_up",
			Help: "Connectivity indicator per dependency (1 up, 0 down).",
		}, []string{"dependency"}),
	}
}
