package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeOK labels successful operations.
	OutcomeOK = "ok"
	// OutcomeError labels failed operations.
	OutcomeError = "error"
	// OutcomeSkipped labels operations skipped by configuration or overlap.
	OutcomeSkipped = "skipped"
)

var (
	monitorPassesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sla_engine",
			Name:      "monitor_passes_total",
			Help:      "Total breach monitor passes, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	alertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sla_engine",
			Name:      "alerts_total",
			Help:      "Total SLA alerts emitted, partitioned by alert type.",
		},
		[]string{"type"},
	)

	notificationsThrottledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sla_engine",
			Name:      "notifications_throttled_total",
			Help:      "Alerts dropped by the per-ticket throttle window.",
		},
	)

	channelDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sla_engine",
			Name:      "channel_deliveries_total",
			Help:      "Channel delivery attempts, partitioned by channel and outcome.",
		},
		[]string{"channel", "outcome"},
	)
)

// RegisterMetrics attaches the engine's collectors to the supplied registerer.
func RegisterMetrics(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		monitorPassesTotal,
		alertsTotal,
		notificationsThrottledTotal,
		channelDeliveriesTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveMonitorPass records one completed or failed monitor pass.
func ObserveMonitorPass(outcome string) {
	monitorPassesTotal.WithLabelValues(outcome).Inc()
}

// ObserveAlert records one emitted SLA alert.
func ObserveAlert(alertType string) {
	alertsTotal.WithLabelValues(alertType).Inc()
}

// ObserveThrottled records one alert dropped by the throttle.
func ObserveThrottled() {
	notificationsThrottledTotal.Inc()
}

// ObserveDelivery records one channel delivery attempt.
func ObserveDelivery(channel, outcome string) {
	channelDeliveriesTotal.WithLabelValues(channel, outcome).Inc()
}
