// Package metrics guarda os contadores de negócio do funil.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	attributionEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attribution_events_total",
			Help: "Conversion events sent to the Meta Conversions API by result",
		},
		[]string{"event", "result"},
	)

	webhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Total number of Hotmart webhook deliveries by event kind",
		},
		[]string{"event"},
	)

	leadsCaptured = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_captured_total",
			Help: "Total number of quiz submissions persisted as leads",
		},
	)
)

const (
	ResultSent   = "sent"
	ResultFailed = "failed"
)

// RecordAttribution conta um envio para a Meta.
func RecordAttribution(event, result string) {
	attributionEvents.WithLabelValues(event, result).Inc()
}

func RecordWebhookEvent(event string) {
	if event == "" {
		event = "unknown"
	}
	webhookEvents.WithLabelValues(event).Inc()
}

func RecordLeadCaptured() {
	leadsCaptured.Inc()
}
