package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	TokenRegistrations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pwa_push",
		Name:      "token_registrations_total",
		Help:      "Device token registrations by action (inserted, updated).",
	}, []string{"action"})

	TokenDeactivations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pwa_push",
		Name:      "token_deactivations_total",
		Help:      "Device tokens soft-deleted, by explicit request or gateway feedback.",
	})

	ActiveTokens = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pwa_push",
		Name:      "active_tokens",
		Help:      "Active device tokens seen on the last listing.",
	})

	NotificationsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pwa_push",
		Name:      "notifications_sent_total",
		Help:      "Push gateway sends by result (success, transient, terminal, config).",
	}, []string{"result"})

	SendDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pwa_push",
		Name:      "send_duration_seconds",
		Help:      "Latency of a single dispatcher send including retries.",
		Buckets:   prometheus.DefBuckets,
	})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		TokenRegistrations,
		TokenDeactivations,
		ActiveTokens,
		NotificationsSent,
		SendDuration,
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
