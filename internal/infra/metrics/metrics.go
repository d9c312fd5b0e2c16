// File: internal/infra/metrics/metrics.go
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(redirectsTotal, resolveLatencyMs, scansRecordedTotal, codesTotal)
}

var (
	redirectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_total",
			Help:      "Visits by outcome (redirected/not_found/invalid/error) and code kind.",
		},
		[]string{"outcome", "kind"},
	)

	resolveLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_latency_ms",
			Help:      "Code resolution latency in milliseconds, including retries.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"success"},
	)

	scansRecordedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_recorded_total",
			Help:      "Scan appends by result (recorded/failed/dropped/cancelled).",
		},
		[]string{"result"},
	)

	codesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "codes_total",
			Help:      "Code lifecycle events by action (created/deleted) and kind.",
		},
		[]string{"action", "kind"},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// -------- Redirect helpers --------

func IncRedirect(outcome, kind string) {
	if kind == "" {
		kind = "unknown"
	}
	redirectsTotal.WithLabelValues(norm(outcome), norm(kind)).Inc()
}

func ObserveResolve(latencyMs int64, success bool) {
	label := "false"
	if success {
		label = "true"
	}
	resolveLatencyMs.WithLabelValues(label).Observe(float64(latencyMs))
}

// -------- Scan helpers --------

func IncScan(result string) {
	scansRecordedTotal.WithLabelValues(norm(result)).Inc()
}

// -------- Code helpers --------

func IncCode(action, kind string) {
	codesTotal.WithLabelValues(norm(action), norm(kind)).Inc()
}
