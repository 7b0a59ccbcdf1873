// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PreviewRendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_renders_total",
			Help: "Total number of preview images rendered",
		},
		[]string{"variant"},
	)

	PreviewRenderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_render_failures_total",
			Help: "Total number of preview requests answered with an error",
		},
		[]string{"error_code"},
	)

	PreviewStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "preview_render_duration_seconds",
			Help:    "Duration of each preview pipeline stage in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"stage"},
	)

	UpstreamDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_upstream_degraded_total",
			Help: "Best-effort fetches that fell back to a substitute",
		},
		[]string{"source"},
	)

	FontFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_font_fetches_total",
			Help: "Network fetches of font sources",
		},
		[]string{"family", "weight"},
	)

	RendersInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "preview_renders_in_flight",
			Help: "Number of preview renders currently in progress",
		},
	)
)
