// Package metrics exposes the process's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "storemap_sessions_active",
		Help: "Map sessions currently connected",
	})
	SessionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storemap_sessions_total",
		Help: "Map sessions started",
	})
	SessionEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storemap_session_events_total",
		Help: "Client events handled by map sessions",
	}, []string{"type"})
	EngineErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storemap_engine_errors_total",
		Help: "Errors reported by browser map engines",
	})
	FilterChangesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storemap_filter_changes_total",
		Help: "Filter state changes that produced a new view",
	})
	CameraCommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storemap_camera_commands_total",
		Help: "Camera commands issued by framing target",
	}, []string{"target"})
	DeriveDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storemap_derive_duration_ms",
		Help:    "Time to derive a view in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 50, 100},
	})
	ViewCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storemap_view_cache_total",
		Help: "View cache lookups by result",
	}, []string{"result"})
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storemap_http_requests_total",
		Help: "HTTP API requests by route and status",
	}, []string{"route", "status"})
)

func init() {
	prometheus.MustRegister(ActiveSessions)
	prometheus.MustRegister(SessionsTotal)
	prometheus.MustRegister(SessionEventsTotal)
	prometheus.MustRegister(EngineErrorsTotal)
	prometheus.MustRegister(FilterChangesTotal)
	prometheus.MustRegister(CameraCommandsTotal)
	prometheus.MustRegister(DeriveDurationMs)
	prometheus.MustRegister(ViewCacheTotal)
	prometheus.MustRegister(HTTPRequestsTotal)
}

// Handler serves the registered metrics.
func Handler() http.Handler { return promhttp.Handler() }
