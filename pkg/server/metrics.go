package server

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// serverMetrics holds the Prometheus instruments for the live host.
type serverMetrics struct {
	activeSessions prometheus.Gauge
	sessionsTotal  prometheus.Counter
	framesTotal    *prometheus.CounterVec
	frameErrors    *prometheus.CounterVec
	handlerPanics  prometheus.Counter
	flushCycles    prometheus.Counter
	patchesSent    prometheus.Counter
	readErrors     prometheus.Counter
	writeErrors    prometheus.Counter
}

var (
	metricsOnce sync.Once
	metrics     *serverMetrics
)

// getMetrics lazily registers the instruments on the default registerer.
func getMetrics() *serverMetrics {
	metricsOnce.Do(func() {
		metrics = &serverMetrics{
			activeSessions: promauto.NewGauge(prometheus.GaugeOpts{
				Namespace: "ripple",
				Subsystem: "server",
				Name:      "active_sessions",
				Help:      "Number of live sessions currently connected.",
			}),
			sessionsTotal: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "ripple",
				Subsystem: "server",
				Name:      "sessions_total",
				Help:      "Total sessions created since start.",
			}),
			framesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "ripple",
				Subsystem: "server",
				Name:      "frames_total",
				Help:      "Inbound frames processed, by frame type.",
			}, []string{"type"}),
			frameErrors: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "ripple",
				Subsystem: "server",
				Name:      "frame_errors_total",
				Help:      "Inbound frames rejected, by reason.",
			}, []string{"reason"}),
			handlerPanics: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "ripple",
				Subsystem: "server",
				Name:      "handler_panics_total",
				Help:      "Event handler panics recovered by the session loop.",
			}),
			flushCycles: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "ripple",
				Subsystem: "server",
				Name:      "flush_cycles_total",
				Help:      "Scheduler flush cycles run while settling frames.",
			}),
			patchesSent: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "ripple",
				Subsystem: "server",
				Name:      "patches_sent_total",
				Help:      "Binding patch frames sent to clients.",
			}),
			readErrors: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "ripple",
				Subsystem: "server",
				Name:      "read_errors_total",
				Help:      "Unexpected WebSocket read failures.",
			}),
			writeErrors: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "ripple",
				Subsystem: "server",
				Name:      "write_errors_total",
				Help:      "WebSocket write failures.",
			}),
		}
	})
	return metrics
}
