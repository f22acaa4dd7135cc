package telemetry

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "srtvoice"

// Recorder centralises telemetry (logs, metrics) for the adapter. Metrics live
// in a private registry so several recorders can coexist in one process.
type Recorder struct {
	logger   *slog.Logger
	registry *prometheus.Registry

	renders          *prometheus.CounterVec
	renderSeconds    prometheus.Histogram
	segments         *prometheus.CounterVec
	stretchRatio     prometheus.Histogram
	synthesisSeconds prometheus.Histogram
}

// NewRecorder constructs a telemetry recorder using the provided slog.Logger.
func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{
		logger:   logger,
		registry: prometheus.NewRegistry(),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Rendered subtitle tracks by outcome stage (ok on success).",
		}, []string{"stage"}),
		renderSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Wall time spent rendering one subtitle track.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		segments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_total",
			Help:      "Subtitle entries placed on the timeline by fit action.",
		}, []string{"action"}),
		stretchRatio: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stretch_ratio",
			Help:      "Raw to slot length ratio of compressed segments.",
			Buckets:   []float64{1.05, 1.1, 1.25, 1.5, 2, 3, 5, 10},
		}),
		synthesisSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "synthesis_duration_seconds",
			Help:      "Latency of single segment synthesis calls.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	r.registry.MustRegister(r.renders, r.renderSeconds, r.segments, r.stretchRatio, r.synthesisSeconds)
	return r
}

// Logger returns the underlying slog.Logger for direct use.
func (r *Recorder) Logger() *slog.Logger {
	return r.logger
}

// Registry exposes the metrics for an HTTP handler.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveSynthesis records the latency of one synthesis call.
func (r *Recorder) ObserveSynthesis(d time.Duration) {
	r.synthesisSeconds.Observe(d.Seconds())
}

// ObserveSegment records how one entry was fitted.
func (r *Recorder) ObserveSegment(action string, ratio float64) {
	r.segments.WithLabelValues(action).Inc()
	if action == "stretch" {
		r.stretchRatio.Observe(ratio)
	}
}

// ObserveRender records a finished render. stage is empty on success.
func (r *Recorder) ObserveRender(d time.Duration, stage string) {
	if stage == "" {
		stage = "ok"
	}
	r.renders.WithLabelValues(stage).Inc()
	r.renderSeconds.Observe(d.Seconds())
}
