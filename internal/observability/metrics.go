package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pufflux"

// Metrics holds the Prometheus collectors for the evaluation and render loops.
type Metrics struct {
	// Weather fetches.
	FetchRequests *prometheus.CounterVec   // labels: endpoint={geocode,points,alerts}, outcome={success,transport,decode}
	FetchDuration *prometheus.HistogramVec // labels: endpoint
	BytesScanned  prometheus.Counter

	// Evaluation.
	EvaluationCycles *prometheus.CounterVec // labels: result={evaluated,disconnected,geocode_failed,grid_failed,fetch_failed}
	Significance     prometheus.Gauge
	Category         *prometheus.GaugeVec // labels: category; 1 for the active one

	// Rendering.
	FramesRendered prometheus.Counter
	FrameErrors    prometheus.Counter
	FrameDuration  prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Weather and geocoding requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Request duration including the streamed body.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),
		BytesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scanned_bytes_total",
			Help:      "Alert feed bytes passed through the hazard scanner.",
		}),
		EvaluationCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluation_cycles_total",
			Help:      "Evaluation attempts by result.",
		}, []string{"result"}),
		Significance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hazard_significance",
			Help:      "Rank of the active hazard significance, 0 when none.",
		}),
		Category: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hazard_category",
			Help:      "1 for the category currently displayed.",
		}, []string{"category"}),
		FramesRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_rendered_total",
			Help:      "Frames written to the LED driver.",
		}),
		FrameErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frame_errors_total",
			Help:      "Driver write failures.",
		}),
		FrameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_duration_seconds",
			Help:      "Time spent stepping and writing one frame.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.02, 0.05},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FetchRequests,
		m.FetchDuration,
		m.BytesScanned,
		m.EvaluationCycles,
		m.Significance,
		m.Category,
		m.FramesRendered,
		m.FrameErrors,
		m.FrameDuration,
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsWith registers the metrics on reg instead of the default registry.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
