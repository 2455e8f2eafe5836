package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus collectors for the therapy pipeline
type Metrics struct {
	// Request outcomes, labelled "success" or by error kind
	Requests        *prometheus.CounterVec
	RequestDuration prometheus.Histogram

	// Per-stage latency
	StageDuration *prometheus.HistogramVec

	// Detection output
	EventsDetected  *prometheus.CounterVec
	DegradedResults prometheus.Counter

	// Normalization
	TruncatedUploads prometheus.Counter
	WaveformDuration prometheus.Histogram
}

// New creates all collectors and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "therapy_requests_total",
			Help: "Total number of processed therapy requests by outcome",
		}, []string{"outcome"}),
		RequestDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "therapy_request_duration_seconds",
			Help:    "End-to-end duration of therapy requests",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "therapy_stage_duration_seconds",
			Help:    "Time spent in each pipeline stage",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		}, []string{"stage"}),
		EventsDetected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "therapy_events_detected_total",
			Help: "Dysfluency events returned by the detector, by label",
		}, []string{"label"}),
		DegradedResults: f.NewCounter(prometheus.CounterOpts{
			Name: "therapy_detection_degraded_total",
			Help: "Requests answered by the unconfigured detector",
		}),
		TruncatedUploads: f.NewCounter(prometheus.CounterOpts{
			Name: "therapy_truncated_uploads_total",
			Help: "Uploads cut down to the maximum duration",
		}),
		WaveformDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "therapy_waveform_duration_seconds",
			Help:    "Duration of normalized waveforms",
			Buckets: prometheus.LinearBuckets(1, 1, 10), // 1s to 10s
		}),
	}
}

// ObserveStage records how long stage took
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveRequest records the outcome and total duration of one request
func (m *Metrics) ObserveRequest(outcome string, d time.Duration) {
	m.Requests.WithLabelValues(outcome).Inc()
	m.RequestDuration.Observe(d.Seconds())
}
