package registry

import (
	"time"

	"capstan/internal/capability"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records registration pass statistics. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	passes      *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	definitions *prometheus.GaugeVec
	errors      *prometheus.GaugeVec
}

// NewMetrics creates the registry collectors and registers them with reg.
// A nil reg creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		passes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "capstan_registration_passes_total",
			Help: "Number of registration passes run, by capability kind",
		}, []string{"kind"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "capstan_registration_pass_duration_seconds",
			Help:    "Duration of registration passes, by capability kind",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"kind"}),
		definitions: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "capstan_definitions",
			Help: "Number of definitions produced by the last registration pass",
		}, []string{"kind"}),
		errors: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "capstan_registration_errors",
			Help: "Number of errors recorded by the last registration pass",
		}, []string{"kind"}),
	}
}

func (m *Metrics) observePass(kind capability.Kind, took time.Duration, definitions, errors int) {
	if m == nil {
		return
	}
	label := string(kind)
	m.passes.WithLabelValues(label).Inc()
	m.duration.WithLabelValues(label).Observe(took.Seconds())
	m.definitions.WithLabelValues(label).Set(float64(definitions))
	m.errors.WithLabelValues(label).Set(float64(errors))
}

func (m *Metrics) forget(kind capability.Kind) {
	if m == nil {
		return
	}
	m.definitions.DeleteLabelValues(string(kind))
	m.errors.DeleteLabelValues(string(kind))
}
