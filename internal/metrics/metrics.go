// Package metrics exposes Prometheus collectors for alignment runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/agentstation/placemap/pkg/aligner"
	"github.com/agentstation/placemap/pkg/alignment"
)

// Metrics provides observability for the alignment engine.
type Metrics struct {
	// Registrations by outcome: "added" or "merged"
	Registrations *prometheus.CounterVec

	// Boost annotations of known pairs, by mode
	Annotations *prometheus.CounterVec

	// Alignments carrying each mode once a strategy finishes
	AlignmentsByMode *prometheus.GaugeVec

	// Strategy durations by strategy and outcome
	StrategyDuration *prometheus.HistogramVec

	// Places ingested per namespace
	PlacesIngested *prometheus.GaugeVec

	registry *prometheus.Registry
}

// New creates a Metrics instance registered on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "placemap_alignment_registrations_total",
			Help: "Alignment registrations by outcome",
		}, []string{"outcome"}),

		Annotations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "placemap_alignment_annotations_total",
			Help: "Modes added to registered alignments by boost strategies",
		}, []string{"mode"}),

		AlignmentsByMode: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "placemap_alignments",
			Help: "Registered alignments carrying each mode",
		}, []string{"mode"}),

		StrategyDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "placemap_strategy_duration_seconds",
			Help:    "Duration of alignment strategies",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}, []string{"strategy", "outcome"}),

		PlacesIngested: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "placemap_places_ingested",
			Help: "Places ingested per namespace",
		}, []string{"namespace"}),

		registry: reg,
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Attach installs engine hooks that feed the collectors.
func (m *Metrics) Attach(a *aligner.Aligner) {
	if m == nil {
		return
	}
	a.OnAlignmentAdded(func(*alignment.Alignment) {
		m.Registrations.WithLabelValues("added").Inc()
	})
	a.OnAlignmentMerged(func(_, _ *alignment.Alignment) {
		m.Registrations.WithLabelValues("merged").Inc()
	})
	a.OnAlignmentAnnotated(func(_, _ *alignment.Alignment, mode alignment.Mode) {
		m.Annotations.WithLabelValues(mode.String()).Inc()
	})
	a.OnStrategyFinished(func(name string, elapsed time.Duration, err error) {
		m.ObserveStrategy(name, elapsed, err)
		for _, mode := range alignment.Modes {
			m.AlignmentsByMode.WithLabelValues(mode.String()).Set(float64(len(a.ByMode(mode))))
		}
	})
}

// ObserveStrategy records the duration and outcome of one strategy.
func (m *Metrics) ObserveStrategy(name string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.StrategyDuration.WithLabelValues(name, outcome).Observe(elapsed.Seconds())
}

// SetPlaces records how many places a namespace contributed.
func (m *Metrics) SetPlaces(namespace string, n int) {
	if m != nil {
		m.PlacesIngested.WithLabelValues(namespace).Set(float64(n))
	}
}

// WriteTextfile writes the current values in the node exporter textfile
// format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
