package rank

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricComparisonsRecordedTotal = "rank_comparisons_recorded_total"
	MetricInferredInsertionsTotal  = "rank_inferred_insertions_total"
	MetricResetsTotal              = "rank_resets_total"
	MetricNextPairDuration         = "rank_next_pair_duration_seconds"
	MetricUnknownPairs             = "rank_unknown_pairs"
)

// Metrics contains Prometheus metrics for the ranking engine. All operations
// are thread-safe.
type Metrics struct {
	comparisonsRecorded prometheus.Counter
	inferredInsertions  prometheus.Counter
	resets              prometheus.Counter
	nextPairDuration    prometheus.Histogram
	unknownPairs        *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them.
func NewMetrics() *Metrics {
	return &Metrics{
		comparisonsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricComparisonsRecordedTotal,
			Help: "Total number of pairwise comparisons recorded",
		}),
		inferredInsertions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricInferredInsertionsTotal,
			Help: "Total number of listings placed without a user comparison (transitive inference)",
		}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricResetsTotal,
			Help: "Total number of per-user comparison resets",
		}),
		nextPairDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricNextPairDuration,
			Help:    "Histogram of next-pair selection duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}),
		unknownPairs: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: MetricUnknownPairs,
				Help: "Ordered listing pairs still classified unknown, per group",
			},
			[]string{"group_id"},
		),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.comparisonsRecorded,
		m.inferredInsertions,
		m.resets,
		m.nextPairDuration,
		m.unknownPairs,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ComparisonRecorded increments the recorded-comparisons counter.
// Safe to call on a nil receiver.
func (m *Metrics) ComparisonRecorded() {
	if m == nil {
		return
	}
	m.comparisonsRecorded.Inc()
}

// InferredInsertion increments the inference-only insertion counter.
func (m *Metrics) InferredInsertion() {
	if m == nil {
		return
	}
	m.inferredInsertions.Inc()
}

// Reset increments the reset counter.
func (m *Metrics) Reset() {
	if m == nil {
		return
	}
	m.resets.Inc()
}

// ObserveNextPair records the duration of one next-pair selection.
func (m *Metrics) ObserveNextPair(d time.Duration) {
	if m == nil {
		return
	}
	m.nextPairDuration.Observe(d.Seconds())
}

// SetUnknownPairs records how many ordered pairs remain unknown for a group.
func (m *Metrics) SetUnknownPairs(groupID string, count int) {
	if m == nil {
		return
	}
	m.unknownPairs.WithLabelValues(groupID).Set(float64(count))
}
