package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"feewatch/internal/storage"
)

// Recorder exposes collector progress and the latest indicators to Prometheus.
type Recorder struct {
	cycles        *prometheus.CounterVec
	errors        *prometheus.CounterVec
	mirrorErrors  prometheus.Counter
	fees          *prometheus.GaugeVec
	mempoolVSize  prometheus.Gauge
	indicators    *prometheus.GaugeVec
	cycleDuration prometheus.Histogram
}

// New registers the collector metrics on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		cycles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feewatch_cycles_total",
				Help: "Completed collection cycles by outcome",
			},
			[]string{"outcome"},
		),
		errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feewatch_cycle_errors_total",
				Help: "Failed cycles by error kind",
			},
			[]string{"kind"},
		),
		mirrorErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "feewatch_mirror_errors_total",
				Help: "Snapshots that could not be copied to the database mirror",
			},
		),
		fees: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "feewatch_fee_rate_sat_vbyte",
				Help: "Latest recommended fee rate per tier",
			},
			[]string{"tier"},
		),
		mempoolVSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "feewatch_mempool_vsize_bytes",
				Help: "Latest mempool virtual size",
			},
		),
		indicators: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "feewatch_indicator",
				Help: "Latest derived indicator values",
			},
			[]string{"name"},
		),
		cycleDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "feewatch_cycle_duration_seconds",
				Help:    "Duration of collection cycles",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// RecordSnapshot records a successful cycle and its values.
func (r *Recorder) RecordSnapshot(s storage.Snapshot, seconds float64) {
	r.cycles.WithLabelValues("saved").Inc()
	r.cycleDuration.Observe(seconds)

	r.fees.WithLabelValues("fastest").Set(float64(s.FastestFee))
	r.fees.WithLabelValues("half_hour").Set(float64(s.HalfHourFee))
	r.fees.WithLabelValues("hour").Set(float64(s.HourFee))
	r.fees.WithLabelValues("economy").Set(float64(s.EconomyFee))
	r.fees.WithLabelValues("minimum").Set(float64(s.MinimumFee))
	r.mempoolVSize.Set(float64(s.MempoolVSize))

	r.indicators.WithLabelValues("spread").Set(float64(s.Spread))
	r.indicators.WithLabelValues("ratio").Set(s.Ratio.InexactFloat64())
	r.indicators.WithLabelValues("fastest_minus_min").Set(float64(s.FastestMinusMin))
	r.indicators.WithLabelValues("urgency_gap").Set(float64(s.UrgencyGap))
}

// RecordFailure records a failed cycle of the given kind.
func (r *Recorder) RecordFailure(kind string, seconds float64) {
	r.cycles.WithLabelValues("failed").Inc()
	r.errors.WithLabelValues(kind).Inc()
	r.cycleDuration.Observe(seconds)
}

// RecordMirrorError counts a failed mirror insert.
func (r *Recorder) RecordMirrorError() {
	r.mirrorErrors.Inc()
}
