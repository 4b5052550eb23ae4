package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"feewatch/internal/storage"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := New(reg)

	rec.RecordSnapshot(storage.Snapshot{
		FastestFee:   30,
		HalfHourFee:  20,
		HourFee:      15,
		EconomyFee:   10,
		MinimumFee:   5,
		MempoolVSize: 123456,
		Spread:       15,
		Ratio:        decimal.RequireFromString("2.5"),
		UrgencyGap:   10,
	}, 0.2)
	rec.RecordFailure("network", 0.1)
	rec.RecordFailure("network", 0.1)
	rec.RecordFailure("http_status", 0.1)
	rec.RecordMirrorError()

	require.Equal(t, 1.0, testutil.ToFloat64(rec.cycles.WithLabelValues("saved")))
	require.Equal(t, 3.0, testutil.ToFloat64(rec.cycles.WithLabelValues("failed")))
	require.Equal(t, 2.0, testutil.ToFloat64(rec.errors.WithLabelValues("network")))
	require.Equal(t, 1.0, testutil.ToFloat64(rec.errors.WithLabelValues("http_status")))
	require.Equal(t, 1.0, testutil.ToFloat64(rec.mirrorErrors))
	require.Equal(t, 30.0, testutil.ToFloat64(rec.fees.WithLabelValues("fastest")))
	require.Equal(t, 123456.0, testutil.ToFloat64(rec.mempoolVSize))
	require.Equal(t, 2.5, testutil.ToFloat64(rec.indicators.WithLabelValues("ratio")))
	require.Equal(t, 1, testutil.CollectAndCount(rec.cycleDuration))
}

func TestNewOnSeparateRegistries(t *testing.T) {
	require.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
