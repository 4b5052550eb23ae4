package trace

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"feewatch/internal/clock"
	"feewatch/internal/storage"
)

func TestTracerLines(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 5, 0, time.UTC)
	var buf bytes.Buffer
	tr := New(&buf, clock.Fixed(now))

	tr.Started("feewatch", 180*time.Second)
	tr.CycleStarted("2024-01-01T00:00:00+00:00")
	tr.Saved(storage.Snapshot{
		Timestamp:    "2024-01-01T00:00:00+00:00",
		FastestFee:   30,
		HalfHourFee:  20,
		HourFee:      15,
		MempoolVSize: 123456,
		Spread:       15,
		Ratio:        decimal.NewFromInt(2),
	})
	tr.Failed("2024-01-01T00:03:00+00:00", errors.New("http status 500:\nboom"))
	tr.Sleeping(180*time.Second, now.Add(180*time.Second))
	tr.Stopped()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Equal(t, []string{
		"feewatch started",
		"interval=180s | Ctrl+C to stop",
		"2024-01-01T00:00:00+00:00 | starting requests...",
		"2024-01-01T00:00:00+00:00 | saved | fastest=30 half=20 hour=15 mempool_vsize=123456 spread=15 ratio=2.0",
		"2024-01-01T00:03:00+00:00 | ERROR: http status 500: boom",
		"2024-01-01T00:00:05+00:00 | sleeping 180s | next_run_utc=2024-01-01T00:03:05+00:00",
		"2024-01-01T00:00:05+00:00 | stop signal received. exiting gracefully.",
	}, lines)
}

func TestTracerNilSafe(t *testing.T) {
	var tr *Tracer
	require.NotPanics(t, func() { tr.Stopped() })
	require.Equal(t, "1.5s", formatInterval(1500*time.Millisecond))
}
