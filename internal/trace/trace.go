// Package trace prints the human-readable progress lines of the collector.
package trace

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"feewatch/internal/clock"
	"feewatch/internal/storage"
)

// Tracer writes one line per event. Lines are for operators, not parsers.
type Tracer struct {
	mu    sync.Mutex
	out   io.Writer
	clock clock.Clock
}

// New returns a Tracer writing to out. A nil clock uses the system clock.
func New(out io.Writer, c clock.Clock) *Tracer {
	if c == nil {
		c = clock.System()
	}
	return &Tracer{out: out, clock: c}
}

// Started announces the collector and its cadence.
func (t *Tracer) Started(name string, interval time.Duration) {
	t.println(fmt.Sprintf("%s started", name))
	t.println(fmt.Sprintf("interval=%s | Ctrl+C to stop", formatInterval(interval)))
}

// CycleStarted marks the beginning of a cycle stamped ts.
func (t *Tracer) CycleStarted(ts string) {
	t.println(ts + " | starting requests...")
}

// Saved reports a persisted snapshot.
func (t *Tracer) Saved(s storage.Snapshot) {
	t.println(fmt.Sprintf("%s | saved | fastest=%d half=%d hour=%d mempool_vsize=%d spread=%d ratio=%s",
		s.Timestamp, s.FastestFee, s.HalfHourFee, s.HourFee, s.MempoolVSize, s.Spread, storage.FormatRatio(s.Ratio)))
}

// Failed reports a failed cycle.
func (t *Tracer) Failed(ts string, err error) {
	msg := strings.Join(strings.Fields(err.Error()), " ")
	t.println(ts + " | ERROR: " + msg)
}

// Sleeping announces the wait before the next cycle.
func (t *Tracer) Sleeping(interval time.Duration, next time.Time) {
	if t == nil {
		return
	}
	t.println(fmt.Sprintf("%s | sleeping %s | next_run_utc=%s", t.clock.NowISO(), formatInterval(interval), clock.FormatISO(next)))
}

// Stopped prints the farewell line.
func (t *Tracer) Stopped() {
	if t == nil {
		return
	}
	t.println(t.clock.NowISO() + " | stop signal received. exiting gracefully.")
}

func (t *Tracer) println(line string) {
	if t == nil || t.out == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = io.WriteString(t.out, line+"\n")
}

// formatInterval renders whole-second intervals as "180s" and anything finer with time.Duration.
func formatInterval(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", int64(d/time.Second))
	}
	return d.String()
}
