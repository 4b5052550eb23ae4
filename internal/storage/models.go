package storage

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// RatioPlaces is the number of decimal places kept for Snapshot.Ratio.
const RatioPlaces = 4

// TabularHeader lists the CSV columns in write order.
var TabularHeader = []string{
	"timestamp_utc",
	"fastestFee",
	"halfHourFee",
	"hourFee",
	"economyFee",
	"minimumFee",
	"mempool_vsize",
	"spread",
	"ratio",
	"fastest_minus_min",
	"urgency_gap",
}

// Snapshot is one successful poll: the upstream fee tiers and mempool size plus
// the indicators derived from them. It is written once and never updated.
type Snapshot struct {
	Timestamp       string
	FastestFee      int64
	HalfHourFee     int64
	HourFee         int64
	EconomyFee      int64
	MinimumFee      int64
	MempoolVSize    int64
	Spread          int64
	Ratio           decimal.Decimal
	FastestMinusMin int64
	UrgencyGap      int64
}

// ErrorRecord is one failed cycle.
type ErrorRecord struct {
	Timestamp string
	Message   string
}

// Record renders the snapshot in TabularHeader order.
func (s Snapshot) Record() []string {
	return []string{
		s.Timestamp,
		itoa(s.FastestFee),
		itoa(s.HalfHourFee),
		itoa(s.HourFee),
		itoa(s.EconomyFee),
		itoa(s.MinimumFee),
		itoa(s.MempoolVSize),
		itoa(s.Spread),
		FormatRatio(s.Ratio),
		itoa(s.FastestMinusMin),
		itoa(s.UrgencyGap),
	}
}

// FormatRatio prints a ratio rounded half to even to RatioPlaces without
// trailing zeros, keeping one fractional digit for whole numbers
// (2 -> "2.0", 2.5 -> "2.5").
func FormatRatio(r decimal.Decimal) string {
	r = r.RoundBank(RatioPlaces)
	if r.Equal(r.Truncate(0)) {
		return r.StringFixed(1)
	}
	return r.String()
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
