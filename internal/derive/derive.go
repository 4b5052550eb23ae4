// Package derive turns the two upstream documents into a storage.Snapshot.
package derive

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"feewatch/internal/fetcher"
	"feewatch/internal/storage"
)

// FeeEstimate holds the recommended fee tiers in sat/vB.
type FeeEstimate struct {
	FastestFee  int64
	HalfHourFee int64
	HourFee     int64
	EconomyFee  int64
	MinimumFee  int64
}

// MempoolSnapshot holds the mempool backlog size.
type MempoolSnapshot struct {
	VSize int64
}

// MalformedDataError reports a required field that is missing or not numeric.
type MalformedDataError struct {
	Field string
	Value any
}

func (e *MalformedDataError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("malformed data: field %q missing", e.Field)
	}
	return fmt.Sprintf("malformed data: field %q is not numeric: %v", e.Field, e.Value)
}

// Row extracts the required fields from both payloads and computes the snapshot.
func Row(ts string, fees, mempool fetcher.Payload) (storage.Snapshot, error) {
	fe, err := ParseFeeEstimate(fees)
	if err != nil {
		return storage.Snapshot{}, err
	}
	ms, err := ParseMempoolSnapshot(mempool)
	if err != nil {
		return storage.Snapshot{}, err
	}
	return Compute(ts, fe, ms), nil
}

// ParseFeeEstimate reads the five fee tiers.
func ParseFeeEstimate(p fetcher.Payload) (FeeEstimate, error) {
	var fe FeeEstimate
	fields := []struct {
		key string
		dst *int64
	}{
		{"fastestFee", &fe.FastestFee},
		{"halfHourFee", &fe.HalfHourFee},
		{"hourFee", &fe.HourFee},
		{"economyFee", &fe.EconomyFee},
		{"minimumFee", &fe.MinimumFee},
	}
	for _, f := range fields {
		v, err := intField(p, f.key)
		if err != nil {
			return FeeEstimate{}, err
		}
		*f.dst = v
	}
	return fe, nil
}

// ParseMempoolSnapshot reads vsize.
func ParseMempoolSnapshot(p fetcher.Payload) (MempoolSnapshot, error) {
	vsize, err := intField(p, "vsize")
	if err != nil {
		return MempoolSnapshot{}, err
	}
	return MempoolSnapshot{VSize: vsize}, nil
}

// Compute applies the indicator formulas. Tier ordering is not checked, so
// every difference may come out negative.
func Compute(ts string, fe FeeEstimate, ms MempoolSnapshot) storage.Snapshot {
	return storage.Snapshot{
		Timestamp:       ts,
		FastestFee:      fe.FastestFee,
		HalfHourFee:     fe.HalfHourFee,
		HourFee:         fe.HourFee,
		EconomyFee:      fe.EconomyFee,
		MinimumFee:      fe.MinimumFee,
		MempoolVSize:    ms.VSize,
		Spread:          fe.FastestFee - fe.HourFee,
		Ratio:           Ratio(fe.FastestFee, fe.HourFee),
		FastestMinusMin: fe.FastestFee - fe.MinimumFee,
		UrgencyGap:      fe.FastestFee - fe.HalfHourFee,
	}
}

// Ratio is fastest / max(hour, 1) rounded to storage.RatioPlaces. The floor on
// the denominator keeps a zero hourFee from dividing by zero. The quotient is
// rounded as a float64, half to even on its exact binary value, so ties such as
// 33/32 come out as 1.0312.
func Ratio(fastest, hour int64) decimal.Decimal {
	denominator := max(hour, 1)
	q := float64(fastest) / float64(denominator)
	return decimal.RequireFromString(strconv.FormatFloat(q, 'f', storage.RatioPlaces, 64))
}

// intField coerces p[key] to an integer. Fractions are truncated toward zero.
func intField(p fetcher.Payload, key string) (int64, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return 0, &MalformedDataError{Field: key}
	}

	switch v := raw.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, &MalformedDataError{Field: key, Value: raw}
		}
		return truncate(key, f)
	case float64:
		return truncate(key, v)
	case bool:
		return 0, &MalformedDataError{Field: key, Value: raw}
	case string:
		i, err := cast.ToInt64E(strings.TrimSpace(v))
		if err != nil {
			return 0, &MalformedDataError{Field: key, Value: raw}
		}
		return i, nil
	default:
		i, err := cast.ToInt64E(v)
		if err != nil {
			return 0, &MalformedDataError{Field: key, Value: raw}
		}
		return i, nil
	}
}

// truncate drops the fraction of f, rejecting values an int64 cannot hold.
func truncate(key string, f float64) (int64, error) {
	if math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, &MalformedDataError{Field: key, Value: f}
	}
	return int64(f), nil
}
