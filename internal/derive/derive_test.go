package derive

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"feewatch/internal/fetcher"
	"feewatch/internal/storage"
)

const ts = "2024-01-01T00:00:00+00:00"

func feesPayload(fastest, half, hour, economy, minimum string) fetcher.Payload {
	return fetcher.Payload{
		"fastestFee":  json.Number(fastest),
		"halfHourFee": json.Number(half),
		"hourFee":     json.Number(hour),
		"economyFee":  json.Number(economy),
		"minimumFee":  json.Number(minimum),
	}
}

func TestRowReferenceValues(t *testing.T) {
	fees := feesPayload("30", "20", "15", "10", "5")
	mempool := fetcher.Payload{"vsize": json.Number("123456"), "count": json.Number("10")}

	row, err := Row(ts, fees, mempool)
	require.NoError(t, err)

	require.Equal(t, ts, row.Timestamp)
	require.Equal(t, int64(30), row.FastestFee)
	require.Equal(t, int64(20), row.HalfHourFee)
	require.Equal(t, int64(15), row.HourFee)
	require.Equal(t, int64(10), row.EconomyFee)
	require.Equal(t, int64(5), row.MinimumFee)
	require.Equal(t, int64(123456), row.MempoolVSize)
	require.Equal(t, int64(15), row.Spread)
	require.Equal(t, int64(25), row.FastestMinusMin)
	require.Equal(t, int64(10), row.UrgencyGap)
	require.Equal(t, "2.0", storage.FormatRatio(row.Ratio))
}

func TestRatio(t *testing.T) {
	cases := []struct {
		name          string
		fastest, hour int64
		want          string
	}{
		{"zero hour floors denominator", 50, 0, "50"},
		{"negative hour floors denominator", 7, -3, "7"},
		{"exact fraction", 25, 10, "2.5"},
		{"rounded to four places", 4, 3, "1.3333"},
		{"rounds half up", 2, 3, "0.6667"},
		{"zero fastest", 0, 12, "0"},
		{"exact tie rounds to even", 33, 32, "1.0312"},
		{"small tie rounds to even", 1, 32, "0.0312"},
		{"float quotient above tie", 1, 160, "0.0063"},
		{"tie on a larger quotient", 5, 32, "0.1562"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Ratio(tc.fastest, tc.hour)
			require.True(t, got.Equal(decimal.RequireFromString(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}

func TestComputeAllowsNegativeDifferences(t *testing.T) {
	row := Compute(ts, FeeEstimate{FastestFee: 2, HalfHourFee: 5, HourFee: 9, EconomyFee: 1, MinimumFee: 3}, MempoolSnapshot{VSize: 0})

	require.Equal(t, int64(-7), row.Spread)
	require.Equal(t, int64(-1), row.FastestMinusMin)
	require.Equal(t, int64(-3), row.UrgencyGap)
}

func TestParseCoercion(t *testing.T) {
	fees := fetcher.Payload{
		"fastestFee":  json.Number("12.9"),
		"halfHourFee": " 8 ",
		"hourFee":     float64(6.2),
		"economyFee":  4,
		"minimumFee":  json.Number("1e0"),
	}

	fe, err := ParseFeeEstimate(fees)
	require.NoError(t, err)
	require.Equal(t, FeeEstimate{FastestFee: 12, HalfHourFee: 8, HourFee: 6, EconomyFee: 4, MinimumFee: 1}, fe)
}

func TestParseMalformed(t *testing.T) {
	cases := []struct {
		name    string
		fees    fetcher.Payload
		mempool fetcher.Payload
		field   string
	}{
		{
			name:    "missing fee field",
			fees:    fetcher.Payload{"fastestFee": json.Number("1")},
			mempool: fetcher.Payload{"vsize": json.Number("1")},
			field:   "halfHourFee",
		},
		{
			name:    "null fee field",
			fees:    fetcher.Payload{"fastestFee": nil},
			mempool: fetcher.Payload{"vsize": json.Number("1")},
			field:   "fastestFee",
		},
		{
			name:    "non numeric string",
			fees:    feesPayload("1", "1", "1", "1", "1"),
			mempool: fetcher.Payload{"vsize": "lots"},
			field:   "vsize",
		},
		{
			name:    "boolean",
			fees:    fetcher.Payload{"fastestFee": true},
			mempool: fetcher.Payload{"vsize": json.Number("1")},
			field:   "fastestFee",
		},
		{
			name:    "nested object",
			fees:    feesPayload("1", "1", "1", "1", "1"),
			mempool: fetcher.Payload{"vsize": map[string]any{"v": 1}},
			field:   "vsize",
		},
		{
			name:    "exponent beyond int64",
			fees:    feesPayload("1", "1", "1", "1", "1"),
			mempool: fetcher.Payload{"vsize": json.Number("1e30")},
			field:   "vsize",
		},
		{
			name:    "integer beyond int64",
			fees:    feesPayload("99999999999999999999", "1", "1", "1", "1"),
			mempool: fetcher.Payload{"vsize": json.Number("1")},
			field:   "fastestFee",
		},
		{
			name:    "float beyond int64",
			fees:    feesPayload("1", "1", "1", "1", "1"),
			mempool: fetcher.Payload{"vsize": float64(-1e19)},
			field:   "vsize",
		},
		{
			name:    "missing vsize",
			fees:    feesPayload("1", "1", "1", "1", "1"),
			mempool: fetcher.Payload{"count": json.Number("3")},
			field:   "vsize",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Row(ts, tc.fees, tc.mempool)
			var malformed *MalformedDataError
			require.True(t, errors.As(err, &malformed), "got %T: %v", err, err)
			require.Equal(t, tc.field, malformed.Field)
		})
	}
}

func TestMalformedDataErrorMessage(t *testing.T) {
	require.Equal(t, `malformed data: field "vsize" missing`, (&MalformedDataError{Field: "vsize"}).Error())
	require.Equal(t, `malformed data: field "vsize" is not numeric: lots`, (&MalformedDataError{Field: "vsize", Value: "lots"}).Error())
}
