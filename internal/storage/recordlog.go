package storage

import (
	"bytes"
	"encoding/json"
	"sort"

	"feewatch/internal/fetcher"
)

// Upstream key order as served by mempool.space; unknown keys follow sorted.
var (
	feeKeyOrder     = []string{"fastestFee", "halfHourFee", "hourFee", "economyFee", "minimumFee"}
	mempoolKeyOrder = []string{"count", "vsize", "total_fee", "fee_histogram"}
)

// Record is one line of the JSON-lines log: the raw upstream documents and the
// snapshot derived from them.
type Record struct {
	Fees     fetcher.Payload
	Mempool  fetcher.Payload
	Snapshot Snapshot
}

// Field is one key of a record line.
type Field struct {
	Key   string
	Value any
}

// Fields lists timestamp_utc, then the fee keys, then the mempool keys, then
// the derived columns. A derived column that collides with an upstream key
// keeps the upstream position but carries the derived value.
func (r Record) Fields() []Field {
	var fields []Field
	index := make(map[string]int)
	set := func(key string, value any) {
		if i, ok := index[key]; ok {
			fields[i].Value = value
			return
		}
		index[key] = len(fields)
		fields = append(fields, Field{Key: key, Value: value})
	}

	s := r.Snapshot
	set("timestamp_utc", s.Timestamp)
	for _, key := range orderedKeys(r.Fees, feeKeyOrder) {
		set(key, r.Fees[key])
	}
	for _, key := range orderedKeys(r.Mempool, mempoolKeyOrder) {
		set(key, r.Mempool[key])
	}

	set("timestamp_utc", s.Timestamp)
	set("fastestFee", s.FastestFee)
	set("halfHourFee", s.HalfHourFee)
	set("hourFee", s.HourFee)
	set("economyFee", s.EconomyFee)
	set("minimumFee", s.MinimumFee)
	set("mempool_vsize", s.MempoolVSize)
	set("spread", s.Spread)
	set("ratio", json.Number(FormatRatio(s.Ratio)))
	set("fastest_minus_min", s.FastestMinusMin)
	set("urgency_gap", s.UrgencyGap)
	return fields
}

func orderedKeys(p fetcher.Payload, known []string) []string {
	keys := make([]string, 0, len(p))
	seen := make(map[string]bool, len(known))
	for _, key := range known {
		if _, ok := p[key]; ok {
			keys = append(keys, key)
			seen[key] = true
		}
	}

	rest := make([]string, 0, len(p)-len(keys))
	for key := range p {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// RecordLog is the append-only JSON-lines log.
type RecordLog struct {
	appender
}

// NewRecordLog returns a record log writer for path.
func NewRecordLog(path string, fsync bool) *RecordLog {
	return &RecordLog{appender{path: path, fsync: fsync}}
}

// Path returns the backing file path.
func (l *RecordLog) Path() string { return l.path }

// Append writes rec as a single JSON line with ", " and ": " separators.
// Non-ASCII text and HTML characters are written as-is.
func (l *RecordLog) Append(rec Record) error {
	return l.append(func(int64) ([]byte, error) {
		var buf bytes.Buffer
		if err := encodeFields(&buf, rec.Fields()); err != nil {
			return nil, err
		}
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	})
}

func encodeFields(buf *bytes.Buffer, fields []Field) error {
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteString(", ")
		}
		if err := encodeValue(buf, f.Key); err != nil {
			return err
		}
		buf.WriteString(": ")
		if err := encodeValue(buf, f.Value); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeValue(buf *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		fields := make([]Field, 0, len(keys))
		for _, key := range keys {
			fields = append(fields, Field{Key: key, Value: v[key]})
		}
		return encodeFields(buf, fields)
	case fetcher.Payload:
		return encodeValue(buf, map[string]any(v))
	case []any:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteString(", ")
			}
			if err := encodeValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		var scalar bytes.Buffer
		enc := json.NewEncoder(&scalar)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return err
		}
		buf.Write(bytes.TrimSuffix(scalar.Bytes(), []byte("\n")))
		return nil
	}
}
