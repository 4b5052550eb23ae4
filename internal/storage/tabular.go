package storage

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

// Tabular is the header-stamped CSV table of snapshots.
type Tabular struct {
	appender
}

// NewTabular returns a table writer for path. When fsync is set every append
// is flushed to stable storage before returning.
func NewTabular(path string, fsync bool) *Tabular {
	return &Tabular{appender{path: path, fsync: fsync}}
}

// Path returns the backing file path.
func (t *Tabular) Path() string { return t.path }

// EnsureHeader creates the file with its header row if it is missing or empty.
func (t *Tabular) EnsureHeader() error {
	return t.append(func(size int64) ([]byte, error) {
		if size > 0 {
			return nil, nil
		}
		return encodeCSV(TabularHeader)
	})
}

// Append writes one snapshot row, preceded by the header when the file is new.
func (t *Tabular) Append(s Snapshot) error {
	return t.append(func(size int64) ([]byte, error) {
		if size > 0 {
			return encodeCSV(s.Record())
		}
		return encodeCSV(TabularHeader, s.Record())
	})
}

// ReadAll parses every data row back into snapshots.
func (t *Tabular) ReadAll() ([]Snapshot, error) {
	return t.read(0)
}

// ReadRecent returns at most limit of the newest rows, newest last.
func (t *Tabular) ReadRecent(limit int) ([]Snapshot, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	return t.read(limit)
}

func (t *Tabular) read(limit int) ([]Snapshot, error) {
	file, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(TabularHeader)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	snapshots := make([]Snapshot, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		snap, err := ParseRecord(record)
		if err != nil {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		snapshots = append(snapshots, snap)
		if limit > 0 && len(snapshots) > limit {
			snapshots = snapshots[1:]
		}
	}
	return snapshots, nil
}

// ParseRecord is the inverse of Snapshot.Record.
func ParseRecord(record []string) (Snapshot, error) {
	if len(record) != len(TabularHeader) {
		return Snapshot{}, fmt.Errorf("expected %d fields, got %d", len(TabularHeader), len(record))
	}

	ints := make([]int64, len(record))
	for i, raw := range record {
		if i == 0 || i == 8 {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Snapshot{}, fmt.Errorf("parse %s: %w", TabularHeader[i], err)
		}
		ints[i] = v
	}

	ratio, err := decimal.NewFromString(record[8])
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse ratio: %w", err)
	}

	return Snapshot{
		Timestamp:       record[0],
		FastestFee:      ints[1],
		HalfHourFee:     ints[2],
		HourFee:         ints[3],
		EconomyFee:      ints[4],
		MinimumFee:      ints[5],
		MempoolVSize:    ints[6],
		Spread:          ints[7],
		Ratio:           ratio,
		FastestMinusMin: ints[9],
		UrgencyGap:      ints[10],
	}, nil
}

func checkHeader(header []string) error {
	for i, name := range TabularHeader {
		if header[i] != name {
			return fmt.Errorf("unexpected header column %d: %q (want %q)", i, header[i], name)
		}
	}
	return nil
}

func encodeCSV(records ...[]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.WriteAll(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
