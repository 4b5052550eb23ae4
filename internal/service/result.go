package service

import (
	"errors"

	"feewatch/internal/derive"
	"feewatch/internal/fetcher"
	"feewatch/internal/storage"
)

// ErrorKind classifies why a cycle failed.
type ErrorKind string

const (
	KindNone        ErrorKind = ""
	KindNetwork     ErrorKind = "network"
	KindHTTPStatus  ErrorKind = "http_status"
	KindMalformed   ErrorKind = "malformed"
	KindPersistence ErrorKind = "persistence"
	KindUnknown     ErrorKind = "unknown"
)

// CycleResult is the outcome of one fetch-derive-persist attempt. Exactly one
// of Snapshot and Err is set.
type CycleResult struct {
	Timestamp string
	Snapshot  *storage.Snapshot
	Err       error
	Kind      ErrorKind
}

// OK reports whether the cycle persisted a snapshot.
func (r CycleResult) OK() bool { return r.Err == nil && r.Snapshot != nil }

func succeeded(ts string, snap storage.Snapshot) CycleResult {
	return CycleResult{Timestamp: ts, Snapshot: &snap}
}

func failed(ts string, err error) CycleResult {
	return CycleResult{Timestamp: ts, Err: err, Kind: Classify(err)}
}

// Classify maps an error from any cycle stage onto an ErrorKind.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var (
		netErr       *fetcher.NetworkError
		statusErr    *fetcher.HTTPStatusError
		decodeErr    *fetcher.DecodeError
		malformedErr *derive.MalformedDataError
		writeErr     *storage.WriteError
	)
	switch {
	case errors.As(err, &netErr):
		return KindNetwork
	case errors.As(err, &statusErr):
		return KindHTTPStatus
	case errors.As(err, &decodeErr), errors.As(err, &malformedErr):
		return KindMalformed
	case errors.As(err, &writeErr):
		return KindPersistence
	default:
		return KindUnknown
	}
}
