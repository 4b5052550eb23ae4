package fetcher

import (
	"context"
)

// Payload is a decoded JSON object as returned by the upstream API. Numbers
// are kept as json.Number so values can be written back out verbatim.
type Payload map[string]any

// Source retrieves the two upstream documents a cycle needs.
type Source interface {
	FetchFeeEstimate(ctx context.Context) (Payload, error)
	FetchMempoolSnapshot(ctx context.Context) (Payload, error)
}
