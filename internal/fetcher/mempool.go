package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultFeesURL    = "https://mempool.space/api/v1/fees/recommended"
	defaultMempoolURL = "https://mempool.space/api/v1/mempool"
	defaultTimeout    = 15 * time.Second
	defaultUserAgent  = "feewatch/1.0"

	// maxBodyBytes bounds how much of a response is read; the mempool summary
	// carries a fee histogram but stays well under this.
	maxBodyBytes = 4 << 20
	// maxErrorBody bounds the body excerpt carried by HTTPStatusError.
	maxErrorBody = 256
)

// MempoolOptions parameterise the mempool.space fetcher.
type MempoolOptions struct {
	FeesURL    string
	MempoolURL string
	Timeout    time.Duration
	UserAgent  string
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// Mempool fetches fee estimates and mempool summaries from a mempool.space compatible API.
type Mempool struct {
	opts   MempoolOptions
	logger zerolog.Logger
	client *http.Client
}

// NewMempool constructs a mempool fetcher.
func NewMempool(opts MempoolOptions, logger zerolog.Logger) *Mempool {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if strings.TrimSpace(opts.FeesURL) == "" {
		opts.FeesURL = defaultFeesURL
	}
	if strings.TrimSpace(opts.MempoolURL) == "" {
		opts.MempoolURL = defaultMempoolURL
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = defaultUserAgent
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	return &Mempool{
		opts:   opts,
		logger: logger.With().Str("component", "mempool_fetcher").Logger(),
		client: client,
	}
}

// FetchFeeEstimate retrieves the recommended fee tiers.
func (m *Mempool) FetchFeeEstimate(ctx context.Context) (Payload, error) {
	return m.get(ctx, m.opts.FeesURL)
}

// FetchMempoolSnapshot retrieves the mempool backlog summary.
func (m *Mempool) FetchMempoolSnapshot(ctx context.Context) (Payload, error) {
	return m.get(ctx, m.opts.MempoolURL)
}

func (m *Mempool) get(ctx context.Context, endpoint string) (Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", m.opts.UserAgent)

	started := time.Now()
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{URL: endpoint, Err: fmt.Errorf("read body: %w", err)}
	}

	m.logger.Debug().
		Str("url", endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("upstream response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{URL: endpoint, StatusCode: resp.StatusCode, Body: excerpt(body)}
	}

	payload, err := decodeObject(body)
	if err != nil {
		return nil, &DecodeError{URL: endpoint, Err: err}
	}
	return payload, nil
}

func decodeObject(body []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload Payload
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, errors.New("response is not a JSON object")
	}
	return payload, nil
}

func excerpt(body []byte) string {
	text := strings.Join(strings.Fields(string(body)), " ")
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return text
}

var _ Source = (*Mempool)(nil)
