package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestMempoolFetchSuccess(t *testing.T) {
	var gotUA, gotAccept string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/fees":
			_, _ = w.Write([]byte(`{"fastestFee":30,"halfHourFee":20,"hourFee":15,"economyFee":10,"minimumFee":5}`))
		case "/mempool":
			_, _ = w.Write([]byte(`{"count":4200,"vsize":123456,"total_fee":0.5,"fee_histogram":[[1.5,100]]}`))
		default:
			http.NotFound(w, r)
		}
	})

	m := NewMempool(MempoolOptions{
		FeesURL:    srv.URL + "/fees",
		MempoolURL: srv.URL + "/mempool",
		Timeout:    time.Second,
		UserAgent:  "feewatch-test",
	}, noopLogger())

	fees, err := m.FetchFeeEstimate(context.Background())
	require.NoError(t, err)
	require.Equal(t, json.Number("30"), fees["fastestFee"])
	require.Equal(t, json.Number("5"), fees["minimumFee"])
	require.Equal(t, "feewatch-test", gotUA)
	require.Equal(t, "application/json", gotAccept)

	mempool, err := m.FetchMempoolSnapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, json.Number("123456"), mempool["vsize"])
	require.Equal(t, json.Number("0.5"), mempool["total_fee"])
	require.Len(t, mempool["fee_histogram"], 1)
}

func TestMempoolFetchHTTPStatusError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	})

	m := NewMempool(MempoolOptions{FeesURL: srv.URL, MempoolURL: srv.URL, Timeout: time.Second}, noopLogger())

	_, err := m.FetchFeeEstimate(context.Background())
	require.Error(t, err)

	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	require.Equal(t, "upstream exploded", statusErr.Body)
	require.Contains(t, err.Error(), "http status 500")
}

func TestMempoolFetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	m := NewMempool(MempoolOptions{FeesURL: url, MempoolURL: url, Timeout: time.Second}, noopLogger())

	_, err := m.FetchMempoolSnapshot(context.Background())
	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr), "got %T: %v", err, err)
	require.Equal(t, url, netErr.URL)
}

func TestMempoolFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	m := NewMempool(MempoolOptions{FeesURL: srv.URL, MempoolURL: srv.URL, Timeout: 50 * time.Millisecond}, noopLogger())

	_, err := m.FetchFeeEstimate(context.Background())
	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr), "got %T: %v", err, err)
}

func TestMempoolFetchDecodeError(t *testing.T) {
	cases := map[string]string{
		"html":  "<html>maintenance</html>",
		"array": "[1,2,3]",
		"null":  "null",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			m := NewMempool(MempoolOptions{FeesURL: srv.URL, MempoolURL: srv.URL, Timeout: time.Second}, noopLogger())

			_, err := m.FetchFeeEstimate(context.Background())
			var decErr *DecodeError
			require.True(t, errors.As(err, &decErr), "got %T: %v", err, err)
		})
	}
}

func TestNewMempoolDefaults(t *testing.T) {
	m := NewMempool(MempoolOptions{}, noopLogger())
	require.Equal(t, defaultFeesURL, m.opts.FeesURL)
	require.Equal(t, defaultMempoolURL, m.opts.MempoolURL)
	require.Equal(t, defaultTimeout, m.client.Timeout)
	require.Equal(t, defaultUserAgent, m.opts.UserAgent)
}
