package fetcher

import (
	"fmt"
)

// NetworkError reports a request that never produced a response: dial
// failures, TLS errors and timeouts.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: GET %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPStatusError reports a response outside the 2xx range.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("http status %d: GET %s: %s", e.StatusCode, e.URL, e.Body)
	}
	return fmt.Sprintf("http status %d: GET %s", e.StatusCode, e.URL)
}

// DecodeError reports a 2xx response whose body is not a JSON object.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response: GET %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
