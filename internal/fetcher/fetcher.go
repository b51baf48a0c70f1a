package fetcher

import (
	"context"
	"fmt"
)

// Fetcher is the retrying HTTP client every EDGAR component calls through.
type Fetcher interface {
	// Get fetches the URL and returns the full response body of a 200 reply.
	Get(ctx context.Context, url string) ([]byte, error)

	// DownloadToFile fetches the URL and atomically writes the body to path.
	// On failure no file is left at path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// RequestError describes a request that failed after all attempts.
// StatusCode is the last HTTP status seen, zero if no response arrived.
type RequestError struct {
	URL        string
	StatusCode int
	Attempts   int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("GET %s: status %d after %d attempt(s): %v", e.URL, e.StatusCode, e.Attempts, e.Err)
	}
	return fmt.Sprintf("GET %s: failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// StatusError is a non-200 reply to a single attempt.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}
