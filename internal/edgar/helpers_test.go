package edgar

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sells-group/xbrl-fetch/internal/fetcher"
	"github.com/sells-group/xbrl-fetch/internal/resilience"
)

// newTestClient serves handler from an httptest server and returns a client
// pointed at it with millisecond backoff.
func newTestClient(t *testing.T, handler http.Handler, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent: "test-agent",
		Retry: resilience.RetryConfig{
			MaxAttempts:    5,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     10 * time.Millisecond,
			Multiplier:     2,
			AttemptTimeout: 2 * time.Second,
		},
	})
	return NewClient(f, append([]Option{WithBaseURL(srv.URL)}, opts...)...), srv
}
