package fetcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/xbrl-fetch/internal/monitoring"
	"github.com/sells-group/xbrl-fetch/internal/resilience"
)

const (
	// DefaultUserAgent is a browser-like agent; EDGAR rejects bare clients.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
	// DefaultAccept matches what a browser sends for HTML and XML pages.
	DefaultAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent string
	Accept    string

	// Retry is applied to every request. For Get, AttemptTimeout bounds each
	// attempt including reading the body. For DownloadToFile it bounds the
	// wait for headers and for each read of the body, so a large file on a
	// slow but live connection is not cut off.
	Retry resilience.RetryConfig

	// Breakers guards each host; nil disables circuit breaking.
	Breakers *resilience.HostBreakers

	// Limiters maps host to an adaptive limiter. Hosts without an entry are
	// not rate limited. Nil uses DefaultAdaptiveLimiters.
	Limiters map[string]*AdaptiveLimiter

	Metrics *monitoring.Metrics
	Client  *http.Client
}

// AdaptiveLimiter wraps a rate.Limiter that speeds up on success (20% per
// success, up to 2x the initial rate) and halves on 429 (down to 1/4).
type AdaptiveLimiter struct {
	mu          sync.Mutex
	limiter     *rate.Limiter
	maxRate     rate.Limit
	minRate     rate.Limit
	currentRate rate.Limit
}

// NewAdaptiveLimiter creates an adaptive limiter starting at initialRate.
func NewAdaptiveLimiter(initialRate rate.Limit, burst int) *AdaptiveLimiter {
	return &AdaptiveLimiter{
		limiter:     rate.NewLimiter(initialRate, burst),
		maxRate:     initialRate * 2,
		minRate:     initialRate / 4,
		currentRate: initialRate,
	}
}

// Wait blocks until the limiter allows a request.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// OnSuccess raises the rate.
func (a *AdaptiveLimiter) OnSuccess() {
	a.setRate(a.Limit() * 1.2)
}

// OnRateLimit halves the rate.
func (a *AdaptiveLimiter) OnRateLimit() {
	a.setRate(a.Limit() * 0.5)
	zap.L().Warn("adaptive rate limit: reducing rate after 429",
		zap.Float64("new_rate", float64(a.Limit())),
	)
}

// Limit returns the current rate.
func (a *AdaptiveLimiter) Limit() rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentRate
}

func (a *AdaptiveLimiter) setRate(r rate.Limit) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r = min(max(r, a.minRate), a.maxRate)
	a.currentRate = r
	a.limiter.SetLimit(r)
}

// DefaultAdaptiveLimiters keeps requests to SEC hosts under the 10 req/s
// fair-access limit.
func DefaultAdaptiveLimiters() map[string]*AdaptiveLimiter {
	return map[string]*AdaptiveLimiter{
		"www.sec.gov":  NewAdaptiveLimiter(10, 10),
		"data.sec.gov": NewAdaptiveLimiter(10, 10),
		"efts.sec.gov": NewAdaptiveLimiter(10, 10),
	}
}

// HTTPFetcher implements Fetcher with retry, rate limiting, circuit
// breaking, and metrics.
type HTTPFetcher struct {
	client   *http.Client
	opts     HTTPOptions
	limiters map[string]*AdaptiveLimiter
}

// NewHTTPFetcher creates an HTTPFetcher, filling unset options with defaults.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Accept == "" {
		opts.Accept = DefaultAccept
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = resilience.DefaultRetryConfig()
	}
	if opts.Retry.ShouldRetry == nil {
		opts.Retry.ShouldRetry = shouldRetry
	}
	limiters := opts.Limiters
	if limiters == nil {
		limiters = DefaultAdaptiveLimiters()
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 8,
				MaxConnsPerHost:     8,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &HTTPFetcher{client: client, opts: opts, limiters: limiters}
}

// shouldRetry retries every failure, including 4xx replies, except a
// rejection by the circuit breaker or a cancelled caller.
func shouldRetry(err error) bool {
	return !errors.Is(err, resilience.ErrCircuitOpen) && !errors.Is(err, context.Canceled)
}

// Get fetches rawURL and returns the body of a 200 reply.
func (f *HTTPFetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	return withRetry(ctx, f, "get", rawURL, false, func(resp *http.Response) ([]byte, error) {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "read body")
		}
		return body, nil
	})
}

// DownloadToFile fetches rawURL into a temp file next to path and renames it
// into place once the body has been fully written.
func (f *HTTPFetcher) DownloadToFile(ctx context.Context, rawURL string, path string) (int64, error) {
	dir := filepath.Dir(path)
	tmp, err := withRetry(ctx, f, "download", rawURL, true, func(resp *http.Response) (tempFile, error) {
		return writeTemp(dir, filepath.Base(path), resp.Body)
	})
	if err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.path, path); err != nil {
		_ = os.Remove(tmp.path)
		return 0, &fsError{eris.Wrapf(err, "rename %s", path)}
	}
	return tmp.size, nil
}

type tempFile struct {
	path string
	size int64
}

func writeTemp(dir, base string, body io.Reader) (tempFile, error) {
	tmp, err := os.CreateTemp(dir, "."+base+".*.part")
	if err != nil {
		return tempFile{}, &fsError{eris.Wrap(err, "create temp file")}
	}
	n, err := io.Copy(tmp, body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return tempFile{}, eris.Wrap(err, "write temp file")
	}
	return tempFile{path: tmp.Name(), size: n}, nil
}

// fsError marks local filesystem failures so they are not retried.
type fsError struct{ err error }

func (e *fsError) Error() string { return e.err.Error() }
func (e *fsError) Unwrap() error { return e.err }

// IsFilesystemError reports whether err came from local disk rather than
// the network.
func IsFilesystemError(err error) bool {
	var fe *fsError
	return errors.As(err, &fe)
}

// errStalled reports a download that produced no headers or body bytes
// within the attempt timeout.
var errStalled = errors.New("no data received within attempt timeout")

// stallReader re-arms the stall timer whenever body bytes arrive.
type stallReader struct {
	io.ReadCloser
	timer   *time.Timer
	timeout time.Duration
}

func (r *stallReader) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	if n > 0 {
		r.timer.Reset(r.timeout)
	}
	return n, err
}

// stallError turns the cancellation raised by the stall timer into a
// retryable errStalled. Other errors pass through.
func stallError(ctx context.Context, err error) error {
	if !errors.Is(context.Cause(ctx), errStalled) || IsFilesystemError(err) {
		return err
	}
	return resilience.NewTransientError(eris.Wrap(errStalled, "http request"), 0)
}

// withRetry runs one GET per attempt through the host's breaker and limiter,
// handing 200 replies to handle. When streaming, the attempt timeout is an
// idle timeout instead of a deadline.
func withRetry[T any](ctx context.Context, f *HTTPFetcher, op, rawURL string, streaming bool, handle func(*http.Response) (T, error)) (T, error) {
	var zero T
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return zero, &RequestError{URL: rawURL, Err: eris.Errorf("invalid url %q", rawURL)}
	}
	host := u.Host

	cfg := f.opts.Retry
	var stall time.Duration
	if streaming {
		stall, cfg.AttemptTimeout = cfg.AttemptTimeout, 0
	}
	log := resilience.RetryLogger(op, rawURL)
	cfg.OnRetry = func(attempt int, err error) {
		f.opts.Metrics.IncRetry(host)
		log(attempt, err)
	}
	userShouldRetry := cfg.ShouldRetry
	cfg.ShouldRetry = func(err error) bool {
		return !IsFilesystemError(err) && userShouldRetry(err)
	}

	var attempts, lastStatus int
	val, err := resilience.DoVal(ctx, cfg, func(actx context.Context) (T, error) {
		attempts++
		var breaker *resilience.CircuitBreaker
		if f.opts.Breakers != nil {
			breaker = f.opts.Breakers.Get(host)
			if err := breaker.Allow(); err != nil {
				return zero, err
			}
		}

		val, status, err := attempt(actx, f, host, rawURL, stall, handle)
		if status != 0 {
			lastStatus = status
		}
		if breaker != nil {
			breaker.Record(err)
		}
		return val, err
	})
	if err != nil {
		zap.L().Error("request failed",
			zap.String("operation", op),
			zap.String("url", rawURL),
			zap.Int("attempts", attempts),
			zap.Int("status", lastStatus),
			zap.Error(err),
		)
		return zero, &RequestError{URL: rawURL, StatusCode: lastStatus, Attempts: attempts, Err: err}
	}
	return val, nil
}

func attempt[T any](ctx context.Context, f *HTTPFetcher, host, rawURL string, stall time.Duration, handle func(*http.Response) (T, error)) (T, int, error) {
	var zero T
	limiter := f.limiters[host]
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return zero, 0, eris.Wrap(err, "rate limiter wait")
		}
	}

	var timer *time.Timer
	if stall > 0 {
		var cancel context.CancelCauseFunc
		ctx, cancel = context.WithCancelCause(ctx)
		timer = time.AfterFunc(stall, func() { cancel(errStalled) })
		defer func() {
			timer.Stop()
			cancel(nil)
		}()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return zero, 0, eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", f.opts.Accept)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		f.opts.Metrics.ObserveRequest(host, 0, time.Since(start))
		return zero, 0, stallError(ctx, eris.Wrap(err, "http request"))
	}
	defer resp.Body.Close() //nolint:errcheck
	if timer != nil {
		timer.Reset(stall)
		resp.Body = &stallReader{ReadCloser: resp.Body, timer: timer, timeout: stall}
	}

	if resp.StatusCode != http.StatusOK {
		f.opts.Metrics.ObserveRequest(host, resp.StatusCode, time.Since(start))
		_, _ = io.Copy(io.Discard, resp.Body)
		var statusErr error = &StatusError{StatusCode: resp.StatusCode}
		if resp.StatusCode == http.StatusTooManyRequests && limiter != nil {
			limiter.OnRateLimit()
		}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			statusErr = resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return zero, resp.StatusCode, statusErr
	}

	val, err := handle(resp)
	f.opts.Metrics.ObserveRequest(host, resp.StatusCode, time.Since(start))
	if err != nil {
		return zero, 0, stallError(ctx, err)
	}
	if limiter != nil {
		limiter.OnSuccess()
	}
	return val, resp.StatusCode, nil
}
