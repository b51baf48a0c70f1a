package main

import (
	"context"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/xbrl-fetch/internal/config"
	"github.com/sells-group/xbrl-fetch/internal/edgar"
	"github.com/sells-group/xbrl-fetch/internal/fetcher"
	"github.com/sells-group/xbrl-fetch/internal/monitoring"
	"github.com/sells-group/xbrl-fetch/internal/pipeline"
	"github.com/sells-group/xbrl-fetch/internal/resilience"
	"github.com/sells-group/xbrl-fetch/internal/storage"
)

// secHosts are rate limited even when edgar.base_url points elsewhere, since
// index pages link to them directly.
var secHosts = []string{"www.sec.gov", "data.sec.gov", "efts.sec.gov"}

// pipelineEnv holds the clients built from config for the EDGAR commands.
type pipelineEnv struct {
	Registry   *prometheus.Registry
	Metrics    *monitoring.Metrics
	Fetcher    *fetcher.HTTPFetcher
	Client     *edgar.Client
	Downloader *edgar.Downloader
	Pipeline   *pipeline.Pipeline
}

// initPipeline validates cfg for mode and builds the fetcher, EDGAR client,
// downloader, and batch pipeline. The object-store mirror is only attached
// for the download and batch modes.
func initPipeline(ctx context.Context, c *config.Config, mode string) (*pipelineEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	m, err := monitoring.New(reg)
	if err != nil {
		return nil, eris.Wrap(err, "init metrics")
	}

	f := newFetcher(c, m)
	client := edgar.NewClient(f,
		edgar.WithBaseURL(c.EDGAR.BaseURL),
		edgar.WithCount(c.EDGAR.Count),
		edgar.WithYearMatch(edgar.YearMatch(c.EDGAR.YearMatch)),
	)

	dlOpts := []edgar.DownloaderOption{
		edgar.WithFileConcurrency(c.Download.MaxConcurrentFiles),
		edgar.WithMetrics(m),
	}
	if c.Storage.Enabled() && mode != "resolve" {
		sink, err := storage.NewMinioSink(c.Storage)
		if err != nil {
			return nil, err
		}
		if err := sink.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		dlOpts = append(dlOpts, edgar.WithMirror(sink, c.Download.Dir))
		zap.L().Info("mirroring downloads",
			zap.String("endpoint", c.Storage.Endpoint),
			zap.String("bucket", c.Storage.Bucket),
		)
	}
	downloader := edgar.NewDownloader(client, dlOpts...)

	p := pipeline.New(client, client, downloader, pipeline.Options{
		FilingType:     c.EDGAR.FilingType,
		Years:          c.EDGAR.Years,
		Root:           c.Download.Dir,
		PerCompanyDirs: c.Download.PerCompanyDirs,
		Concurrency:    c.Batch.MaxConcurrentCompanies,
		CompanyTimeout: time.Duration(c.Batch.CompanyTimeoutSecs) * time.Second,
	}, m)

	return &pipelineEnv{
		Registry:   reg,
		Metrics:    m,
		Fetcher:    f,
		Client:     client,
		Downloader: downloader,
		Pipeline:   p,
	}, nil
}

// newFetcher builds the shared retrying fetcher from the retry, circuit, and
// edgar sections of c.
func newFetcher(c *config.Config, m *monitoring.Metrics) *fetcher.HTTPFetcher {
	r := c.Retry
	opts := fetcher.HTTPOptions{
		UserAgent: c.EDGAR.UserAgent,
		Accept:    c.EDGAR.Accept,
		Retry: resilience.FromRetryConfig(r.MaxAttempts, r.InitialBackoffMs, r.MaxBackoffMs,
			r.AttemptTimeoutSecs, r.Multiplier, r.JitterFraction),
		Limiters: newLimiters(c.EDGAR.BaseURL, c.EDGAR.RequestsPerSecond),
		Metrics:  m,
	}
	if c.Circuit.FailureThreshold > 0 {
		opts.Breakers = resilience.NewHostBreakers(
			resilience.FromCircuitConfig(c.Circuit.FailureThreshold, c.Circuit.ResetTimeoutSecs))
	}
	return fetcher.NewHTTPFetcher(opts)
}

// newLimiters creates one adaptive limiter per SEC host plus the configured
// base URL host.
func newLimiters(baseURL string, rps float64) map[string]*fetcher.AdaptiveLimiter {
	if rps <= 0 {
		return fetcher.DefaultAdaptiveLimiters()
	}
	burst := max(1, int(rps))
	limiters := make(map[string]*fetcher.AdaptiveLimiter, len(secHosts)+1)
	for _, h := range secHosts {
		limiters[h] = fetcher.NewAdaptiveLimiter(rate.Limit(rps), burst)
	}
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		if _, ok := limiters[u.Host]; !ok {
			limiters[u.Host] = fetcher.NewAdaptiveLimiter(rate.Limit(rps), burst)
		}
	}
	return limiters
}
