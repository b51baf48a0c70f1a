// Package monitoring exposes Prometheus metrics for EDGAR requests,
// attachment downloads, and batch outcomes.
package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing,
// so library code never has to check whether metrics are enabled.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retries         *prometheus.CounterVec
	downloads       *prometheus.CounterVec
	companies       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgar_requests_total",
				Help: "EDGAR HTTP attempts by host and status code (\"error\" for transport failures).",
			},
			[]string{"host", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edgar_request_duration_seconds",
				Help:    "Duration of individual EDGAR HTTP attempts.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"host"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgar_retries_total",
				Help: "Backoff retries by host.",
			},
			[]string{"host"},
		),
		downloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xbrl_downloads_total",
				Help: "Attachment downloads by terminal state.",
			},
			[]string{"state"},
		),
		companies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xbrl_companies_total",
				Help: "Companies processed by batch status.",
			},
			[]string{"status"},
		),
	}

	for _, c := range []prometheus.Collector{m.requests, m.requestDuration, m.retries, m.downloads, m.companies} {
		if err := reg.Register(c); err != nil {
			return nil, eris.Wrap(err, "monitoring: register collector")
		}
	}
	return m, nil
}

// ObserveRequest records one HTTP attempt. A zero code means the attempt
// failed before a response arrived.
func (m *Metrics) ObserveRequest(host string, code int, d time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.requests.WithLabelValues(host, label).Inc()
	m.requestDuration.WithLabelValues(host).Observe(d.Seconds())
}

// IncRetry records a backoff retry against host.
func (m *Metrics) IncRetry(host string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(host).Inc()
}

// IncDownload records a download's terminal state.
func (m *Metrics) IncDownload(state string) {
	if m == nil {
		return
	}
	m.downloads.WithLabelValues(state).Inc()
}

// IncCompany records a company's batch status.
func (m *Metrics) IncCompany(status string) {
	if m == nil {
		return
	}
	m.companies.WithLabelValues(status).Inc()
}
