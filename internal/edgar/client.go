// Package edgar resolves SEC filers, lists their filings, and downloads the
// XBRL attachments of each filing.
package edgar

import (
	"net/url"
	"strings"

	"github.com/sells-group/xbrl-fetch/internal/fetcher"
)

// DefaultBaseURL is the EDGAR site origin.
const DefaultBaseURL = "https://www.sec.gov"

// DefaultCount is the number of filings requested per browse page.
const DefaultCount = 40

// YearMatch selects how a filing date is compared with target years.
type YearMatch string

const (
	// YearMatchContains accepts a date whose text contains the year.
	YearMatchContains YearMatch = "contains"
	// YearMatchExact accepts a date whose parsed year equals the year.
	YearMatchExact YearMatch = "exact"
)

// Client talks to the EDGAR browse endpoints through a Fetcher.
type Client struct {
	f         fetcher.Fetcher
	base      *url.URL
	count     int
	yearMatch YearMatch
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another origin, used by tests.
func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(strings.TrimRight(raw, "/")); err == nil && u.Host != "" {
			c.base = u
		}
	}
}

// WithCount sets the browse page size.
func WithCount(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.count = n
		}
	}
}

// WithYearMatch sets how filing dates are matched against target years.
func WithYearMatch(m YearMatch) Option {
	return func(c *Client) {
		if m == YearMatchExact || m == YearMatchContains {
			c.yearMatch = m
		}
	}
}

// NewClient creates a Client over f.
func NewClient(f fetcher.Fetcher, opts ...Option) *Client {
	base, _ := url.Parse(DefaultBaseURL)
	c := &Client{f: f, base: base, count: DefaultCount, yearMatch: YearMatchContains}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetcher returns the underlying fetcher.
func (c *Client) Fetcher() fetcher.Fetcher { return c.f }

func (c *Client) browseURL(q url.Values) string {
	u := *c.base
	u.Path = "/cgi-bin/browse-edgar"
	u.RawQuery = q.Encode()
	return u.String()
}
