package edgar

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/xbrl-fetch/internal/model"
)

const lookupXML = `<?xml version="1.0" encoding="ISO-8859-1" ?>
<companyFilings>
  <companyInfo>
    <CIK>0000320193</CIK>
    <name>Apple Inc.</name>
    <SIC>3571</SIC>
  </companyInfo>
  <results>
    <filing><name>ignored second name</name></filing>
  </results>
</companyFilings>`

func TestResolve_NumericNoRequest(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))

	id, err := c.Resolve(context.Background(), "320193")
	require.NoError(t, err)
	assert.Equal(t, "0000320193", id.CIK)
	assert.Zero(t, hits.Load())
}

func TestResolve_Ticker(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cgi-bin/browse-edgar", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "getcompany", q.Get("action"))
		assert.Equal(t, "AAPL", q.Get("CIK"))
		assert.Equal(t, "xml", q.Get("output"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(lookupXML))
	}))

	id, err := c.Resolve(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "0000320193", id.CIK)
	assert.Equal(t, "Apple Inc.", id.DisplayName)
}

func TestResolveEntry_PrefersKnownName(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(lookupXML))
	}))

	id, err := c.ResolveEntry(context.Background(), model.CompanyEntry{Input: "AAPL", Name: "APPLE"})
	require.NoError(t, err)
	assert.Equal(t, "APPLE", id.DisplayName)

	id, err = c.ResolveEntry(context.Background(), model.CompanyEntry{Input: "42", Name: "Numeric Co"})
	require.NoError(t, err)
	assert.Equal(t, "0000000042", id.CIK)
	assert.Equal(t, "Numeric Co", id.DisplayName)
}

func TestResolve_UnpaddedLookupCIK(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<companyInfo><CIK>1318605</CIK><name>Tesla, Inc.</name></companyInfo>`))
	}))

	id, err := c.Resolve(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.Equal(t, "0001318605", id.CIK)
}

func TestResolve_InvalidInput(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))

	for _, in := range []string{"", "not a ticker", "12345678901", "AB$C"} {
		_, err := c.Resolve(context.Background(), in)
		require.Error(t, err, in)
		assert.Equal(t, KindInvalidInput, KindOf(err), in)
	}
	assert.Zero(t, hits.Load())
}

func TestResolve_NotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<companyFilings><results/></companyFilings>`))
	}))

	_, err := c.Resolve(context.Background(), "ZZZZ")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestResolve_MalformedXML(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<companyInfo><CIK>0000320193`))
	}))

	_, err := c.Resolve(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Equal(t, KindParseFailure, KindOf(err))
}

func TestResolve_HTMLReplyIsNotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<!DOCTYPE html><html><head><meta charset="utf-8"><title>EDGAR Search Results</title></head>` +
			`<body><center><h1>No matching Ticker Symbol.</h1></center></body></html>`))
	}))

	_, err := c.Resolve(context.Background(), "ZZZZQ")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestParseLookup_MalformedAfterCIK(t *testing.T) {
	cik, _, sawCIK, err := parseLookup(strings.NewReader(`<companyInfo><CIK>320193</CIK><name>Apple</oops>`))
	require.Error(t, err)
	assert.True(t, sawCIK)
	assert.Empty(t, cik)

	_, _, sawCIK, err = parseLookup(strings.NewReader(`<html><head><meta charset="utf-8"></head></html>`))
	require.Error(t, err)
	assert.False(t, sawCIK)
}

func TestResolve_HTTPFailure(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.Resolve(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Equal(t, KindResolutionFailed, KindOf(err))
	assert.Equal(t, int32(5), hits.Load())

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusInternalServerError, e.StatusCode)
	assert.Equal(t, 5, e.Attempts)
	assert.Contains(t, e.Error(), "status 500")
}

func TestResolve_NetworkFailure(t *testing.T) {
	c, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := c.Resolve(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Equal(t, KindNetworkFailure, KindOf(err))
}
