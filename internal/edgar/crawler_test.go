package edgar

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const browsePage = `<html><body>
<table class="tableFile2" summary="Results">
  <tr><th>Filings</th><th>Format</th><th>Description</th><th>Filing Date</th><th>File/Film Number</th></tr>
  <tr><td>10-K</td><td><a href="/Archives/edgar/data/320193/000032019322000108/0000320193-22-000108-index.htm" id="documentsbutton">Documents</a></td><td>Annual report</td><td>2022-10-28</td><td>001-36743</td></tr>
  <tr><td>10-Q</td><td><a href="/Archives/edgar/data/320193/000032019322000070/0000320193-22-000070-index.htm">Documents</a></td><td>Quarterly report</td><td>2022-07-29</td><td>001-36743</td></tr>
  <tr><td>10-K</td><td><a href="/Archives/edgar/data/320193/000032019321000105/0000320193-21-000105-index.htm">Documents</a></td><td>Annual report</td><td>2021-10-29</td><td>001-36743</td></tr>
  <tr><td>10-K</td><td>No documents</td><td>Annual report</td><td>2020-10-30</td><td>001-36743</td></tr>
  <tr><td>10-K</td><td><a href="/Archives/edgar/data/320193/bad-date-index.htm">Documents</a></td><td>Annual report</td><td>Oct 2019</td><td>001-36743</td></tr>
  <tr><td>10-K/A</td><td><a href="/Archives/edgar/data/320193/amend-index.htm">Documents</a></td><td>Amendment</td><td>2022-11-01</td><td>001-36743</td></tr>
  <tr><td>10-K</td><td><a href="/short">Documents</a></td><td>2018-11-05</td></tr>
  <tr><td>10-K</td><td><a href="/Archives/edgar/data/320193/000032019318000145/0000320193-18-000145-index.htm">Documents</a></td><td>Annual report</td><td>2018-11-05</td><td>001-36743</td></tr>
</table>
</body></html>`

func browseHandler(t *testing.T, page string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "getcompany", q.Get("action"))
		assert.Equal(t, "0000320193", q.Get("CIK"))
		assert.Equal(t, "10-K", q.Get("type"))
		assert.Equal(t, "40", q.Get("count"))
		_, _ = w.Write([]byte(page))
	})
}

func TestListFilings_SingleYear(t *testing.T) {
	c, srv := newTestClient(t, browseHandler(t, browsePage))

	refs, err := c.ListFilings(context.Background(), "320193", "10-K", []int{2022})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, srv.URL+"/Archives/edgar/data/320193/000032019322000108/0000320193-22-000108-index.htm", refs[0].URL)
	assert.Equal(t, "10-K", refs[0].FilingType)
	assert.Equal(t, time.Date(2022, 10, 28, 0, 0, 0, 0, time.UTC), refs[0].FilingDate)
}

func TestListFilings_TableOrderPreserved(t *testing.T) {
	c, _ := newTestClient(t, browseHandler(t, browsePage))

	refs, err := c.ListFilings(context.Background(), "0000320193", "10-K", []int{2018, 2021, 2022})
	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Equal(t, 2022, refs[0].FilingDate.Year())
	assert.Equal(t, 2021, refs[1].FilingDate.Year())
	assert.Equal(t, 2018, refs[2].FilingDate.Year())
}

func TestListFilings_EmptyYearsMatchesAll(t *testing.T) {
	c, _ := newTestClient(t, browseHandler(t, browsePage))

	refs, err := c.ListFilings(context.Background(), "320193", "10-K", nil)
	require.NoError(t, err)
	// Rows without an anchor, with an unparseable date, or with too few
	// cells are dropped.
	assert.Len(t, refs, 3)
	for _, ref := range refs {
		assert.Equal(t, "10-K", ref.FilingType)
	}
}

func TestListFilings_NoMatchingYear(t *testing.T) {
	c, _ := newTestClient(t, browseHandler(t, browsePage))

	refs, err := c.ListFilings(context.Background(), "320193", "10-K", []int{2005})
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestListFilings_ExactYearMatch(t *testing.T) {
	c, _ := newTestClient(t, browseHandler(t, browsePage), WithYearMatch(YearMatchExact))

	refs, err := c.ListFilings(context.Background(), "320193", "10-K", []int{2021})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, 2021, refs[0].FilingDate.Year())
}

func TestListFilings_NoTable(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>No matching CIK.</p></body></html>`))
	}))

	refs, err := c.ListFilings(context.Background(), "320193", "10-K", []int{2022})
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestListFilings_Exhausted(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	refs, err := c.ListFilings(context.Background(), "320193", "10-K", []int{2022})
	require.Error(t, err)
	assert.Empty(t, refs)
	assert.Equal(t, KindHTTPError, KindOf(err))
	assert.Equal(t, int32(5), hits.Load())

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusServiceUnavailable, e.StatusCode)
	assert.Equal(t, 5, e.Attempts)
}

func TestListFilings_InvalidCIK(t *testing.T) {
	c, _ := newTestClient(t, http.NotFoundHandler())

	_, err := c.ListFilings(context.Background(), "AAPL", "10-K", nil)
	require.Error(t, err)
	assert.Equal(t, KindInvalidInput, KindOf(err))
}

func TestMatchYear(t *testing.T) {
	assert.True(t, matchYear("2022-10-28", nil, YearMatchContains))
	assert.True(t, matchYear("2022-10-28", []int{2019, 2022}, YearMatchContains))
	assert.False(t, matchYear("2022-10-28", []int{2019}, YearMatchContains))
	assert.True(t, matchYear("filed 2022", []int{2022}, YearMatchContains))
	assert.False(t, matchYear("filed 2022", []int{2022}, YearMatchExact))
	assert.True(t, matchYear("2022-10-28", []int{2022}, YearMatchExact))
}
