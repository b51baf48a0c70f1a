package edgar

import (
	"bytes"
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/xbrl-fetch/internal/model"
)

// ListFilings returns the filer's filings of filingType whose date matches
// one of years, in table order. An empty years matches every year. A page
// without a filing table yields an empty slice and no error.
func (c *Client) ListFilings(ctx context.Context, cik, filingType string, years []int) ([]model.FilingReference, error) {
	padded, err := PadCIK(cik)
	if err != nil {
		return nil, err
	}

	rawURL := c.browseURL(url.Values{
		"action": {"getcompany"},
		"CIK":    {padded},
		"type":   {filingType},
		"count":  {strconv.Itoa(c.count)},
	})

	body, err := c.f.Get(ctx, rawURL)
	if err != nil {
		return nil, fetchError("list filings", rawURL, KindHTTPError, err)
	}

	refs, err := c.parseFilingTable(body, filingType, years)
	if err != nil {
		return nil, &Error{Kind: KindParseFailure, Op: "list filings", URL: rawURL, Err: err}
	}

	zap.L().Debug("listed filings",
		zap.String("cik", padded),
		zap.String("type", filingType),
		zap.Int("count", len(refs)),
	)
	return refs, nil
}

func (c *Client) parseFilingTable(body []byte, filingType string, years []int) ([]model.FilingReference, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "parse browse page")
	}

	table := doc.Find("table.tableFile2").First()
	if table.Length() == 0 {
		return nil, nil
	}

	var refs []model.FilingReference
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header
		}
		cells := row.Find("td")
		if cells.Length() <= 3 {
			return
		}

		rowType := strings.TrimSpace(cells.Eq(0).Text())
		date := strings.TrimSpace(cells.Eq(3).Text())
		if rowType != filingType || !matchYear(date, years, c.yearMatch) {
			return
		}

		href, ok := cells.Eq(1).Find("a[href]").First().Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		link, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}

		ref, err := model.NewFilingReference(c.base.ResolveReference(link).String(), rowType, date)
		if err != nil {
			zap.L().Debug("dropping filing row", zap.String("date", date), zap.Error(err))
			return
		}
		refs = append(refs, ref)
	})
	return refs, nil
}

// matchYear reports whether date matches any of years.
func matchYear(date string, years []int, mode YearMatch) bool {
	if len(years) == 0 {
		return true
	}
	if mode == YearMatchExact {
		t, err := time.Parse(model.FilingDateLayout, date)
		if err != nil {
			return false
		}
		for _, y := range years {
			if t.Year() == y {
				return true
			}
		}
		return false
	}
	for _, y := range years {
		if strings.Contains(date, strconv.Itoa(y)) {
			return true
		}
	}
	return false
}
