package edgar

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/xbrl-fetch/internal/fetcher"
	"github.com/sells-group/xbrl-fetch/internal/model"
)

// Resolve turns a raw CIK or ticker into a CompanyIdentifier. Numeric input
// is padded without a network call.
func (c *Client) Resolve(ctx context.Context, input string) (model.CompanyIdentifier, error) {
	return c.ResolveEntry(ctx, model.CompanyEntry{Input: input})
}

// ResolveEntry resolves entry.Input, preferring entry.Name as the display
// name and falling back to the name EDGAR reports.
func (c *Client) ResolveEntry(ctx context.Context, entry model.CompanyEntry) (model.CompanyIdentifier, error) {
	input := strings.TrimSpace(entry.Input)

	if IsNumeric(input) {
		cik, err := PadCIK(input)
		if err != nil {
			return model.CompanyIdentifier{}, err
		}
		return model.NewCompanyIdentifier(cik, entry.Name)
	}

	if !IsTicker(input) {
		return model.CompanyIdentifier{}, &Error{
			Kind: KindInvalidInput,
			Op:   "resolve",
			Err:  eris.Errorf("%q is neither a CIK nor a ticker", entry.Input),
		}
	}

	cik, name, err := c.lookupTicker(ctx, input)
	if err != nil {
		return model.CompanyIdentifier{}, err
	}
	if entry.Name != "" {
		name = entry.Name
	}
	return model.NewCompanyIdentifier(cik, name)
}

func (c *Client) lookupTicker(ctx context.Context, ticker string) (cik, name string, err error) {
	rawURL := c.browseURL(url.Values{
		"action": {"getcompany"},
		"CIK":    {ticker},
		"output": {"xml"},
	})
	log := zap.L().With(zap.String("ticker", ticker), zap.String("url", rawURL))

	body, err := c.f.Get(ctx, rawURL)
	if err != nil {
		return "", "", fetchError("resolve", rawURL, KindResolutionFailed, err)
	}

	rawCIK, name, sawCIK, err := parseLookup(bytes.NewReader(body))
	if err != nil {
		// EDGAR answers unknown tickers with an HTML page, not XML.
		kind := KindNotFound
		if sawCIK {
			kind = KindParseFailure
		}
		return "", "", &Error{Kind: kind, Op: "resolve", URL: rawURL, Err: err}
	}
	if rawCIK == "" {
		return "", "", &Error{Kind: KindNotFound, Op: "resolve", URL: rawURL, Err: eris.Errorf("no CIK for ticker %q", ticker)}
	}

	cik, err = PadCIK(rawCIK)
	if err != nil {
		return "", "", &Error{Kind: KindParseFailure, Op: "resolve", URL: rawURL, Err: err}
	}
	log.Debug("resolved ticker", zap.String("cik", cik), zap.String("name", name))
	return cik, name, nil
}

// parseLookup returns the text of the first CIK and name elements anywhere
// in the document. sawCIK reports whether a CIK element was reached before
// any decode error.
func parseLookup(r io.Reader) (cik, name string, sawCIK bool, err error) {
	dec := fetcher.NewXMLDecoder(r)
	var foundName bool
	for !(sawCIK && foundName) {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", "", sawCIK, eris.Wrap(err, "decode lookup xml")
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch {
		case start.Name.Local == "CIK" && !sawCIK:
			sawCIK = true
			var v string
			if err := dec.DecodeElement(&v, &start); err != nil {
				return "", "", true, eris.Wrap(err, "decode CIK element")
			}
			cik = strings.TrimSpace(v)
		case start.Name.Local == "name" && !foundName:
			var v string
			if err := dec.DecodeElement(&v, &start); err != nil {
				return "", "", sawCIK, eris.Wrap(err, "decode name element")
			}
			name, foundName = strings.TrimSpace(v), true
		}
	}
	return cik, name, sawCIK, nil
}
