package edgar

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/xbrl-fetch/internal/model"
)

// ExtractAttachmentLinks fetches a filing index page and returns its .xml
// and .xsd links plus the folder they share. A page with no such links
// yields an empty slice and an empty folder. The folder is also empty when
// the first link's name starts with '.' or '_'.
func (c *Client) ExtractAttachmentLinks(ctx context.Context, indexURL string) ([]model.AttachmentLink, string, error) {
	body, err := c.f.Get(ctx, indexURL)
	if err != nil {
		return nil, "", fetchError("extract attachments", indexURL, KindHTTPError, err)
	}
	links, folder, err := ParseAttachmentLinks(indexURL, bytes.NewReader(body))
	if err != nil {
		return nil, "", &Error{Kind: KindParseFailure, Op: "extract attachments", URL: indexURL, Err: err}
	}
	return links, folder, nil
}

// ParseAttachmentLinks parses an index page served from pageURL. Links are
// resolved against pageURL, kept in document order, and deduplicated.
func ParseAttachmentLinks(pageURL string, r io.Reader) ([]model.AttachmentLink, string, error) {
	base, err := url.Parse(pageURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, "", eris.Errorf("invalid page url %q", pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, "", eris.Wrap(err, "parse index page")
	}

	var urls []*url.URL
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		abs.Fragment = ""
		if !isAttachment(abs.Path) || seen[abs.String()] {
			return
		}
		seen[abs.String()] = true
		urls = append(urls, abs)
	})
	if len(urls) == 0 {
		return nil, "", nil
	}

	folder := FolderStem(path.Base(urls[0].Path))
	links := make([]model.AttachmentLink, len(urls))
	for i, u := range urls {
		links[i] = model.AttachmentLink{URL: u.String(), InferredFolder: folder}
	}
	return links, folder, nil
}

// FolderStem returns the part of a file name before its first '.' or '_'.
// "aapl-20220924_htm.xml" becomes "aapl-20220924"; "_foo.xml" becomes "".
func FolderStem(name string) string {
	if i := strings.IndexAny(name, "._"); i >= 0 {
		return name[:i]
	}
	return name
}

func isAttachment(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasSuffix(lower, ".xml") || strings.HasSuffix(lower, ".xsd")
}
