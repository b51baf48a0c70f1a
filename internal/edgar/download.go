package edgar

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/xbrl-fetch/internal/model"
	"github.com/sells-group/xbrl-fetch/internal/monitoring"
	"github.com/sells-group/xbrl-fetch/internal/storage"
)

// DefaultFileConcurrency bounds parallel attachment downloads per filing.
const DefaultFileConcurrency = 4

// PrimaryDocumentMarker identifies the XBRL instance extracted from the
// inline filing.
const PrimaryDocumentMarker = "_htm.xml"

// Downloader saves filing attachments to disk, skipping files that already
// exist.
type Downloader struct {
	client      *Client
	concurrency int
	metrics     *monitoring.Metrics
	sink        storage.Sink
	sinkRoot    string
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithFileConcurrency bounds parallel downloads within one filing.
func WithFileConcurrency(n int) DownloaderOption {
	return func(d *Downloader) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithMetrics records download outcomes.
func WithMetrics(m *monitoring.Metrics) DownloaderOption {
	return func(d *Downloader) { d.metrics = m }
}

// WithMirror uploads every newly downloaded file to sink, keyed by its path
// relative to root.
func WithMirror(sink storage.Sink, root string) DownloaderOption {
	return func(d *Downloader) {
		d.sink = sink
		d.sinkRoot = root
	}
}

// NewDownloader creates a Downloader that fetches through c.
func NewDownloader(c *Client, opts ...DownloaderOption) *Downloader {
	d := &Downloader{client: c, concurrency: DefaultFileConcurrency}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download saves link into destFolder/<basename>. An existing file is
// reported as skipped without a request. Failures are reported on the
// result; no partial file is left behind.
func (d *Downloader) Download(ctx context.Context, link model.AttachmentLink, destFolder string) model.DownloadResult {
	res, _ := d.download(ctx, link, destFolder)
	return res
}

func (d *Downloader) download(ctx context.Context, link model.AttachmentLink, destFolder string) (model.DownloadResult, error) {
	res := model.DownloadResult{URL: link.URL, State: model.DownloadPending}
	log := zap.L().With(zap.String("url", link.URL), zap.String("folder", destFolder))

	name, err := fileName(link.URL)
	if err != nil {
		return d.fail(res, err)
	}
	res.LocalPath = filepath.Join(destFolder, name)

	if err := os.MkdirAll(destFolder, 0o755); err != nil {
		return d.fail(res, &Error{Kind: KindFilesystemFailure, Op: "download", URL: link.URL, Err: eris.Wrap(err, "create folder")})
	}

	switch _, err := os.Stat(res.LocalPath); {
	case err == nil:
		log.Debug("file exists, skipping", zap.String("path", res.LocalPath))
		res.State = model.DownloadSkippedExists
		res.Succeeded = true
		d.metrics.IncDownload(string(res.State))
		return res, nil
	case !errors.Is(err, fs.ErrNotExist):
		return d.fail(res, &Error{Kind: KindFilesystemFailure, Op: "download", URL: link.URL, Err: eris.Wrap(err, "stat destination")})
	}

	n, err := d.client.f.DownloadToFile(ctx, link.URL, res.LocalPath)
	if err != nil {
		return d.fail(res, fetchError("download", link.URL, KindHTTPError, err))
	}

	res.State = model.DownloadSucceeded
	res.Succeeded = true
	d.metrics.IncDownload(string(res.State))
	log.Info("downloaded file", zap.String("path", res.LocalPath), zap.Int64("bytes", n))

	d.mirror(ctx, res.LocalPath, destFolder, name)
	return res, nil
}

func (d *Downloader) fail(res model.DownloadResult, err error) (model.DownloadResult, error) {
	res.State = model.DownloadFailed
	res.Succeeded = false
	res.Error = err.Error()
	d.metrics.IncDownload(string(res.State))
	zap.L().Warn("download failed", zap.String("url", res.URL), zap.Error(err))
	return res, err
}

func (d *Downloader) mirror(ctx context.Context, localPath, destFolder, name string) {
	if d.sink == nil {
		return
	}
	key := path.Join(filepath.Base(destFolder), name)
	if d.sinkRoot != "" {
		if rel, err := filepath.Rel(d.sinkRoot, localPath); err == nil && !strings.HasPrefix(rel, "..") {
			key = filepath.ToSlash(rel)
		}
	}
	if err := d.sink.Put(ctx, key, localPath); err != nil {
		zap.L().Warn("mirror upload failed", zap.String("key", key), zap.Error(err))
	}
}

// DownloadFiling downloads every attachment of the filing at indexURL into
// root/<folder>. Results keep link order. The returned FilingDownload is
// never nil. When attachments exist but none could be saved, the error
// carries the kind of the last attachment failure.
func (d *Downloader) DownloadFiling(ctx context.Context, indexURL, root string) (*model.FilingDownload, error) {
	fd := &model.FilingDownload{IndexURL: indexURL}

	links, folder, err := d.client.ExtractAttachmentLinks(ctx, indexURL)
	if err != nil {
		return fd, err
	}
	if len(links) == 0 {
		zap.L().Info("no attachments on index page", zap.String("url", indexURL))
		return fd, nil
	}
	fd.Folder = folder

	dest := filepath.Join(root, folder)
	fd.Results = make([]model.DownloadResult, len(links))
	errs := make([]error, len(links))

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, link := range links {
		g.Go(func() error {
			fd.Results[i], errs[i] = d.download(ctx, link, dest)
			return nil
		})
	}
	_ = g.Wait()

	fd.PrimaryDocument = PrimaryDocument(fd.Results)
	ok, failed := fd.Counts()
	zap.L().Info("filing downloaded",
		zap.String("url", indexURL),
		zap.String("folder", dest),
		zap.Int("ok", ok),
		zap.Int("failed", failed),
		zap.String("primary", fd.PrimaryDocument),
	)
	if ok == 0 && failed > 0 {
		return fd, allFailed(indexURL, failed, errs)
	}
	return fd, nil
}

// allFailed summarizes a filing whose every attachment failed, keeping the
// kind, status, and attempts of the last failure.
func allFailed(indexURL string, failed int, errs []error) *Error {
	var last error
	for _, err := range errs {
		if err != nil {
			last = err
		}
	}
	e := &Error{Kind: KindHTTPError, Op: "download_filing", URL: indexURL,
		Err: eris.Errorf("all %d attachment(s) failed, last: %v", failed, last)}
	var inner *Error
	if errors.As(last, &inner) {
		e.Kind = inner.Kind
		e.StatusCode = inner.StatusCode
		e.Attempts = inner.Attempts
	}
	return e
}

// PrimaryDocument returns the local path of the last file on disk whose
// name contains the primary document marker, or "" if none.
func PrimaryDocument(results []model.DownloadResult) string {
	var primary string
	for _, r := range results {
		if r.Succeeded && strings.Contains(filepath.Base(r.LocalPath), PrimaryDocumentMarker) {
			primary = r.LocalPath
		}
	}
	return primary
}

func fileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", &Error{Kind: KindInvalidInput, Op: "download", URL: rawURL, Err: eris.Wrap(err, "parse url")}
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", &Error{Kind: KindInvalidInput, Op: "download", URL: rawURL, Err: eris.New("url has no file name")}
	}
	return name, nil
}
