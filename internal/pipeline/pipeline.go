// Package pipeline drives resolution, filing discovery, and attachment
// download for each company in a list.
package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/xbrl-fetch/internal/edgar"
	"github.com/sells-group/xbrl-fetch/internal/model"
	"github.com/sells-group/xbrl-fetch/internal/monitoring"
)

// Phases a company run can fail in.
const (
	PhaseQueued   = "queued"
	PhaseResolve  = "resolve"
	PhaseList     = "list"
	PhaseDownload = "download"
)

// Resolver turns a company entry into a canonical identifier.
type Resolver interface {
	ResolveEntry(ctx context.Context, entry model.CompanyEntry) (model.CompanyIdentifier, error)
}

// Lister lists a filer's filings.
type Lister interface {
	ListFilings(ctx context.Context, cik, filingType string, years []int) ([]model.FilingReference, error)
}

// FilingDownloader downloads every attachment of one filing.
type FilingDownloader interface {
	DownloadFiling(ctx context.Context, indexURL, root string) (*model.FilingDownload, error)
}

// Options configures a Pipeline.
type Options struct {
	FilingType     string
	Years          []int
	Root           string
	PerCompanyDirs bool
	Concurrency    int
	CompanyTimeout time.Duration
}

// Pipeline runs companies through resolve, list, and download.
type Pipeline struct {
	resolver   Resolver
	lister     Lister
	downloader FilingDownloader
	opts       Options
	metrics    *monitoring.Metrics
}

// New creates a Pipeline. A nil metrics records nothing.
func New(r Resolver, l Lister, d FilingDownloader, opts Options, m *monitoring.Metrics) *Pipeline {
	if opts.FilingType == "" {
		opts.FilingType = "10-K"
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Pipeline{resolver: r, lister: l, downloader: d, opts: opts, metrics: m}
}

// ProcessCompany runs one company end to end. Failures are recorded on the
// report rather than returned.
func (p *Pipeline) ProcessCompany(ctx context.Context, entry model.CompanyEntry) *model.CompanyReport {
	report, _, _ := p.processCompany(ctx, entry)
	return report
}

// processCompany also returns the phase and error of a failed run so the
// batch can queue it for retry.
func (p *Pipeline) processCompany(ctx context.Context, entry model.CompanyEntry) (*model.CompanyReport, string, error) {
	start := time.Now()
	report := &model.CompanyReport{Input: entry.Input, Name: entry.Name}
	log := zap.L().With(zap.String("input", entry.Input))

	if p.opts.CompanyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.CompanyTimeout)
		defer cancel()
	}

	finish := func(status model.CompanyStatus, phase string, err error) (*model.CompanyReport, string, error) {
		report.Status = status
		report.Duration = time.Since(start)
		if err != nil {
			report.ErrorKind = string(edgar.KindOf(err))
			report.Error = err.Error()
			log.Warn("company failed", zap.String("phase", phase), zap.Error(err))
		}
		p.metrics.IncCompany(string(status))
		return report, phase, err
	}

	id, err := p.resolver.ResolveEntry(ctx, entry)
	if err != nil {
		return finish(model.CompanyStatusFailed, PhaseResolve, err)
	}
	report.CIK = id.CIK
	report.Name = id.DisplayName
	log = log.With(zap.String("cik", id.CIK))

	refs, err := p.lister.ListFilings(ctx, id.CIK, p.opts.FilingType, p.opts.Years)
	if err != nil {
		return finish(model.CompanyStatusFailed, PhaseList, err)
	}
	if len(refs) == 0 {
		log.Info("no matching filings")
		return finish(model.CompanyStatusEmpty, "", nil)
	}

	root := p.opts.Root
	if p.opts.PerCompanyDirs {
		root = filepath.Join(root, id.CIK)
	}

	var downloaded int
	var lastErr error
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			lastErr = eris.Wrap(err, "pipeline: company deadline")
			break
		}
		fd, err := p.downloader.DownloadFiling(ctx, ref.URL, root)
		if fd == nil {
			fd = &model.FilingDownload{IndexURL: ref.URL}
		}
		fd.FilingDate = ref.FilingDate.Format(model.FilingDateLayout)
		ok, failed := fd.Counts()
		if err == nil && ok == 0 && failed > 0 {
			err = eris.Errorf("pipeline: all %d attachment(s) of %s failed", failed, ref.URL)
		}
		if err != nil {
			fd.Error = err.Error()
			lastErr = err
		}
		report.Filings = append(report.Filings, *fd)
		downloaded += ok
		log.Info("filing processed", zap.String("summary", SummaryLine(*fd)))
	}

	switch {
	case downloaded > 0:
		return finish(model.CompanyStatusOK, "", nil)
	case lastErr != nil:
		return finish(model.CompanyStatusFailed, PhaseDownload, lastErr)
	default:
		return finish(model.CompanyStatusEmpty, "", nil)
	}
}
