package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// FilingDateLayout is the date format used in EDGAR filing tables.
const FilingDateLayout = "2006-01-02"

// FilingReference points at one filing's index page.
type FilingReference struct {
	URL        string    `json:"url" yaml:"url" validate:"required,url"`
	FilingType string    `json:"filing_type" yaml:"filing_type" validate:"required"`
	FilingDate time.Time `json:"filing_date" yaml:"filing_date" validate:"required"`
}

// NewFilingReference parses and validates a filing row.
func NewFilingReference(rawURL, filingType, filingDate string) (FilingReference, error) {
	date, err := time.Parse(FilingDateLayout, filingDate)
	if err != nil {
		return FilingReference{}, eris.Wrapf(err, "model: parse filing date %q", filingDate)
	}
	ref := FilingReference{URL: rawURL, FilingType: filingType, FilingDate: date}
	if err := validate.Struct(ref); err != nil {
		return FilingReference{}, eris.Wrap(err, "model: invalid filing reference")
	}
	return ref, nil
}

// AttachmentLink is an .xml or .xsd document listed on a filing index page.
// Every link from one page shares InferredFolder.
type AttachmentLink struct {
	URL            string `json:"url" yaml:"url"`
	InferredFolder string `json:"inferred_folder" yaml:"inferred_folder"`
}

// DownloadState is the terminal (or initial) state of a single download.
type DownloadState string

const (
	DownloadPending       DownloadState = "pending"
	DownloadSkippedExists DownloadState = "skipped_exists"
	DownloadSucceeded     DownloadState = "succeeded"
	DownloadFailed        DownloadState = "failed"
)

// DownloadResult is the outcome of downloading one attachment.
type DownloadResult struct {
	URL       string        `json:"url" yaml:"url"`
	LocalPath string        `json:"local_path" yaml:"local_path"`
	Succeeded bool          `json:"succeeded" yaml:"succeeded"`
	State     DownloadState `json:"state" yaml:"state"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// FilingDownload is the outcome of downloading every attachment of a filing.
type FilingDownload struct {
	IndexURL        string           `json:"index_url" yaml:"index_url"`
	FilingDate      string           `json:"filing_date,omitempty" yaml:"filing_date,omitempty"`
	Folder          string           `json:"folder,omitempty" yaml:"folder,omitempty"`
	PrimaryDocument string           `json:"primary_document,omitempty" yaml:"primary_document,omitempty"`
	Error           string           `json:"error,omitempty" yaml:"error,omitempty"`
	Results         []DownloadResult `json:"results,omitempty" yaml:"results,omitempty"`
}

// Counts returns how many downloads succeeded (including skips) and failed.
func (f *FilingDownload) Counts() (succeeded, failed int) {
	for _, r := range f.Results {
		if r.Succeeded {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}
