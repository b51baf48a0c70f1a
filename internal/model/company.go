package model

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
)

var validate = validator.New()

// CompanyEntry is one company from an input list: a raw CIK or ticker and an
// optional display name. The JSON shape matches the parsed-companies files
// produced by earlier tooling.
type CompanyEntry struct {
	Input string `json:"CIK" yaml:"cik"`
	Name  string `json:"company_name,omitempty" yaml:"name,omitempty"`
	Line  int    `json:"-" yaml:"-"` // 1-based source line, 0 when not from a file
}

// CompanyIdentifier is a resolved filer.
type CompanyIdentifier struct {
	CIK         string `json:"cik" yaml:"cik" validate:"required,len=10,numeric"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
}

// NewCompanyIdentifier validates an already padded CIK.
func NewCompanyIdentifier(cik, displayName string) (CompanyIdentifier, error) {
	id := CompanyIdentifier{CIK: cik, DisplayName: displayName}
	if err := validate.Struct(id); err != nil {
		return CompanyIdentifier{}, eris.Wrapf(err, "model: invalid company identifier %q", cik)
	}
	return id, nil
}

// CompanyStatus summarizes how a company's run ended.
type CompanyStatus string

const (
	CompanyStatusOK     CompanyStatus = "ok"     // at least one filing downloaded
	CompanyStatusEmpty  CompanyStatus = "empty"  // no filings or no attachments
	CompanyStatusFailed CompanyStatus = "failed" // resolution, listing, or every download failed
)

// CompanyReport is the per-company outcome of a batch run.
type CompanyReport struct {
	Input     string           `json:"input" yaml:"input"`
	CIK       string           `json:"cik,omitempty" yaml:"cik,omitempty"`
	Name      string           `json:"name,omitempty" yaml:"name,omitempty"`
	Status    CompanyStatus    `json:"status" yaml:"status"`
	ErrorKind string           `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Error     string           `json:"error,omitempty" yaml:"error,omitempty"`
	Filings   []FilingDownload `json:"filings,omitempty" yaml:"filings,omitempty"`
	Duration  time.Duration    `json:"duration_ns" yaml:"duration"`
}

// BatchReport is the outcome of a whole batch run.
type BatchReport struct {
	RunID      string          `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time       `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time       `json:"finished_at" yaml:"finished_at"`
	Succeeded  int             `json:"succeeded" yaml:"succeeded"`
	Empty      int             `json:"empty" yaml:"empty"`
	Failed     int             `json:"failed" yaml:"failed"`
	Companies  []CompanyReport `json:"companies" yaml:"companies"`
}
