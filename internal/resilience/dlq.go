package resilience

import (
	"time"

	"github.com/sells-group/xbrl-fetch/internal/model"
)

// DeadLetter records a company whose batch run failed so it can be queued
// again later.
type DeadLetter struct {
	Entry       model.CompanyEntry `json:"entry" yaml:"entry"`
	Error       string             `json:"error" yaml:"error"`
	ErrorType   string             `json:"error_type" yaml:"error_type"` // "transient" or "permanent"
	FailedPhase string             `json:"failed_phase,omitempty" yaml:"failed_phase,omitempty"`
	FailedAt    time.Time          `json:"failed_at" yaml:"failed_at"`
}

// NewDeadLetter classifies err and stamps the failure time.
func NewDeadLetter(entry model.CompanyEntry, phase string, err error) DeadLetter {
	return DeadLetter{
		Entry:       entry,
		Error:       err.Error(),
		ErrorType:   ClassifyError(err),
		FailedPhase: phase,
		FailedAt:    time.Now().UTC(),
	}
}

// Retryable reports whether re-running the company later could succeed.
func (d DeadLetter) Retryable() bool {
	return d.ErrorType == "transient"
}

// ClassifyError categorizes an error as "transient" or "permanent".
func ClassifyError(err error) string {
	if IsTransient(err) {
		return "transient"
	}
	return "permanent"
}
