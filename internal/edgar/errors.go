package edgar

import (
	"errors"
	"fmt"

	"github.com/sells-group/xbrl-fetch/internal/fetcher"
)

// Kind classifies an EDGAR operation failure.
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindNotFound          Kind = "not_found"
	KindResolutionFailed  Kind = "resolution_failed"
	KindNetworkFailure    Kind = "network_failure"
	KindHTTPError         Kind = "http_error"
	KindParseFailure      Kind = "parse_failure"
	KindFilesystemFailure Kind = "filesystem_failure"
)

// Error is the typed failure returned by every EDGAR operation.
type Error struct {
	Kind       Kind
	Op         string
	URL        string
	StatusCode int
	Attempts   int
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("edgar: %s: %s", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// fetchError converts a fetcher failure into an *Error. A reply with a
// status code maps to statusKind; no reply at all is a network failure.
func fetchError(op, rawURL string, statusKind Kind, err error) *Error {
	e := &Error{Kind: KindNetworkFailure, Op: op, URL: rawURL, Err: err}
	var reqErr *fetcher.RequestError
	if errors.As(err, &reqErr) {
		e.StatusCode = reqErr.StatusCode
		e.Attempts = reqErr.Attempts
		if reqErr.StatusCode != 0 {
			e.Kind = statusKind
		}
	}
	if fetcher.IsFilesystemError(err) {
		e.Kind = KindFilesystemFailure
	}
	return e
}
