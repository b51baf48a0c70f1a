package edgar

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// CIKWidth is the number of digits in a canonical CIK.
const CIKWidth = 10

var tickerPattern = regexp.MustCompile(`^[A-Za-z0-9.\-]{1,10}$`)

// IsNumeric reports whether s is non-empty and all ASCII digits.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// PadCIK left-pads an all-digit CIK to ten digits. PadCIK(PadCIK(x)) equals
// PadCIK(x).
func PadCIK(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if !IsNumeric(s) {
		return "", &Error{Kind: KindInvalidInput, Op: "pad cik", Err: eris.Errorf("cik %q is not numeric", raw)}
	}
	if len(s) > CIKWidth {
		return "", &Error{Kind: KindInvalidInput, Op: "pad cik", Err: eris.Errorf("cik %q has more than %d digits", raw, CIKWidth)}
	}
	return strings.Repeat("0", CIKWidth-len(s)) + s, nil
}

// IsTicker reports whether s looks like an exchange ticker symbol.
func IsTicker(s string) bool {
	return tickerPattern.MatchString(s)
}
