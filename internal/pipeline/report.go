package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/xbrl-fetch/internal/edgar"
	"github.com/sells-group/xbrl-fetch/internal/model"
	"github.com/sells-group/xbrl-fetch/internal/resilience"
)

// Report formats accepted by WriteReport.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// SummaryLine describes one filing: its folder and primary XBRL document,
// or "none" when the filing produced no primary document.
func SummaryLine(fd model.FilingDownload) string {
	primary := "none"
	if fd.PrimaryDocument != "" {
		primary = filepath.Base(fd.PrimaryDocument)
	}
	folder := fd.Folder
	if folder == "" {
		folder = "none"
	}
	ok, failed := fd.Counts()
	line := fmt.Sprintf("folder=%s primary=%s ok=%d failed=%d", folder, primary, ok, failed)
	if fd.FilingDate != "" {
		line = fd.FilingDate + " " + line
	}
	if fd.Error != "" {
		line += " error=" + fd.Error
	}
	return line
}

// WriteReport renders a batch report as text, JSON, or YAML.
func WriteReport(w io.Writer, r *model.BatchReport, format string) error {
	switch strings.ToLower(format) {
	case "", FormatText:
		_, err := io.WriteString(w, FormatBatchText(r))
		return eris.Wrap(err, "pipeline: write text report")
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(r), "pipeline: write json report")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return eris.Wrap(err, "pipeline: write yaml report")
		}
		return eris.Wrap(enc.Close(), "pipeline: close yaml encoder")
	default:
		return eris.Errorf("pipeline: unknown report format %q", format)
	}
}

// FormatBatchText renders a human-readable batch summary.
func FormatBatchText(r *model.BatchReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run %s\n", r.RunID)
	fmt.Fprintf(&b, "Companies: %d (%d ok, %d empty, %d failed)\n",
		len(r.Companies), r.Succeeded, r.Empty, r.Failed)
	if !r.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "Elapsed: %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}
	b.WriteString("\n")

	for _, c := range r.Companies {
		label := c.Input
		if c.CIK != "" {
			label = c.CIK
		}
		if c.Name != "" {
			label += " " + c.Name
		}
		fmt.Fprintf(&b, "%s: %s\n", label, c.Status)
		if c.Error != "" {
			kind := c.ErrorKind
			if kind == "" {
				kind = "error"
			}
			fmt.Fprintf(&b, "  %s: %s\n", kind, c.Error)
		}
		for _, fd := range c.Filings {
			fmt.Fprintf(&b, "  %s\n", SummaryLine(fd))
		}
	}
	return b.String()
}

// WriteRetryList writes dead letters back out in the company list format so
// the file can be fed to another batch run. With retryableOnly, permanent
// failures are left out.
func WriteRetryList(w io.Writer, letters []resilience.DeadLetter, retryableOnly bool) (int, error) {
	n := 0
	for _, dl := range letters {
		if retryableOnly && !dl.Retryable() {
			continue
		}
		line := dl.Entry.Input
		if dl.Entry.Name != "" && edgar.IsNumeric(dl.Entry.Input) {
			line = strings.ReplaceAll(dl.Entry.Name, ":", " ") + ":" + dl.Entry.Input + ":"
		}
		if _, err := fmt.Fprintf(w, "# %s %s: %s\n%s\n", dl.FailedPhase, dl.ErrorType, oneLine(dl.Error), line); err != nil {
			return n, eris.Wrap(err, "pipeline: write retry list")
		}
		n++
	}
	return n, nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
