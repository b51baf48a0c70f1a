package edgar

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/xbrl-fetch/internal/model"
)

// ParseCompanyList reads a company list. Each line is a bare CIK or ticker,
// or "name:cik" / "name:cik:" as in the SEC cik-lookup-data file, where the
// CIK must be numeric. Blank lines, '#' comments, and colon lines without a
// numeric CIK are skipped.
func ParseCompanyList(r io.Reader) ([]model.CompanyEntry, error) {
	var entries []model.CompanyEntry
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !strings.Contains(line, ":") {
			entries = append(entries, model.CompanyEntry{Input: line, Line: lineNo})
			continue
		}

		parts := strings.Split(line, ":")
		cik := strings.TrimSpace(parts[1])
		if !IsNumeric(cik) {
			continue
		}
		entries = append(entries, model.CompanyEntry{
			Input: cik,
			Name:  strings.TrimSpace(parts[0]),
			Line:  lineNo,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "edgar: read company list")
	}
	return entries, nil
}

// ReadCompaniesJSON decodes a [{"CIK": ..., "company_name": ...}] document.
func ReadCompaniesJSON(r io.Reader) ([]model.CompanyEntry, error) {
	var entries []model.CompanyEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, eris.Wrap(err, "edgar: decode companies json")
	}
	for i := range entries {
		entries[i].Input = strings.TrimSpace(entries[i].Input)
		entries[i].Line = i + 1
	}
	return entries, nil
}

// WriteCompaniesJSON encodes entries as an indented JSON array.
func WriteCompaniesJSON(w io.Writer, entries []model.CompanyEntry) error {
	if entries == nil {
		entries = []model.CompanyEntry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(entries); err != nil {
		return eris.Wrap(err, "edgar: encode companies json")
	}
	return nil
}

// LoadCompanies reads a company file, choosing JSON or the text list format
// by content.
func LoadCompanies(path string) ([]model.CompanyEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "edgar: read %s", path)
	}
	return DecodeCompanies(data)
}

// DecodeCompanies parses data as a JSON array when it starts with '[' and
// as a text list otherwise.
func DecodeCompanies(data []byte) ([]model.CompanyEntry, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		return ReadCompaniesJSON(strings.NewReader(trimmed))
	}
	return ParseCompanyList(strings.NewReader(string(data)))
}

// SortByName orders entries by name, case-insensitively, then by input.
func SortByName(entries []model.CompanyEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := strings.ToLower(entries[i].Name), strings.ToLower(entries[j].Name)
		if a != b {
			return a < b
		}
		return entries[i].Input < entries[j].Input
	})
}
