package edgar

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/xbrl-fetch/internal/model"
)

func TestParseCompanyList(t *testing.T) {
	input := `# companies to fetch
KERSHAW DAVID:0001993586:
Apple Inc.:320193

AAPL
0000789019
BROKEN CO:not-a-cik:
ONLY NAME:
`
	entries, err := ParseCompanyList(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []model.CompanyEntry{
		{Input: "0001993586", Name: "KERSHAW DAVID", Line: 2},
		{Input: "320193", Name: "Apple Inc.", Line: 3},
		{Input: "AAPL", Line: 5},
		{Input: "0000789019", Line: 6},
	}, entries)
}

func TestCompaniesJSONRoundTrip(t *testing.T) {
	entries := []model.CompanyEntry{
		{Input: "0001993586", Name: "KERSHAW DAVID"},
		{Input: "0000320193", Name: "Apple Inc."},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCompaniesJSON(&buf, entries))
	assert.Contains(t, buf.String(), `"CIK": "0001993586"`)
	assert.Contains(t, buf.String(), `"company_name": "KERSHAW DAVID"`)

	got, err := ReadCompaniesJSON(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "0000320193", got[1].Input)
	assert.Equal(t, 2, got[1].Line)
}

func TestWriteCompaniesJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCompaniesJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestReadCompaniesJSON_Invalid(t *testing.T) {
	_, err := ReadCompaniesJSON(strings.NewReader(`{"CIK": 1}`))
	assert.Error(t, err)
}

func TestLoadCompanies(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "parsed_companies.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"CIK": "0000320193", "company_name": "Apple Inc."}]`), 0o644))
	entries, err := LoadCompanies(jsonPath)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Apple Inc.", entries[0].Name)

	txtPath := filepath.Join(dir, "cik-lookup-data.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("APPLE INC:0000320193:\nMICROSOFT CORP:0000789019:\n"), 0o644))
	entries, err = LoadCompanies(txtPath)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = LoadCompanies(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestSortByName(t *testing.T) {
	entries := []model.CompanyEntry{
		{Input: "3", Name: "zeta"},
		{Input: "2", Name: "Alpha"},
		{Input: "1", Name: "alpha"},
		{Input: "4", Name: "Beta"},
	}
	SortByName(entries)
	var order []string
	for _, e := range entries {
		order = append(order, e.Input)
	}
	assert.Equal(t, []string{"1", "2", "4", "3"}, order)
}

func TestDecodeCompanies(t *testing.T) {
	entries, err := DecodeCompanies([]byte("  \n[{\"CIK\": \"320193\"}]"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "320193", entries[0].Input)

	entries, err = DecodeCompanies([]byte("AAPL\n# comment\nMSFT\n"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 3, entries[1].Line)
}
