package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompanyIdentifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cik     string
		wantErr bool
	}{
		{"padded", "0000320193", false},
		{"short", "320193", true},
		{"too long", "00003201931", true},
		{"letters", "00000AAPL0", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			id, err := NewCompanyIdentifier(tt.cik, "Apple Inc.")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cik, id.CIK)
			assert.Equal(t, "Apple Inc.", id.DisplayName)
		})
	}
}

func TestCompanyEntry_JSONShape(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(CompanyEntry{Input: "0001993586", Name: "KERSHAW DAVID", Line: 7})
	require.NoError(t, err)
	assert.JSONEq(t, `{"CIK":"0001993586","company_name":"KERSHAW DAVID"}`, string(data))
}

func TestNewFilingReference(t *testing.T) {
	t.Parallel()

	ref, err := NewFilingReference("https://www.sec.gov/Archives/edgar/data/320193/x-index.htm", "10-K", "2022-10-28")
	require.NoError(t, err)
	assert.Equal(t, "10-K", ref.FilingType)
	assert.Equal(t, time.Date(2022, 10, 28, 0, 0, 0, 0, time.UTC), ref.FilingDate)
}

func TestNewFilingReference_Invalid(t *testing.T) {
	t.Parallel()

	_, err := NewFilingReference("https://www.sec.gov/x-index.htm", "10-K", "28/10/2022")
	assert.Error(t, err, "bad date")

	_, err = NewFilingReference("/relative/x-index.htm", "10-K", "2022-10-28")
	assert.Error(t, err, "relative url")

	_, err = NewFilingReference("https://www.sec.gov/x-index.htm", "", "2022-10-28")
	assert.Error(t, err, "empty type")
}

func TestFilingDownload_Counts(t *testing.T) {
	t.Parallel()

	fd := FilingDownload{Results: []DownloadResult{
		{State: DownloadSucceeded, Succeeded: true},
		{State: DownloadSkippedExists, Succeeded: true},
		{State: DownloadFailed},
	}}
	ok, failed := fd.Counts()
	assert.Equal(t, 2, ok)
	assert.Equal(t, 1, failed)
}
