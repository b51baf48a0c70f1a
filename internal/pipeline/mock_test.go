package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/xbrl-fetch/internal/model"
)

// --- Resolver Mock ---

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) ResolveEntry(ctx context.Context, entry model.CompanyEntry) (model.CompanyIdentifier, error) {
	args := m.Called(ctx, entry)
	return args.Get(0).(model.CompanyIdentifier), args.Error(1)
}

// --- Lister Mock ---

type mockLister struct {
	mock.Mock
}

func (m *mockLister) ListFilings(ctx context.Context, cik, filingType string, years []int) ([]model.FilingReference, error) {
	args := m.Called(ctx, cik, filingType, years)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FilingReference), args.Error(1)
}

// --- Downloader Mock ---

type mockDownloader struct {
	mock.Mock
}

func (m *mockDownloader) DownloadFiling(ctx context.Context, indexURL, root string) (*model.FilingDownload, error) {
	args := m.Called(ctx, indexURL, root)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FilingDownload), args.Error(1)
}
