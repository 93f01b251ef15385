package importer

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/stwalsh4118/laundry/api/internal/models"
	"github.com/stwalsh4118/laundry/api/internal/repository"
)

// MockImportRepository is a mock implementation of ImportRepository for testing.
// InTx runs fn against the mock itself.
type MockImportRepository struct {
	mock.Mock
}

func (m *MockImportRepository) UpsertCurrency(ctx context.Context, row models.CurrencyRow) (int64, error) {
	args := m.Called(ctx, row)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockImportRepository) UpsertCountry(ctx context.Context, row models.CountryRow, currencyID *int64) (int64, error) {
	args := m.Called(ctx, row, currencyID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockImportRepository) FindCountryIDByISO2(ctx context.Context, iso2 string) (*int64, error) {
	args := m.Called(ctx, iso2)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*int64), args.Error(1)
}

func (m *MockImportRepository) BulkUpsertPincodes(ctx context.Context, countryID int64, rows []models.PincodeRow) (int64, error) {
	args := m.Called(ctx, countryID, rows)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockImportRepository) UpsertPincode(ctx context.Context, countryID int64, row models.PincodeRow) error {
	args := m.Called(ctx, countryID, row)
	return args.Error(0)
}

func (m *MockImportRepository) InTx(ctx context.Context, fn func(repo repository.ImportRepository) error) error {
	m.Called(ctx)
	return fn(m)
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(s string) *string { return &s }

// bulkRows returns the rows passed to every BulkUpsertPincodes call.
func bulkRows(m *MockImportRepository) [][]models.PincodeRow {
	var out [][]models.PincodeRow
	for _, call := range m.Calls {
		if call.Method == "BulkUpsertPincodes" {
			out = append(out, call.Arguments.Get(2).([]models.PincodeRow))
		}
	}
	return out
}
