package services

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/stwalsh4118/laundry/api/internal/jobs"
	"github.com/stwalsh4118/laundry/api/internal/models"
	"github.com/stwalsh4118/laundry/api/internal/repository"
)

// MockCountryRepository is a mock implementation of CountryRepository for testing
type MockCountryRepository struct {
	mock.Mock
}

func (m *MockCountryRepository) List(ctx context.Context, params repository.ListParams) ([]models.Country, int64, error) {
	args := m.Called(ctx, params)
	countries, _ := args.Get(0).([]models.Country)
	return countries, args.Get(1).(int64), args.Error(2)
}

func (m *MockCountryRepository) FindByID(ctx context.Context, id int64) (*models.Country, error) {
	args := m.Called(ctx, id)
	country, _ := args.Get(0).(*models.Country)
	return country, args.Error(1)
}

func (m *MockCountryRepository) Update(ctx context.Context, id int64, in repository.CountryUpdate) (*models.Country, error) {
	args := m.Called(ctx, id, in)
	country, _ := args.Get(0).(*models.Country)
	return country, args.Error(1)
}

// MockCurrencyRepository is a mock implementation of CurrencyRepository for testing
type MockCurrencyRepository struct {
	mock.Mock
}

func (m *MockCurrencyRepository) ListActive(ctx context.Context) ([]models.Currency, error) {
	args := m.Called(ctx)
	currencies, _ := args.Get(0).([]models.Currency)
	return currencies, args.Error(1)
}

func (m *MockCurrencyRepository) Exists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockPincodeRepository is a mock implementation of PincodeRepository for testing
type MockPincodeRepository struct {
	mock.Mock
}

func (m *MockPincodeRepository) List(ctx context.Context, params repository.ListParams) ([]models.Pincode, int64, error) {
	args := m.Called(ctx, params)
	pincodes, _ := args.Get(0).([]models.Pincode)
	return pincodes, args.Get(1).(int64), args.Error(2)
}

func (m *MockPincodeRepository) FindByID(ctx context.Context, id int64) (*models.Pincode, error) {
	args := m.Called(ctx, id)
	pincode, _ := args.Get(0).(*models.Pincode)
	return pincode, args.Error(1)
}

func (m *MockPincodeRepository) Create(ctx context.Context, in repository.PincodeInput) (*models.Pincode, error) {
	args := m.Called(ctx, in)
	pincode, _ := args.Get(0).(*models.Pincode)
	return pincode, args.Error(1)
}

func (m *MockPincodeRepository) Update(ctx context.Context, id int64, in repository.PincodeInput) (*models.Pincode, error) {
	args := m.Called(ctx, id, in)
	pincode, _ := args.Get(0).(*models.Pincode)
	return pincode, args.Error(1)
}

func (m *MockPincodeRepository) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockZoneRepository is a mock implementation of ZoneRepository for testing
type MockZoneRepository struct {
	mock.Mock
}

func (m *MockZoneRepository) List(ctx context.Context, params repository.ListParams) ([]models.Zone, int64, error) {
	args := m.Called(ctx, params)
	zones, _ := args.Get(0).([]models.Zone)
	return zones, args.Get(1).(int64), args.Error(2)
}

func (m *MockZoneRepository) FindByID(ctx context.Context, id int64) (*models.Zone, error) {
	args := m.Called(ctx, id)
	zone, _ := args.Get(0).(*models.Zone)
	return zone, args.Error(1)
}

func (m *MockZoneRepository) Create(ctx context.Context, in repository.ZoneInput) (*models.Zone, error) {
	args := m.Called(ctx, in)
	zone, _ := args.Get(0).(*models.Zone)
	return zone, args.Error(1)
}

func (m *MockZoneRepository) Update(ctx context.Context, id int64, in repository.ZoneInput) (*models.Zone, error) {
	args := m.Called(ctx, id, in)
	zone, _ := args.Get(0).(*models.Zone)
	return zone, args.Error(1)
}

func (m *MockZoneRepository) SoftDelete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockZoneRepository) ToggleActive(ctx context.Context, id int64) (*models.Zone, error) {
	args := m.Called(ctx, id)
	zone, _ := args.Get(0).(*models.Zone)
	return zone, args.Error(1)
}

func (m *MockZoneRepository) ReplacePincodes(ctx context.Context, id int64, pincodeIDs []int64) (bool, error) {
	args := m.Called(ctx, id, pincodeIDs)
	return args.Bool(0), args.Error(1)
}

// MockEnqueuer records enqueued jobs.
type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) Enqueue(job jobs.Job) (string, error) {
	args := m.Called(job)
	return args.String(0), args.Error(1)
}

type stubJob struct{}

func (stubJob) Name() string { return "stub" }
func (stubJob) Run(ctx context.Context) error { return nil }

func int64Ptr(v int64) *int64 { return &v }
func strPtr(v string) *string { return &v }
func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool { return &v }
