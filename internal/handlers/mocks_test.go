package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stwalsh4118/laundry/api/internal/logger"
	"github.com/stwalsh4118/laundry/api/internal/middleware"
	"github.com/stwalsh4118/laundry/api/internal/models"
	"github.com/stwalsh4118/laundry/api/internal/repository"
	"github.com/stwalsh4118/laundry/api/internal/services"
)

// MockCountryService is a mock implementation of CountryService for testing
type MockCountryService struct {
	mock.Mock
}

func (m *MockCountryService) List(ctx context.Context, params repository.ListParams) (services.Page[models.Country], error) {
	args := m.Called(ctx, params)
	return args.Get(0).(services.Page[models.Country]), args.Error(1)
}

func (m *MockCountryService) Get(ctx context.Context, id int64) (*models.Country, error) {
	args := m.Called(ctx, id)
	country, _ := args.Get(0).(*models.Country)
	return country, args.Error(1)
}

func (m *MockCountryService) Update(ctx context.Context, id int64, in services.CountryInput) (*models.Country, error) {
	args := m.Called(ctx, id, in)
	country, _ := args.Get(0).(*models.Country)
	return country, args.Error(1)
}

func (m *MockCountryService) Sync(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockCurrencyService is a mock implementation of CurrencyService for testing
type MockCurrencyService struct {
	mock.Mock
}

func (m *MockCurrencyService) ListActive(ctx context.Context) ([]models.Currency, error) {
	args := m.Called(ctx)
	currencies, _ := args.Get(0).([]models.Currency)
	return currencies, args.Error(1)
}

// MockPincodeService is a mock implementation of PincodeService for testing
type MockPincodeService struct {
	mock.Mock
}

func (m *MockPincodeService) List(ctx context.Context, params repository.ListParams) (services.Page[models.Pincode], error) {
	args := m.Called(ctx, params)
	return args.Get(0).(services.Page[models.Pincode]), args.Error(1)
}

func (m *MockPincodeService) Get(ctx context.Context, id int64) (*models.Pincode, error) {
	args := m.Called(ctx, id)
	pincode, _ := args.Get(0).(*models.Pincode)
	return pincode, args.Error(1)
}

func (m *MockPincodeService) Create(ctx context.Context, in services.PincodeInput) (*models.Pincode, error) {
	args := m.Called(ctx, in)
	pincode, _ := args.Get(0).(*models.Pincode)
	return pincode, args.Error(1)
}

func (m *MockPincodeService) Update(ctx context.Context, id int64, in services.PincodeInput) (*models.Pincode, error) {
	args := m.Called(ctx, id, in)
	pincode, _ := args.Get(0).(*models.Pincode)
	return pincode, args.Error(1)
}

func (m *MockPincodeService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// MockZoneService is a mock implementation of ZoneService for testing
type MockZoneService struct {
	mock.Mock
}

func (m *MockZoneService) List(ctx context.Context, params repository.ListParams) (services.Page[models.Zone], error) {
	args := m.Called(ctx, params)
	return args.Get(0).(services.Page[models.Zone]), args.Error(1)
}

func (m *MockZoneService) Get(ctx context.Context, id int64) (*models.Zone, error) {
	args := m.Called(ctx, id)
	zone, _ := args.Get(0).(*models.Zone)
	return zone, args.Error(1)
}

func (m *MockZoneService) Create(ctx context.Context, in services.ZoneInput) (*models.Zone, error) {
	args := m.Called(ctx, in)
	zone, _ := args.Get(0).(*models.Zone)
	return zone, args.Error(1)
}

func (m *MockZoneService) Update(ctx context.Context, id int64, in services.ZoneInput) (*models.Zone, error) {
	args := m.Called(ctx, id, in)
	zone, _ := args.Get(0).(*models.Zone)
	return zone, args.Error(1)
}

func (m *MockZoneService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockZoneService) ToggleActive(ctx context.Context, id int64) (*models.Zone, error) {
	args := m.Called(ctx, id)
	zone, _ := args.Get(0).(*models.Zone)
	return zone, args.Error(1)
}

func (m *MockZoneService) AssignPincodes(ctx context.Context, id int64, pincodeIDs []int64) (*models.Zone, error) {
	args := m.Called(ctx, id, pincodeIDs)
	zone, _ := args.Get(0).(*models.Zone)
	return zone, args.Error(1)
}

// newTestRouter returns a router with the request-scoped middleware the
// handlers rely on.
func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logger(logger.Nop()))
	return router
}

func doJSON(router http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func int64Ptr(v int64) *int64 { return &v }
func strPtr(v string) *string { return &v }
func floatPtr(v float64) *float64 { return &v }
