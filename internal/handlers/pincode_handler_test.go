package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/laundry/api/internal/models"
	"github.com/stwalsh4118/laundry/api/internal/repository"
	"github.com/stwalsh4118/laundry/api/internal/services"
)

func setupPincodeRouter(service *MockPincodeService) http.Handler {
	handler := NewPincodeHandler(service)
	router := newTestRouter()
	pincodes := router.Group("/api/v1/pincodes")
	pincodes.GET("", handler.List)
	pincodes.POST("", handler.Create)
	pincodes.GET("/:id", handler.Get)
	pincodes.PUT("/:id", handler.Update)
	pincodes.DELETE("/:id", handler.Delete)
	return router
}

func TestPincodeHandler_List_Defaults(t *testing.T) {
	// Arrange
	service := new(MockPincodeService)
	service.On("List", mock.Anything, repository.ListParams{}).
		Return(services.Page[models.Pincode]{Page: 1, PerPage: 25}, nil)

	// Act
	w := doJSON(setupPincodeRouter(service), http.MethodGet, "/api/v1/pincodes", nil)

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[],"meta":{"page":1,"per_page":25,"total":0,"last_page":1}}`, w.Body.String())
}

func TestPincodeHandler_Create(t *testing.T) {
	// Arrange
	service := new(MockPincodeService)
	service.On("Create", mock.Anything, services.PincodeInput{
		Pincode:   "110001",
		CountryID: 1,
		City:      strPtr("New Delhi"),
		Latitude:  floatPtr(28.63),
		Longitude: floatPtr(77.21),
	}).Return(&models.Pincode{ID: 5, Pincode: "110001", CountryID: 1, Active: true}, nil)

	// Act
	w := doJSON(setupPincodeRouter(service), http.MethodPost, "/api/v1/pincodes", map[string]interface{}{
		"pincode":    "110001",
		"country_id": 1,
		"city":       "New Delhi",
		"latitude":   28.63,
		"longitude":  77.21,
	})

	// Assert
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"pincode":"110001"`)
	service.AssertExpectations(t)
}

func TestPincodeHandler_Create_Errors(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]interface{}
		serviceErr     error
		expectedStatus int
	}{
		{name: "latitude out of range", body: map[string]interface{}{"pincode": "1", "country_id": 1, "latitude": 95.0}, expectedStatus: http.StatusBadRequest},
		{name: "missing country", body: map[string]interface{}{"pincode": "1"}, expectedStatus: http.StatusBadRequest},
		{name: "duplicate", body: map[string]interface{}{"pincode": "1", "country_id": 1}, serviceErr: services.ErrDuplicatePincode, expectedStatus: http.StatusConflict},
		{name: "unknown country", body: map[string]interface{}{"pincode": "1", "country_id": 9}, serviceErr: services.ErrCountryNotFound, expectedStatus: http.StatusBadRequest},
		{name: "database failure", body: map[string]interface{}{"pincode": "1", "country_id": 1}, serviceErr: errors.New("boom"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockPincodeService)
			service.On("Create", mock.Anything, mock.Anything).Return(nil, tt.serviceErr)

			w := doJSON(setupPincodeRouter(service), http.MethodPost, "/api/v1/pincodes", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestPincodeHandler_UpdateNotFound(t *testing.T) {
	service := new(MockPincodeService)
	service.On("Update", mock.Anything, int64(8), mock.Anything).Return(nil, services.ErrPincodeNotFound)

	w := doJSON(setupPincodeRouter(service), http.MethodPut, "/api/v1/pincodes/8", map[string]interface{}{
		"pincode":    "110001",
		"country_id": 1,
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPincodeHandler_Delete(t *testing.T) {
	service := new(MockPincodeService)
	service.On("Delete", mock.Anything, int64(1)).Return(nil)
	service.On("Delete", mock.Anything, int64(2)).Return(services.ErrPincodeNotFound)
	router := setupPincodeRouter(service)

	assert.Equal(t, http.StatusNoContent, doJSON(router, http.MethodDelete, "/api/v1/pincodes/1", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodDelete, "/api/v1/pincodes/2", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(router, http.MethodDelete, "/api/v1/pincodes/0", nil).Code)
}
