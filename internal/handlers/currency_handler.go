package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/laundry/api/internal/errors"
	"github.com/stwalsh4118/laundry/api/internal/models"
	"github.com/stwalsh4118/laundry/api/internal/services"
)

// CurrencyHandler serves the currency picker.
type CurrencyHandler struct {
	service services.CurrencyService
}

// NewCurrencyHandler creates a new CurrencyHandler instance.
func NewCurrencyHandler(service services.CurrencyService) *CurrencyHandler {
	return &CurrencyHandler{service: service}
}

// List handles GET /api/v1/currencies.
func (h *CurrencyHandler) List(c *gin.Context) {
	currencies, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		apierrors.InternalServerError(c, "Failed to list currencies", err)
		return
	}
	if currencies == nil {
		currencies = []models.Currency{}
	}

	c.JSON(http.StatusOK, DataResponse[[]models.Currency]{Data: currencies})
}
