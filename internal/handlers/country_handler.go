package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/laundry/api/internal/errors"
	"github.com/stwalsh4118/laundry/api/internal/middleware"
	"github.com/stwalsh4118/laundry/api/internal/models"
	"github.com/stwalsh4118/laundry/api/internal/services"
)

// SyncStartedMessage is returned when a country sync is accepted.
const SyncStartedMessage = "Sync started, running in background."

// CountryHandler handles country-related HTTP requests.
type CountryHandler struct {
	service services.CountryService
}

// NewCountryHandler creates a new CountryHandler instance.
func NewCountryHandler(service services.CountryService) *CountryHandler {
	return &CountryHandler{service: service}
}

// CountryRequest represents the body of PUT /countries/:id.
type CountryRequest struct {
	ISO3       *string `json:"iso3" binding:"omitempty,len=3,alpha"`
	CurrencyID *int64  `json:"currency_id" binding:"omitempty,gt=0"`
	Timezone   *string `json:"timezone" binding:"omitempty,max=255"`
	Active     *bool   `json:"active"`
	Name       string  `json:"name" binding:"required,max=255"`
	ISO2       string  `json:"iso2" binding:"required,len=2,alpha"`
}

// SyncResponse is the body of an accepted sync request.
type SyncResponse struct {
	Message string `json:"message"`
	JobID   string `json:"job_id"`
}

// List handles GET /api/v1/countries.
func (h *CountryHandler) List(c *gin.Context) {
	params, ok := bindList(c)
	if !ok {
		return
	}

	page, err := h.service.List(c.Request.Context(), params)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to list countries", err)
		return
	}

	c.JSON(http.StatusOK, newListResponse(page, identity[models.Country]))
}

// Get handles GET /api/v1/countries/:id.
func (h *CountryHandler) Get(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	country, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "Failed to load country")
		return
	}

	c.JSON(http.StatusOK, DataResponse[*models.Country]{Data: country})
}

// Update handles PUT /api/v1/countries/:id.
func (h *CountryHandler) Update(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var req CountryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid request body")
		return
	}

	country, err := h.service.Update(c.Request.Context(), id, services.CountryInput{
		Name:       req.Name,
		ISO2:       req.ISO2,
		ISO3:       req.ISO3,
		CurrencyID: req.CurrencyID,
		Timezone:   req.Timezone,
		Active:     req.Active,
	})
	if err != nil {
		h.writeError(c, err, "Failed to update country")
		return
	}

	c.JSON(http.StatusOK, DataResponse[*models.Country]{Data: country})
}

// Sync handles POST /api/v1/countries/sync. The import runs in the
// background; the response only confirms it was queued.
func (h *CountryHandler) Sync(c *gin.Context) {
	jobID, err := h.service.Sync(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrSyncUnavailable) {
			apierrors.ServiceUnavailable(c, "Sync is temporarily unavailable, try again later")
			return
		}
		apierrors.InternalServerError(c, "Failed to start sync", err)
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Country sync requested", map[string]interface{}{"job_id": jobID})
	}

	c.JSON(http.StatusAccepted, SyncResponse{Message: SyncStartedMessage, JobID: jobID})
}

func (h *CountryHandler) writeError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, services.ErrCountryNotFound):
		apierrors.NotFound(c, "Country not found")
	case errors.Is(err, services.ErrCurrencyNotFound):
		apierrors.BadRequest(c, "Currency does not exist", map[string]interface{}{"currency_id": "unknown currency"})
	case errors.Is(err, services.ErrDuplicateCountry):
		apierrors.Conflict(c, err.Error())
	default:
		apierrors.InternalServerError(c, message, err)
	}
}
