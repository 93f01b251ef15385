package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/laundry/api/internal/errors"
	"github.com/stwalsh4118/laundry/api/internal/models"
	"github.com/stwalsh4118/laundry/api/internal/services"
)

// PincodeHandler handles pincode-related HTTP requests.
type PincodeHandler struct {
	service services.PincodeService
}

// NewPincodeHandler creates a new PincodeHandler instance.
func NewPincodeHandler(service services.PincodeService) *PincodeHandler {
	return &PincodeHandler{service: service}
}

// PincodeRequest represents the body of POST and PUT /pincodes.
type PincodeRequest struct {
	City      *string        `json:"city" binding:"omitempty,max=255"`
	State     *string        `json:"state" binding:"omitempty,max=255"`
	Latitude  *float64       `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude *float64       `json:"longitude" binding:"omitempty,min=-180,max=180"`
	Active    *bool          `json:"active"`
	Meta      models.JSONMap `json:"meta"`
	Pincode   string         `json:"pincode" binding:"required,max=64"`
	CountryID int64          `json:"country_id" binding:"required,gt=0"`
}

func (r PincodeRequest) input() services.PincodeInput {
	return services.PincodeInput{
		Pincode:   r.Pincode,
		CountryID: r.CountryID,
		City:      r.City,
		State:     r.State,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Active:    r.Active,
		Meta:      r.Meta,
	}
}

// List handles GET /api/v1/pincodes.
func (h *PincodeHandler) List(c *gin.Context) {
	params, ok := bindList(c)
	if !ok {
		return
	}

	page, err := h.service.List(c.Request.Context(), params)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to list pincodes", err)
		return
	}

	c.JSON(http.StatusOK, newListResponse(page, identity[models.Pincode]))
}

// Get handles GET /api/v1/pincodes/:id.
func (h *PincodeHandler) Get(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	pincode, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "Failed to load pincode")
		return
	}

	c.JSON(http.StatusOK, DataResponse[*models.Pincode]{Data: pincode})
}

// Create handles POST /api/v1/pincodes.
func (h *PincodeHandler) Create(c *gin.Context) {
	var req PincodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid request body")
		return
	}

	pincode, err := h.service.Create(c.Request.Context(), req.input())
	if err != nil {
		h.writeError(c, err, "Failed to create pincode")
		return
	}

	c.JSON(http.StatusCreated, DataResponse[*models.Pincode]{Data: pincode})
}

// Update handles PUT /api/v1/pincodes/:id.
func (h *PincodeHandler) Update(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var req PincodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid request body")
		return
	}

	pincode, err := h.service.Update(c.Request.Context(), id, req.input())
	if err != nil {
		h.writeError(c, err, "Failed to update pincode")
		return
	}

	c.JSON(http.StatusOK, DataResponse[*models.Pincode]{Data: pincode})
}

// Delete handles DELETE /api/v1/pincodes/:id.
func (h *PincodeHandler) Delete(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err, "Failed to delete pincode")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *PincodeHandler) writeError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, services.ErrPincodeNotFound):
		apierrors.NotFound(c, "Pincode not found")
	case errors.Is(err, services.ErrDuplicatePincode):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrCountryNotFound):
		apierrors.BadRequest(c, "Country does not exist", map[string]interface{}{"country_id": "unknown country"})
	case errors.Is(err, services.ErrInvalidCoordinates):
		apierrors.BadRequest(c, err.Error(), nil)
	default:
		apierrors.InternalServerError(c, message, err)
	}
}
