package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/laundry/api/internal/errors"
	"github.com/stwalsh4118/laundry/api/internal/models"
	"github.com/stwalsh4118/laundry/api/internal/services"
)

// ZoneHandler handles delivery zone HTTP requests.
type ZoneHandler struct {
	service services.ZoneService
	now     func() time.Time
}

// NewZoneHandler creates a new ZoneHandler instance.
func NewZoneHandler(service services.ZoneService) *ZoneHandler {
	return &ZoneHandler{service: service, now: time.Now}
}

// ZoneRequest represents the body of POST and PUT /zones.
type ZoneRequest struct {
	CountryID     *int64         `json:"country_id" binding:"omitempty,gt=0"`
	Lat           *float64       `json:"lat" binding:"omitempty,min=-90,max=90"`
	Lng           *float64       `json:"lng" binding:"omitempty,min=-180,max=180"`
	RadiusKM      *float64       `json:"radius_km" binding:"omitempty,min=0"`
	Active        *bool          `json:"active"`
	LaunchDate    *time.Time     `json:"launch_date"`
	CapacityLimit *int32         `json:"capacity_limit" binding:"omitempty,min=0"`
	Meta          models.JSONMap `json:"meta"`
	Name          string         `json:"name" binding:"required,max=255"`
	Code          string         `json:"code" binding:"omitempty,max=50"`
}

// AssignPincodesRequest represents the body of PUT /zones/:id/pincodes.
// An empty list clears the zone.
type AssignPincodesRequest struct {
	PincodeIDs []int64 `json:"pincode_ids" binding:"required,dive,gt=0"`
}

// ZoneData is a zone as returned by the API.
type ZoneData struct {
	models.Zone
	Launched bool `json:"launched"`
}

func (r ZoneRequest) input() services.ZoneInput {
	return services.ZoneInput{
		Name:          r.Name,
		Code:          r.Code,
		CountryID:     r.CountryID,
		Lat:           r.Lat,
		Lng:           r.Lng,
		RadiusKM:      r.RadiusKM,
		Active:        r.Active,
		LaunchDate:    r.LaunchDate,
		CapacityLimit: r.CapacityLimit,
		Meta:          r.Meta,
	}
}

func (h *ZoneHandler) toData(zone models.Zone) ZoneData {
	return ZoneData{Zone: zone, Launched: zone.IsLaunched(h.now())}
}

func (h *ZoneHandler) respond(c *gin.Context, status int, zone *models.Zone) {
	c.JSON(status, DataResponse[ZoneData]{Data: h.toData(*zone)})
}

// List handles GET /api/v1/zones.
func (h *ZoneHandler) List(c *gin.Context) {
	params, ok := bindList(c)
	if !ok {
		return
	}

	page, err := h.service.List(c.Request.Context(), params)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to list zones", err)
		return
	}

	c.JSON(http.StatusOK, newListResponse(page, h.toData))
}

// Get handles GET /api/v1/zones/:id.
func (h *ZoneHandler) Get(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	zone, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "Failed to load zone")
		return
	}

	h.respond(c, http.StatusOK, zone)
}

// Create handles POST /api/v1/zones.
func (h *ZoneHandler) Create(c *gin.Context) {
	var req ZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid request body")
		return
	}

	zone, err := h.service.Create(c.Request.Context(), req.input())
	if err != nil {
		h.writeError(c, err, "Failed to create zone")
		return
	}

	h.respond(c, http.StatusCreated, zone)
}

// Update handles PUT /api/v1/zones/:id.
func (h *ZoneHandler) Update(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var req ZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid request body")
		return
	}

	zone, err := h.service.Update(c.Request.Context(), id, req.input())
	if err != nil {
		h.writeError(c, err, "Failed to update zone")
		return
	}

	h.respond(c, http.StatusOK, zone)
}

// Delete handles DELETE /api/v1/zones/:id. Zones are soft-deleted.
func (h *ZoneHandler) Delete(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err, "Failed to delete zone")
		return
	}

	c.Status(http.StatusNoContent)
}

// Toggle handles POST /api/v1/zones/:id/toggle.
func (h *ZoneHandler) Toggle(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	zone, err := h.service.ToggleActive(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "Failed to toggle zone")
		return
	}

	h.respond(c, http.StatusOK, zone)
}

// AssignPincodes handles PUT /api/v1/zones/:id/pincodes.
func (h *ZoneHandler) AssignPincodes(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var req AssignPincodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid request body")
		return
	}

	zone, err := h.service.AssignPincodes(c.Request.Context(), id, req.PincodeIDs)
	if err != nil {
		h.writeError(c, err, "Failed to assign pincodes")
		return
	}

	h.respond(c, http.StatusOK, zone)
}

func (h *ZoneHandler) writeError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, services.ErrZoneNotFound):
		apierrors.NotFound(c, "Zone not found")
	case errors.Is(err, services.ErrDuplicateZoneCode):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrCountryNotFound):
		apierrors.BadRequest(c, "Country does not exist", map[string]interface{}{"country_id": "unknown country"})
	case errors.Is(err, services.ErrPincodeNotFound):
		apierrors.BadRequest(c, "One or more pincodes do not exist", map[string]interface{}{"pincode_ids": "unknown pincode"})
	case errors.Is(err, services.ErrInvalidCoordinates):
		apierrors.BadRequest(c, err.Error(), nil)
	case errors.Is(err, services.ErrInvalidZoneCode):
		apierrors.BadRequest(c, services.ErrInvalidZoneCode.Error(), map[string]interface{}{"code": "derive from a name with letters or digits, or pass one"})
	default:
		apierrors.InternalServerError(c, message, err)
	}
}
