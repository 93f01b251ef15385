package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/stwalsh4118/laundry/api/internal/logger"
	"github.com/stwalsh4118/laundry/api/internal/models"
	"github.com/stwalsh4118/laundry/api/internal/repository"
)

const maxZoneCodeLength = 50

// ZoneInput holds the admin-editable zone fields. An empty Code is derived
// from Name. Active defaults to true when nil.
type ZoneInput struct {
	CountryID     *int64
	Lat           *float64
	Lng           *float64
	RadiusKM      *float64
	Active        *bool
	LaunchDate    *time.Time
	CapacityLimit *int32
	Meta          models.JSONMap
	Name          string
	Code          string
}

// ZoneService defines the interface for delivery zone operations.
type ZoneService interface {
	List(ctx context.Context, params repository.ListParams) (Page[models.Zone], error)

	// Get returns ErrZoneNotFound if the zone does not exist.
	Get(ctx context.Context, id int64) (*models.Zone, error)

	// Create returns ErrInvalidCoordinates, ErrInvalidZoneCode, ErrCountryNotFound
	// or ErrDuplicateZoneCode.
	Create(ctx context.Context, in ZoneInput) (*models.Zone, error)

	Update(ctx context.Context, id int64, in ZoneInput) (*models.Zone, error)
	Delete(ctx context.Context, id int64) error
	ToggleActive(ctx context.Context, id int64) (*models.Zone, error)

	// AssignPincodes replaces the zone's pincodes and returns the updated zone.
	// Returns ErrPincodeNotFound if any id is unknown.
	AssignPincodes(ctx context.Context, id int64, pincodeIDs []int64) (*models.Zone, error)
}

type zoneService struct {
	repo repository.ZoneRepository
	log  *logger.Logger
}

// NewZoneService creates a new instance of ZoneService.
func NewZoneService(repo repository.ZoneRepository, log *logger.Logger) ZoneService {
	return &zoneService{repo: repo, log: log}
}

// ZoneCode normalizes an explicit code, or derives one from name when code
// is blank: "South Delhi" becomes "SOUTH-DELHI".
func ZoneCode(name, code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		code = slug.Make(name)
	}
	code = strings.ToUpper(code)
	if len(code) > maxZoneCodeLength {
		code = strings.TrimRight(code[:maxZoneCodeLength], "-")
	}
	return code
}

func (s *zoneService) List(ctx context.Context, params repository.ListParams) (Page[models.Zone], error) {
	params = params.Normalize()
	zones, total, err := s.repo.List(ctx, params)
	if err != nil {
		s.log.Error("Failed to list zones", err, map[string]interface{}{"q": params.Query, "page": params.Page})
		return Page[models.Zone]{}, fmt.Errorf("failed to list zones: %w", err)
	}
	return newPage(zones, total, params), nil
}

func (s *zoneService) Get(ctx context.Context, id int64) (*models.Zone, error) {
	zone, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get zone: %w", err)
	}
	if zone == nil {
		return nil, ErrZoneNotFound
	}
	return zone, nil
}

func (s *zoneService) Create(ctx context.Context, in ZoneInput) (*models.Zone, error) {
	input, err := toZoneInput(in)
	if err != nil {
		return nil, err
	}

	zone, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, s.mapWriteError("create", err, input)
	}

	s.log.Info("Zone created", map[string]interface{}{"zone_id": zone.ID, "code": zone.Code})
	return zone, nil
}

func (s *zoneService) Update(ctx context.Context, id int64, in ZoneInput) (*models.Zone, error) {
	input, err := toZoneInput(in)
	if err != nil {
		return nil, err
	}

	zone, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return nil, s.mapWriteError("update", err, input)
	}
	if zone == nil {
		return nil, ErrZoneNotFound
	}

	s.log.Info("Zone updated", map[string]interface{}{"zone_id": id, "code": zone.Code})
	return zone, nil
}

func (s *zoneService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		s.log.Error("Failed to delete zone", err, map[string]interface{}{"zone_id": id})
		return fmt.Errorf("failed to delete zone: %w", err)
	}
	if !deleted {
		return ErrZoneNotFound
	}

	s.log.Info("Zone deleted", map[string]interface{}{"zone_id": id})
	return nil
}

func (s *zoneService) ToggleActive(ctx context.Context, id int64) (*models.Zone, error) {
	zone, err := s.repo.ToggleActive(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle zone: %w", err)
	}
	if zone == nil {
		return nil, ErrZoneNotFound
	}

	s.log.Info("Zone toggled", map[string]interface{}{"zone_id": id, "active": zone.Active})
	return zone, nil
}

func (s *zoneService) AssignPincodes(ctx context.Context, id int64, pincodeIDs []int64) (*models.Zone, error) {
	found, err := s.repo.ReplacePincodes(ctx, id, uniqueIDs(pincodeIDs))
	if err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, ErrPincodeNotFound
		}
		s.log.Error("Failed to assign pincodes", err, map[string]interface{}{"zone_id": id})
		return nil, fmt.Errorf("failed to assign pincodes: %w", err)
	}
	if !found {
		return nil, ErrZoneNotFound
	}

	s.log.Info("Zone pincodes replaced", map[string]interface{}{"zone_id": id, "count": len(pincodeIDs)})
	return s.Get(ctx, id)
}

func (s *zoneService) mapWriteError(op string, err error, in repository.ZoneInput) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %s", ErrDuplicateZoneCode, in.Code)
	case errors.Is(err, repository.ErrForeignKey):
		return ErrCountryNotFound
	}
	s.log.Error("Failed to "+op+" zone", err, map[string]interface{}{"code": in.Code})
	return fmt.Errorf("failed to %s zone: %w", op, err)
}

func toZoneInput(in ZoneInput) (repository.ZoneInput, error) {
	if in.Lat != nil && (*in.Lat < -90 || *in.Lat > 90) {
		return repository.ZoneInput{}, fmt.Errorf("%w: lat %v out of range", ErrInvalidCoordinates, *in.Lat)
	}
	if in.Lng != nil && (*in.Lng < -180 || *in.Lng > 180) {
		return repository.ZoneInput{}, fmt.Errorf("%w: lng %v out of range", ErrInvalidCoordinates, *in.Lng)
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}

	name := strings.TrimSpace(in.Name)
	code := ZoneCode(name, in.Code)
	if strings.Trim(code, "-") == "" {
		return repository.ZoneInput{}, fmt.Errorf("%w: name %q, code %q", ErrInvalidZoneCode, name, in.Code)
	}

	return repository.ZoneInput{
		Name:          name,
		Code:          code,
		CountryID:     in.CountryID,
		Lat:           in.Lat,
		Lng:           in.Lng,
		RadiusKM:      in.RadiusKM,
		LaunchDate:    in.LaunchDate,
		CapacityLimit: in.CapacityLimit,
		Meta:          in.Meta,
		Active:        active,
	}, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
