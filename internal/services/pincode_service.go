package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stwalsh4118/laundry/api/internal/logger"
	"github.com/stwalsh4118/laundry/api/internal/models"
	"github.com/stwalsh4118/laundry/api/internal/repository"
)

// PincodeInput holds the admin-editable pincode fields. Active defaults to
// true when nil.
type PincodeInput struct {
	City      *string
	State     *string
	Latitude  *float64
	Longitude *float64
	Active    *bool
	Meta      models.JSONMap
	Pincode   string
	CountryID int64
}

// PincodeService defines the interface for admin pincode operations.
type PincodeService interface {
	List(ctx context.Context, params repository.ListParams) (Page[models.Pincode], error)

	// Get returns ErrPincodeNotFound if the pincode does not exist.
	Get(ctx context.Context, id int64) (*models.Pincode, error)

	// Create returns ErrInvalidCoordinates, ErrCountryNotFound or ErrDuplicatePincode.
	Create(ctx context.Context, in PincodeInput) (*models.Pincode, error)

	// Update returns the same errors as Create plus ErrPincodeNotFound.
	Update(ctx context.Context, id int64, in PincodeInput) (*models.Pincode, error)

	Delete(ctx context.Context, id int64) error
}

type pincodeService struct {
	repo repository.PincodeRepository
	log  *logger.Logger
}

// NewPincodeService creates a new instance of PincodeService.
func NewPincodeService(repo repository.PincodeRepository, log *logger.Logger) PincodeService {
	return &pincodeService{repo: repo, log: log}
}

func (s *pincodeService) List(ctx context.Context, params repository.ListParams) (Page[models.Pincode], error) {
	params = params.Normalize()
	pincodes, total, err := s.repo.List(ctx, params)
	if err != nil {
		s.log.Error("Failed to list pincodes", err, map[string]interface{}{"q": params.Query, "page": params.Page})
		return Page[models.Pincode]{}, fmt.Errorf("failed to list pincodes: %w", err)
	}
	return newPage(pincodes, total, params), nil
}

func (s *pincodeService) Get(ctx context.Context, id int64) (*models.Pincode, error) {
	pincode, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get pincode: %w", err)
	}
	if pincode == nil {
		return nil, ErrPincodeNotFound
	}
	return pincode, nil
}

func (s *pincodeService) Create(ctx context.Context, in PincodeInput) (*models.Pincode, error) {
	input, err := toPincodeInput(in)
	if err != nil {
		return nil, err
	}

	pincode, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, s.mapWriteError("create", err, input)
	}

	s.log.Info("Pincode created", map[string]interface{}{"pincode_id": pincode.ID, "pincode": pincode.Pincode})
	return pincode, nil
}

func (s *pincodeService) Update(ctx context.Context, id int64, in PincodeInput) (*models.Pincode, error) {
	input, err := toPincodeInput(in)
	if err != nil {
		return nil, err
	}

	pincode, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return nil, s.mapWriteError("update", err, input)
	}
	if pincode == nil {
		return nil, ErrPincodeNotFound
	}

	s.log.Info("Pincode updated", map[string]interface{}{"pincode_id": id})
	return pincode, nil
}

func (s *pincodeService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.log.Error("Failed to delete pincode", err, map[string]interface{}{"pincode_id": id})
		return fmt.Errorf("failed to delete pincode: %w", err)
	}
	if !deleted {
		return ErrPincodeNotFound
	}

	s.log.Info("Pincode deleted", map[string]interface{}{"pincode_id": id})
	return nil
}

func (s *pincodeService) mapWriteError(op string, err error, in repository.PincodeInput) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return ErrDuplicatePincode
	case errors.Is(err, repository.ErrForeignKey):
		return fmt.Errorf("%w: id %d", ErrCountryNotFound, in.CountryID)
	}
	s.log.Error("Failed to "+op+" pincode", err, map[string]interface{}{
		"pincode":    in.Pincode,
		"country_id": in.CountryID,
	})
	return fmt.Errorf("failed to %s pincode: %w", op, err)
}

func toPincodeInput(in PincodeInput) (repository.PincodeInput, error) {
	if in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90) {
		return repository.PincodeInput{}, fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinates, *in.Latitude)
	}
	if in.Longitude != nil && (*in.Longitude < -180 || *in.Longitude > 180) {
		return repository.PincodeInput{}, fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinates, *in.Longitude)
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}

	return repository.PincodeInput{
		Pincode:   strings.TrimSpace(in.Pincode),
		CountryID: in.CountryID,
		City:      trimPtr(in.City),
		State:     trimPtr(in.State),
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Meta:      in.Meta,
		Active:    active,
	}, nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
