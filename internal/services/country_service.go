package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stwalsh4118/laundry/api/internal/jobs"
	"github.com/stwalsh4118/laundry/api/internal/logger"
	"github.com/stwalsh4118/laundry/api/internal/models"
	"github.com/stwalsh4118/laundry/api/internal/repository"
)

// Enqueuer schedules background jobs.
type Enqueuer interface {
	Enqueue(job jobs.Job) (string, error)
}

// CountryInput holds the editable country fields.
type CountryInput struct {
	ISO3       *string
	CurrencyID *int64
	Timezone   *string
	Active     *bool
	Name       string
	ISO2       string
}

// CountryService defines the interface for country business logic operations.
type CountryService interface {
	// List returns one page of countries matching params.
	List(ctx context.Context, params repository.ListParams) (Page[models.Country], error)

	// Get returns ErrCountryNotFound if the country does not exist.
	Get(ctx context.Context, id int64) (*models.Country, error)

	// Update returns ErrCountryNotFound, ErrCurrencyNotFound or ErrDuplicateCountry.
	Update(ctx context.Context, id int64, in CountryInput) (*models.Country, error)

	// Sync schedules a background country import and returns its job id.
	// Returns ErrSyncUnavailable when no queue is configured or it is full.
	Sync(ctx context.Context) (string, error)
}

type countryService struct {
	repo       repository.CountryRepository
	currencies repository.CurrencyRepository
	queue      Enqueuer
	syncJob    jobs.Job
	log        *logger.Logger
}

// NewCountryService creates a new instance of CountryService. queue and
// syncJob may be nil, in which case Sync is unavailable.
func NewCountryService(repo repository.CountryRepository, currencies repository.CurrencyRepository, queue Enqueuer, syncJob jobs.Job, log *logger.Logger) CountryService {
	return &countryService{
		repo:       repo,
		currencies: currencies,
		queue:      queue,
		syncJob:    syncJob,
		log:        log,
	}
}

func (s *countryService) List(ctx context.Context, params repository.ListParams) (Page[models.Country], error) {
	params = params.Normalize()
	countries, total, err := s.repo.List(ctx, params)
	if err != nil {
		s.log.Error("Failed to list countries", err, map[string]interface{}{"q": params.Query, "page": params.Page})
		return Page[models.Country]{}, fmt.Errorf("failed to list countries: %w", err)
	}
	return newPage(countries, total, params), nil
}

func (s *countryService) Get(ctx context.Context, id int64) (*models.Country, error) {
	country, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get country: %w", err)
	}
	if country == nil {
		return nil, ErrCountryNotFound
	}
	return country, nil
}

func (s *countryService) Update(ctx context.Context, id int64, in CountryInput) (*models.Country, error) {
	if in.CurrencyID != nil {
		exists, err := s.currencies.Exists(ctx, *in.CurrencyID)
		if err != nil {
			return nil, fmt.Errorf("failed to check currency: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: id %d", ErrCurrencyNotFound, *in.CurrencyID)
		}
	}

	update := repository.CountryUpdate{
		Name:       strings.TrimSpace(in.Name),
		ISO2:       strings.ToUpper(strings.TrimSpace(in.ISO2)),
		ISO3:       upperPtr(in.ISO3),
		CurrencyID: in.CurrencyID,
		Timezone:   in.Timezone,
		Active:     in.Active,
	}

	country, err := s.repo.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateCountry
		}
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, ErrCurrencyNotFound
		}
		s.log.Error("Failed to update country", err, map[string]interface{}{"country_id": id})
		return nil, fmt.Errorf("failed to update country: %w", err)
	}
	if country == nil {
		return nil, ErrCountryNotFound
	}

	s.log.Info("Country updated", map[string]interface{}{"country_id": id, "iso2": country.ISO2})
	return country, nil
}

func (s *countryService) Sync(ctx context.Context) (string, error) {
	if s.queue == nil || s.syncJob == nil {
		return "", fmt.Errorf("%w: no job queue configured", ErrSyncUnavailable)
	}

	id, err := s.queue.Enqueue(s.syncJob)
	if err != nil {
		if errors.Is(err, jobs.ErrQueueFull) {
			s.log.Warn("Country sync rejected, queue full", nil)
			return "", fmt.Errorf("%w: %v", ErrSyncUnavailable, err)
		}
		s.log.Error("Failed to enqueue country sync", err, nil)
		return "", fmt.Errorf("failed to enqueue country sync: %w", err)
	}

	s.log.Info("Country sync enqueued", map[string]interface{}{"job_id": id})
	return id, nil
}

func upperPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToUpper(strings.TrimSpace(*s))
	if v == "" {
		return nil
	}
	return &v
}
