package services

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/laundry/api/internal/logger"
	"github.com/stwalsh4118/laundry/api/internal/models"
	"github.com/stwalsh4118/laundry/api/internal/repository"
)

// CurrencyService lists currencies for admin pickers.
type CurrencyService interface {
	// ListActive returns active currencies ordered by code.
	ListActive(ctx context.Context) ([]models.Currency, error)
}

type currencyService struct {
	repo repository.CurrencyRepository
	log  *logger.Logger
}

// NewCurrencyService creates a new instance of CurrencyService.
func NewCurrencyService(repo repository.CurrencyRepository, log *logger.Logger) CurrencyService {
	return &currencyService{repo: repo, log: log}
}

func (s *currencyService) ListActive(ctx context.Context) ([]models.Currency, error) {
	currencies, err := s.repo.ListActive(ctx)
	if err != nil {
		s.log.Error("Failed to list currencies", err, nil)
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	return currencies, nil
}
