package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stwalsh4118/laundry/api/internal/logger"
	"github.com/stwalsh4118/laundry/api/internal/metrics"
	"github.com/stwalsh4118/laundry/api/internal/repository"
)

// CountryImporter fetches the country list and upserts currencies and
// countries in a single transaction.
type CountryImporter struct {
	fetcher *CountryFetcher
	repo    repository.ImportRepository
	metrics *metrics.ImportMetrics
	log     *logger.Logger
}

// NewCountryImporter creates a new CountryImporter.
func NewCountryImporter(fetcher *CountryFetcher, repo repository.ImportRepository, m *metrics.ImportMetrics, log *logger.Logger) *CountryImporter {
	return &CountryImporter{
		fetcher: fetcher,
		repo:    repo,
		metrics: m,
		log:     log.WithComponent("importer.countries"),
	}
}

// Run performs one import. Nothing is written unless a payload was fetched.
// Unusable records are skipped and counted; any write error rolls back the
// whole run.
func (imp *CountryImporter) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{Source: SourceCountries}
	imp.log.Info("Country import started", nil)

	err := imp.run(ctx, &summary)
	summary.Duration = time.Since(start)

	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusFailure
		imp.log.Error("Country import failed", err, summary.Fields())
	} else {
		imp.log.Info("Country import finished", summary.Fields())
	}
	imp.metrics.ObserveRun(SourceCountries, status, summary.Duration)
	imp.metrics.AddRows(SourceCountries, metrics.OutcomeSkipped, summary.Skipped)
	imp.metrics.AddRows(SourceCountries, metrics.OutcomeImported, summary.Imported)

	return summary, err
}

func (imp *CountryImporter) run(ctx context.Context, summary *Summary) error {
	payload, _, err := imp.fetcher.Fetch(ctx)
	if err != nil {
		return err
	}
	summary.Endpoint = payload.Source.Adapter.Name()
	summary.Fetched = len(payload.Records)
	summary.Pages = 1

	adapter := payload.Source.Adapter
	imported, skipped := 0, 0

	err = imp.repo.InTx(ctx, func(tx repository.ImportRepository) error {
		imported, skipped = 0, 0
		for i, raw := range payload.Records {
			row, err := adapter.Normalize(raw)
			if err != nil {
				if errors.Is(err, ErrUnusableRecord) {
					skipped++
					imp.log.Debug("Skipping country record", logger.Fields{"index": i, "reason": err.Error()})
					continue
				}
				return err
			}

			// The currency row must exist before the country can reference it.
			var currencyID *int64
			if row.Currency != nil {
				id, err := tx.UpsertCurrency(ctx, *row.Currency)
				if err != nil {
					return err
				}
				currencyID = &id
			}

			if _, err := tx.UpsertCountry(ctx, row, currencyID); err != nil {
				return err
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("country import rolled back: %w", err)
	}

	summary.Imported = imported
	summary.Skipped = skipped
	return nil
}
