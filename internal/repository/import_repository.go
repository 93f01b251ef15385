package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/laundry/api/internal/database"
	"github.com/stwalsh4118/laundry/api/internal/models"
)

// ImportRepository persists canonical rows produced by the importers.
// Every write is an upsert keyed on the entity's natural key.
type ImportRepository interface {
	// UpsertCurrency inserts or updates a currency by code and returns its id.
	UpsertCurrency(ctx context.Context, row models.CurrencyRow) (int64, error)

	// UpsertCountry inserts or updates a country by iso2 and returns its id.
	UpsertCountry(ctx context.Context, row models.CountryRow, currencyID *int64) (int64, error)

	// FindCountryIDByISO2 looks a country up case-insensitively.
	// Returns nil, nil if the country does not exist.
	FindCountryIDByISO2(ctx context.Context, iso2 string) (*int64, error)

	// BulkUpsertPincodes writes all rows in one statement keyed on
	// (pincode, country_id). Rows must have distinct pincodes.
	BulkUpsertPincodes(ctx context.Context, countryID int64, rows []models.PincodeRow) (int64, error)

	// UpsertPincode writes a single row keyed on (pincode, country_id).
	UpsertPincode(ctx context.Context, countryID int64, row models.PincodeRow) error

	// InTx runs fn with a repository bound to one transaction.
	InTx(ctx context.Context, fn func(repo ImportRepository) error) error
}

type importRepository struct {
	q database.Querier
}

// NewImportRepository creates a new instance of ImportRepository.
func NewImportRepository(db *database.Database) ImportRepository {
	return &importRepository{q: db.Pool}
}

func (r *importRepository) UpsertCurrency(ctx context.Context, row models.CurrencyRow) (int64, error) {
	query := `
		INSERT INTO currencies (code, name, symbol, active, meta, created_at, updated_at)
		VALUES (UPPER($1), $2, $3, TRUE, $4, NOW(), NOW())
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			symbol = EXCLUDED.symbol,
			active = TRUE,
			meta = EXCLUDED.meta,
			updated_at = NOW()
		RETURNING id
	`

	var id int64
	if err := r.q.QueryRow(ctx, query, row.Code, row.Name, row.Symbol, row.Meta).Scan(&id); err != nil {
		return 0, translateError(fmt.Sprintf("upsert currency %s", row.Code), err)
	}
	return id, nil
}

func (r *importRepository) UpsertCountry(ctx context.Context, row models.CountryRow, currencyID *int64) (int64, error) {
	query := `
		INSERT INTO countries (name, iso2, iso3, currency_id, timezone, locale, meta, active, created_at, updated_at)
		VALUES ($1, UPPER($2), UPPER($3), $4, $5, $6, $7, TRUE, NOW(), NOW())
		ON CONFLICT (iso2) DO UPDATE SET
			name = EXCLUDED.name,
			iso3 = EXCLUDED.iso3,
			currency_id = EXCLUDED.currency_id,
			timezone = EXCLUDED.timezone,
			locale = EXCLUDED.locale,
			meta = EXCLUDED.meta,
			active = TRUE,
			updated_at = NOW()
		RETURNING id
	`

	var id int64
	err := r.q.QueryRow(ctx, query,
		row.Name, row.ISO2, row.ISO3, currencyID, row.Timezone, row.Locale, row.Meta,
	).Scan(&id)
	if err != nil {
		return 0, translateError(fmt.Sprintf("upsert country %s", row.ISO2), err)
	}
	return id, nil
}

func (r *importRepository) FindCountryIDByISO2(ctx context.Context, iso2 string) (*int64, error) {
	var id int64
	err := r.q.QueryRow(ctx, `SELECT id FROM countries WHERE UPPER(iso2) = UPPER($1) LIMIT 1`, iso2).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find country %s: %w", iso2, err)
	}
	return &id, nil
}

// pincodeUpdateColumns is shared by the bulk and single-row upserts so both
// paths overwrite the same mutable columns.
const pincodeUpdateColumns = `
		city = EXCLUDED.city,
		state = EXCLUDED.state,
		latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		active = EXCLUDED.active,
		meta = EXCLUDED.meta,
		updated_at = EXCLUDED.updated_at`

func (r *importRepository) BulkUpsertPincodes(ctx context.Context, countryID int64, rows []models.PincodeRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO pincodes (pincode, city, state, country_id, latitude, longitude, active, meta, created_at, updated_at)
		SELECT u.pincode, u.city, u.state, $1, u.latitude, u.longitude, TRUE, u.meta::jsonb, NOW(), NOW()
		FROM unnest($2::text[], $3::text[], $4::text[], $5::float8[], $6::float8[], $7::text[])
			AS u(pincode, city, state, latitude, longitude, meta)
		ON CONFLICT (pincode, country_id) DO UPDATE SET` + pincodeUpdateColumns

	pincodes := make([]string, len(rows))
	cities := make([]*string, len(rows))
	states := make([]*string, len(rows))
	lats := make([]*float64, len(rows))
	lngs := make([]*float64, len(rows))
	metas := make([]*string, len(rows))
	for i, row := range rows {
		pincodes[i] = row.Key()
		cities[i] = row.City
		states[i] = row.State
		lats[i] = row.Latitude
		lngs[i] = row.Longitude
		if row.Meta != nil {
			meta := row.Meta.String()
			metas[i] = &meta
		}
	}

	tag, err := r.q.Exec(ctx, query, countryID, pincodes, cities, states, lats, lngs, metas)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk upsert %d pincodes: %w", len(rows), err)
	}
	return tag.RowsAffected(), nil
}

func (r *importRepository) UpsertPincode(ctx context.Context, countryID int64, row models.PincodeRow) error {
	query := `
		INSERT INTO pincodes (pincode, city, state, country_id, latitude, longitude, active, meta, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, NOW(), NOW())
		ON CONFLICT (pincode, country_id) DO UPDATE SET` + pincodeUpdateColumns

	_, err := r.q.Exec(ctx, query,
		row.Key(), row.City, row.State, countryID, row.Latitude, row.Longitude, row.Meta,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert pincode %s: %w", row.Key(), err)
	}
	return nil
}

func (r *importRepository) InTx(ctx context.Context, fn func(repo ImportRepository) error) error {
	return database.InTx(ctx, r.q, func(tx pgx.Tx) error {
		return fn(&importRepository{q: tx})
	})
}
