package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/laundry/api/internal/database"
	"github.com/stwalsh4118/laundry/api/internal/models"
)

// CountryUpdate holds the admin-editable country columns.
type CountryUpdate struct {
	ISO3       *string
	CurrencyID *int64
	Timezone   *string
	Active     *bool
	Name       string
	ISO2       string
}

// CountryRepository defines the interface for country data access operations.
type CountryRepository interface {
	// List returns one page of countries ordered by name, with their currency,
	// and the total number of matches. Query matches name, iso2 or iso3.
	List(ctx context.Context, params ListParams) ([]models.Country, int64, error)

	// FindByID returns nil, nil if the country does not exist.
	FindByID(ctx context.Context, id int64) (*models.Country, error)

	// Update returns nil, nil if the country does not exist.
	Update(ctx context.Context, id int64, in CountryUpdate) (*models.Country, error)
}

type countryRepository struct {
	db *database.Database
}

// NewCountryRepository creates a new instance of CountryRepository.
func NewCountryRepository(db *database.Database) CountryRepository {
	return &countryRepository{db: db}
}

const countryColumns = `
	c.id, c.name, c.iso2, c.iso3, c.currency_id, c.timezone, c.locale, c.tax_rules,
	c.active, c.meta, c.created_at, c.updated_at,
	cur.id, cur.code, cur.name, cur.symbol`

const countrySearch = `($1 = '' OR c.name ILIKE $2 OR c.iso2 ILIKE $2 OR c.iso3 ILIKE $2)`

func (r *countryRepository) List(ctx context.Context, params ListParams) ([]models.Country, int64, error) {
	params = params.Normalize()
	pattern := likePattern(params.Query)

	var total int64
	countQuery := `SELECT COUNT(*) FROM countries c WHERE ` + countrySearch
	if err := r.db.Pool.QueryRow(ctx, countQuery, params.Query, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count countries: %w", err)
	}

	query := `
		SELECT ` + countryColumns + `
		FROM countries c
		LEFT JOIN currencies cur ON cur.id = c.currency_id
		WHERE ` + countrySearch + `
		ORDER BY c.name, c.id
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Pool.Query(ctx, query, params.Query, pattern, params.PerPage, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list countries: %w", err)
	}
	defer rows.Close()

	countries := []models.Country{}
	for rows.Next() {
		country, err := scanCountry(rows)
		if err != nil {
			return nil, 0, err
		}
		countries = append(countries, *country)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating country rows: %w", err)
	}

	return countries, total, nil
}

func (r *countryRepository) FindByID(ctx context.Context, id int64) (*models.Country, error) {
	query := `
		SELECT ` + countryColumns + `
		FROM countries c
		LEFT JOIN currencies cur ON cur.id = c.currency_id
		WHERE c.id = $1
	`

	country, err := scanCountry(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return country, nil
}

func (r *countryRepository) Update(ctx context.Context, id int64, in CountryUpdate) (*models.Country, error) {
	query := `
		UPDATE countries SET
			name = $2,
			iso2 = UPPER($3),
			iso3 = UPPER($4),
			currency_id = $5,
			timezone = $6,
			active = COALESCE($7, active),
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, id, in.Name, in.ISO2, in.ISO3, in.CurrencyID, in.Timezone, in.Active)
	if err != nil {
		return nil, translateError(fmt.Sprintf("update country %d", id), err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

func scanCountry(row pgx.Row) (*models.Country, error) {
	var (
		c         models.Country
		curID     *int64
		curCode   *string
		curName   *string
		curSymbol *string
	)

	err := row.Scan(
		&c.ID, &c.Name, &c.ISO2, &c.ISO3, &c.CurrencyID, &c.Timezone, &c.Locale, &c.TaxRules,
		&c.Active, &c.Meta, &c.CreatedAt, &c.UpdatedAt,
		&curID, &curCode, &curName, &curSymbol,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan country row: %w", err)
	}

	if curID != nil {
		c.Currency = &models.CurrencySummary{
			ID:     *curID,
			Code:   deref(curCode),
			Name:   deref(curName),
			Symbol: curSymbol,
		}
	}
	return &c, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
