package repository

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/laundry/api/internal/database"
	"github.com/stwalsh4118/laundry/api/internal/models"
)

// CurrencyRepository defines read access to currencies.
type CurrencyRepository interface {
	// ListActive returns active currencies ordered by code.
	ListActive(ctx context.Context) ([]models.Currency, error)

	// Exists reports whether a currency with id exists.
	Exists(ctx context.Context, id int64) (bool, error)
}

type currencyRepository struct {
	db *database.Database
}

// NewCurrencyRepository creates a new instance of CurrencyRepository.
func NewCurrencyRepository(db *database.Database) CurrencyRepository {
	return &currencyRepository{db: db}
}

func (r *currencyRepository) ListActive(ctx context.Context) ([]models.Currency, error) {
	query := `
		SELECT id, code, name, symbol, decimals, active, meta, created_at, updated_at
		FROM currencies
		WHERE active
		ORDER BY code
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	defer rows.Close()

	currencies := []models.Currency{}
	for rows.Next() {
		var c models.Currency
		if err := rows.Scan(
			&c.ID, &c.Code, &c.Name, &c.Symbol, &c.Decimals, &c.Active, &c.Meta, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan currency row: %w", err)
		}
		currencies = append(currencies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating currency rows: %w", err)
	}

	return currencies, nil
}

func (r *currencyRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM currencies WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check currency %d: %w", id, err)
	}
	return exists, nil
}
