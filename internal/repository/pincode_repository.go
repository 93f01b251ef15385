package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/laundry/api/internal/database"
	"github.com/stwalsh4118/laundry/api/internal/models"
)

// PincodeInput holds the admin-editable pincode columns.
type PincodeInput struct {
	City      *string
	State     *string
	Latitude  *float64
	Longitude *float64
	Meta      models.JSONMap
	Pincode   string
	CountryID int64
	Active    bool
}

// PincodeRepository defines the interface for admin pincode operations.
type PincodeRepository interface {
	// List returns one page of pincodes ordered by pincode, with their country,
	// and the total number of matches. Query matches pincode, city or state.
	List(ctx context.Context, params ListParams) ([]models.Pincode, int64, error)

	// FindByID returns nil, nil if the pincode does not exist.
	FindByID(ctx context.Context, id int64) (*models.Pincode, error)

	// Create returns ErrDuplicate when (pincode, country_id) is taken and
	// ErrForeignKey when the country does not exist.
	Create(ctx context.Context, in PincodeInput) (*models.Pincode, error)

	// Update returns nil, nil if the pincode does not exist.
	Update(ctx context.Context, id int64, in PincodeInput) (*models.Pincode, error)

	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id int64) (bool, error)
}

type pincodeRepository struct {
	db *database.Database
}

// NewPincodeRepository creates a new instance of PincodeRepository.
func NewPincodeRepository(db *database.Database) PincodeRepository {
	return &pincodeRepository{db: db}
}

const pincodeColumns = `
	p.id, p.pincode, p.city, p.state, p.country_id, p.latitude, p.longitude,
	p.active, p.meta, p.created_at, p.updated_at,
	c.id, c.name, c.iso2`

const pincodeSearch = `($1 = '' OR p.pincode ILIKE $2 OR p.city ILIKE $2 OR p.state ILIKE $2)`

func (r *pincodeRepository) List(ctx context.Context, params ListParams) ([]models.Pincode, int64, error) {
	params = params.Normalize()
	pattern := likePattern(params.Query)

	var total int64
	countQuery := `SELECT COUNT(*) FROM pincodes p WHERE ` + pincodeSearch
	if err := r.db.Pool.QueryRow(ctx, countQuery, params.Query, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count pincodes: %w", err)
	}

	query := `
		SELECT ` + pincodeColumns + `
		FROM pincodes p
		JOIN countries c ON c.id = p.country_id
		WHERE ` + pincodeSearch + `
		ORDER BY p.pincode, p.id
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Pool.Query(ctx, query, params.Query, pattern, params.PerPage, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list pincodes: %w", err)
	}
	defer rows.Close()

	pincodes := []models.Pincode{}
	for rows.Next() {
		p, err := scanPincode(rows)
		if err != nil {
			return nil, 0, err
		}
		pincodes = append(pincodes, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating pincode rows: %w", err)
	}

	return pincodes, total, nil
}

func (r *pincodeRepository) FindByID(ctx context.Context, id int64) (*models.Pincode, error) {
	query := `
		SELECT ` + pincodeColumns + `
		FROM pincodes p
		JOIN countries c ON c.id = p.country_id
		WHERE p.id = $1
	`

	p, err := scanPincode(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *pincodeRepository) Create(ctx context.Context, in PincodeInput) (*models.Pincode, error) {
	query := `
		INSERT INTO pincodes (pincode, city, state, country_id, latitude, longitude, active, meta, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id
	`

	var id int64
	err := r.db.Pool.QueryRow(ctx, query,
		in.Pincode, in.City, in.State, in.CountryID, in.Latitude, in.Longitude, in.Active, in.Meta,
	).Scan(&id)
	if err != nil {
		return nil, translateError("create pincode", err)
	}
	return r.FindByID(ctx, id)
}

func (r *pincodeRepository) Update(ctx context.Context, id int64, in PincodeInput) (*models.Pincode, error) {
	query := `
		UPDATE pincodes SET
			pincode = $2,
			city = $3,
			state = $4,
			country_id = $5,
			latitude = $6,
			longitude = $7,
			active = $8,
			meta = COALESCE($9, meta),
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		id, in.Pincode, in.City, in.State, in.CountryID, in.Latitude, in.Longitude, in.Active, in.Meta,
	)
	if err != nil {
		return nil, translateError(fmt.Sprintf("update pincode %d", id), err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

func (r *pincodeRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM pincodes WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete pincode %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanPincode(row pgx.Row) (*models.Pincode, error) {
	var (
		p       models.Pincode
		country models.CountrySummary
	)

	err := row.Scan(
		&p.ID, &p.Pincode, &p.City, &p.State, &p.CountryID, &p.Latitude, &p.Longitude,
		&p.Active, &p.Meta, &p.CreatedAt, &p.UpdatedAt,
		&country.ID, &country.Name, &country.ISO2,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan pincode row: %w", err)
	}

	p.Country = &country
	return &p, nil
}
