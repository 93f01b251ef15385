package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/laundry/api/internal/database"
	"github.com/stwalsh4118/laundry/api/internal/models"
)

// ZoneInput holds the admin-editable zone columns.
type ZoneInput struct {
	CountryID     *int64
	Lat           *float64
	Lng           *float64
	RadiusKM      *float64
	LaunchDate    *time.Time
	CapacityLimit *int32
	Meta          models.JSONMap
	Name          string
	Code          string
	Active        bool
}

// ZoneRepository defines the interface for zone data access operations.
// Soft-deleted zones are invisible to every method.
type ZoneRepository interface {
	// List returns one page of zones ordered by name and the total number of
	// matches. Query matches name or code.
	List(ctx context.Context, params ListParams) ([]models.Zone, int64, error)

	// FindByID returns the zone with its pincode ids, or nil, nil.
	FindByID(ctx context.Context, id int64) (*models.Zone, error)

	// Create returns ErrDuplicate when the code is taken.
	Create(ctx context.Context, in ZoneInput) (*models.Zone, error)

	// Update returns nil, nil if the zone does not exist.
	Update(ctx context.Context, id int64, in ZoneInput) (*models.Zone, error)

	// SoftDelete reports whether a live zone was deleted.
	SoftDelete(ctx context.Context, id int64) (bool, error)

	// ToggleActive flips the active flag; nil, nil if the zone does not exist.
	ToggleActive(ctx context.Context, id int64) (*models.Zone, error)

	// ReplacePincodes sets the zone's pincodes to exactly pincodeIDs.
	// Reports false if the zone does not exist; ErrForeignKey for unknown pincodes.
	ReplacePincodes(ctx context.Context, id int64, pincodeIDs []int64) (bool, error)
}

type zoneRepository struct {
	db *database.Database
}

// NewZoneRepository creates a new instance of ZoneRepository.
func NewZoneRepository(db *database.Database) ZoneRepository {
	return &zoneRepository{db: db}
}

const zoneColumns = `
	z.id, z.name, z.code, z.country_id, z.lat, z.lng, z.radius_km, z.active,
	z.launch_date, z.capacity_limit, z.meta, z.created_at, z.updated_at`

const zoneSearch = `z.deleted_at IS NULL AND ($1 = '' OR z.name ILIKE $2 OR z.code ILIKE $2)`

func (r *zoneRepository) List(ctx context.Context, params ListParams) ([]models.Zone, int64, error) {
	params = params.Normalize()
	pattern := likePattern(params.Query)

	var total int64
	countQuery := `SELECT COUNT(*) FROM zones z WHERE ` + zoneSearch
	if err := r.db.Pool.QueryRow(ctx, countQuery, params.Query, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count zones: %w", err)
	}

	query := `
		SELECT ` + zoneColumns + `
		FROM zones z
		WHERE ` + zoneSearch + `
		ORDER BY z.name, z.id
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Pool.Query(ctx, query, params.Query, pattern, params.PerPage, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list zones: %w", err)
	}
	defer rows.Close()

	zones := []models.Zone{}
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, 0, err
		}
		zones = append(zones, *z)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating zone rows: %w", err)
	}

	return zones, total, nil
}

func (r *zoneRepository) FindByID(ctx context.Context, id int64) (*models.Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM zones z WHERE z.id = $1 AND z.deleted_at IS NULL`

	z, err := scanZone(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.Pool.Query(ctx, `SELECT pincode_id FROM zone_pincode WHERE zone_id = $1 ORDER BY pincode_id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load pincodes for zone %d: %w", id, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to scan pincodes for zone %d: %w", id, err)
	}
	z.PincodeIDs = ids

	return z, nil
}

func (r *zoneRepository) Create(ctx context.Context, in ZoneInput) (*models.Zone, error) {
	query := `
		INSERT INTO zones (name, code, country_id, lat, lng, radius_km, active, launch_date, capacity_limit, meta, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id
	`

	var id int64
	err := r.db.Pool.QueryRow(ctx, query,
		in.Name, in.Code, in.CountryID, in.Lat, in.Lng, in.RadiusKM, in.Active, in.LaunchDate, in.CapacityLimit, in.Meta,
	).Scan(&id)
	if err != nil {
		return nil, translateError("create zone", err)
	}
	return r.FindByID(ctx, id)
}

func (r *zoneRepository) Update(ctx context.Context, id int64, in ZoneInput) (*models.Zone, error) {
	query := `
		UPDATE zones SET
			name = $2,
			code = $3,
			country_id = $4,
			lat = $5,
			lng = $6,
			radius_km = $7,
			active = $8,
			launch_date = $9,
			capacity_limit = $10,
			meta = COALESCE($11, meta),
			updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		id, in.Name, in.Code, in.CountryID, in.Lat, in.Lng, in.RadiusKM, in.Active, in.LaunchDate, in.CapacityLimit, in.Meta,
	)
	if err != nil {
		return nil, translateError(fmt.Sprintf("update zone %d", id), err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

func (r *zoneRepository) SoftDelete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE zones SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete zone %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *zoneRepository) ToggleActive(ctx context.Context, id int64) (*models.Zone, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE zones SET active = NOT active, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle zone %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

func (r *zoneRepository) ReplacePincodes(ctx context.Context, id int64, pincodeIDs []int64) (bool, error) {
	found := false
	err := database.InTx(ctx, r.db.Pool, func(tx pgx.Tx) error {
		// Lock the zone row so concurrent replacements serialize.
		err := tx.QueryRow(ctx, `SELECT TRUE FROM zones WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id).Scan(&found)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				found = false
				return nil
			}
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM zone_pincode WHERE zone_id = $1`, id); err != nil {
			return err
		}
		if len(pincodeIDs) == 0 {
			return nil
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO zone_pincode (zone_id, pincode_id, created_at)
			SELECT $1, pid, NOW() FROM unnest($2::bigint[]) AS pid
			ON CONFLICT (zone_id, pincode_id) DO NOTHING
		`, id, pincodeIDs)
		return err
	})
	if err != nil {
		return false, translateError(fmt.Sprintf("replace pincodes for zone %d", id), err)
	}
	return found, nil
}

func scanZone(row pgx.Row) (*models.Zone, error) {
	var z models.Zone
	err := row.Scan(
		&z.ID, &z.Name, &z.Code, &z.CountryID, &z.Lat, &z.Lng, &z.RadiusKM, &z.Active,
		&z.LaunchDate, &z.CapacityLimit, &z.Meta, &z.CreatedAt, &z.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan zone row: %w", err)
	}
	return &z, nil
}
