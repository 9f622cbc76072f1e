package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/airops/netplan-api/internal/models"
)

// RotationRepository provides database access for rotation headers and
// their leg chains.
type RotationRepository struct {
	db *sqlx.DB
}

// NewRotationRepository creates a new instance of RotationRepository.
func NewRotationRepository(db *sqlx.DB) *RotationRepository {
	return &RotationRepository{db: db}
}

// NextNumber reserves the next free rotation number.
func (r *RotationRepository) NextNumber(ctx context.Context) (int, error) {
	const query = `SELECT COALESCE(MAX(rotation_number), 0) + 1 FROM rotations`
	var next int
	if err := r.db.GetContext(ctx, &next, query); err != nil {
		return 0, fmt.Errorf("next rotation number: %w", err)
	}
	return next, nil
}

// FindSummary returns the header row for a rotation+variant pair.
func (r *RotationRepository) FindSummary(ctx context.Context, number int, variant string) (*models.Rotation, error) {
	const query = `SELECT rotation_number, variant, rotation_tag, eff_from_dt, eff_to_dt, dow, locked, created_at, updated_at
FROM rotations WHERE rotation_number = $1 AND variant = $2 LIMIT 1`
	var rotation models.Rotation
	if err := r.db.GetContext(ctx, &rotation, query, number, variant); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find rotation summary: %w", err)
	}
	return &rotation, nil
}

// ListSummaries returns rotation headers with total count for table views.
func (r *RotationRepository) ListSummaries(ctx context.Context, filter models.RotationFilter) ([]models.Rotation, int, error) {
	baseQuery := `FROM rotations WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Variant != "" {
		conditions = append(conditions, fmt.Sprintf("variant = $%d", len(args)+1))
		args = append(args, filter.Variant)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(rotation_tag) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count rotations: %w", err)
	}

	sortBy := "rotation_number"
	if filter.SortBy == "updated_at" || filter.SortBy == "eff_from_dt" {
		sortBy = filter.SortBy
	}
	order := "ASC"
	if strings.EqualFold(filter.SortOrder, "desc") {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}

	query := fmt.Sprintf(`SELECT rotation_number, variant, rotation_tag, eff_from_dt, eff_to_dt, dow, locked, created_at, updated_at %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		baseQuery, sortBy, order, len(args)+1, len(args)+2)
	args = append(args, size, (page-1)*size)

	var rotations []models.Rotation
	if err := r.db.SelectContext(ctx, &rotations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list rotations: %w", err)
	}
	return rotations, total, nil
}

// ListLegs returns the ordered chain for a rotation+variant pair.
func (r *RotationRepository) ListLegs(ctx context.Context, number int, variant string) ([]models.RotationLeg, error) {
	const query = `SELECT id, rotation_number, variant, dep_number, flight_number, dep_stn, arr_stn, std, sta, bt, gt, dom_intl, day_offset, created_at
FROM rotation_legs WHERE rotation_number = $1 AND variant = $2 ORDER BY dep_number ASC`
	var legs []models.RotationLeg
	if err := r.db.SelectContext(ctx, &legs, query, number, variant); err != nil {
		return nil, fmt.Errorf("list rotation legs: %w", err)
	}
	return legs, nil
}

// CountLegs returns the chain length for a rotation+variant pair.
func (r *RotationRepository) CountLegs(ctx context.Context, number int, variant string) (int, error) {
	const query = `SELECT COUNT(*) FROM rotation_legs WHERE rotation_number = $1 AND variant = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, number, variant); err != nil {
		return 0, fmt.Errorf("count rotation legs: %w", err)
	}
	return count, nil
}

// LastLeg returns the tail departure of a chain, or sql.ErrNoRows when the
// chain is empty.
func (r *RotationRepository) LastLeg(ctx context.Context, number int, variant string) (*models.RotationLeg, error) {
	const query = `SELECT id, rotation_number, variant, dep_number, flight_number, dep_stn, arr_stn, std, sta, bt, gt, dom_intl, day_offset, created_at
FROM rotation_legs WHERE rotation_number = $1 AND variant = $2 ORDER BY dep_number DESC LIMIT 1`
	var leg models.RotationLeg
	if err := r.db.GetContext(ctx, &leg, query, number, variant); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("last rotation leg: %w", err)
	}
	return &leg, nil
}

// FindConflict looks for an already-rotated departure with the same flight,
// station and departure time overlapping the validity window.
func (r *RotationRepository) FindConflict(ctx context.Context, leg *models.RotationLeg, effFrom, effTo string) (*models.RotationLeg, error) {
	const query = `SELECT l.id, l.rotation_number, l.variant, l.dep_number, l.flight_number, l.dep_stn, l.arr_stn, l.std, l.sta, l.bt, l.gt, l.dom_intl, l.day_offset, l.created_at
FROM rotation_legs l
JOIN rotations r ON r.rotation_number = l.rotation_number AND r.variant = l.variant
WHERE l.flight_number = $1 AND l.dep_stn = $2 AND l.std = $3
  AND r.eff_from_dt <= $4 AND r.eff_to_dt >= $5
LIMIT 1`
	var existing models.RotationLeg
	err := r.db.GetContext(ctx, &existing, query, leg.FlightNumber, leg.DepStn, leg.Std, effTo, effFrom)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find conflicting leg: %w", err)
	}
	return &existing, nil
}

// InsertLeg appends a departure row. The caller has already validated the
// chain invariants.
func (r *RotationRepository) InsertLeg(ctx context.Context, leg *models.RotationLeg) error {
	if leg.ID == "" {
		leg.ID = uuid.NewString()
	}
	if leg.CreatedAt.IsZero() {
		leg.CreatedAt = time.Now().UTC()
	}
	const query = `
INSERT INTO rotation_legs (id, rotation_number, variant, dep_number, flight_number, dep_stn, arr_stn, std, sta, bt, gt, dom_intl, day_offset, created_at)
VALUES (:id, :rotation_number, :variant, :dep_number, :flight_number, :dep_stn, :arr_stn, :std, :sta, :bt, :gt, :dom_intl, :day_offset, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, leg); err != nil {
		return fmt.Errorf("insert rotation leg: %w", err)
	}
	return nil
}

// DeleteLeg removes a single departure by id, scoped to its chain position.
func (r *RotationRepository) DeleteLeg(ctx context.Context, legID string, number int, variant string, depNumber int) error {
	const query = `DELETE FROM rotation_legs WHERE id = $1 AND rotation_number = $2 AND variant = $3 AND dep_number = $4`
	result, err := r.db.ExecContext(ctx, query, legID, number, variant, depNumber)
	if err != nil {
		return fmt.Errorf("delete rotation leg: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rotation leg rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteRotation removes the whole chain and its header.
func (r *RotationRepository) DeleteRotation(ctx context.Context, number int, variant string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete rotation: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM rotation_legs WHERE rotation_number = $1 AND variant = $2`, number, variant); err != nil {
		return fmt.Errorf("delete rotation legs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rotations WHERE rotation_number = $1 AND variant = $2`, number, variant); err != nil {
		return fmt.Errorf("delete rotation header: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete rotation: %w", err)
	}
	return nil
}

// UpsertSummary inserts or updates the header row.
func (r *RotationRepository) UpsertSummary(ctx context.Context, rotation *models.Rotation) error {
	now := time.Now().UTC()
	if rotation.CreatedAt.IsZero() {
		rotation.CreatedAt = now
	}
	rotation.UpdatedAt = now
	const query = `
INSERT INTO rotations (rotation_number, variant, rotation_tag, eff_from_dt, eff_to_dt, dow, locked, created_at, updated_at)
VALUES (:rotation_number, :variant, :rotation_tag, :eff_from_dt, :eff_to_dt, :dow, :locked, :created_at, :updated_at)
ON CONFLICT (rotation_number, variant) DO UPDATE
SET rotation_tag = EXCLUDED.rotation_tag,
    eff_from_dt = EXCLUDED.eff_from_dt,
    eff_to_dt = EXCLUDED.eff_to_dt,
    dow = EXCLUDED.dow,
    locked = EXCLUDED.locked,
    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, rotation); err != nil {
		return fmt.Errorf("upsert rotation summary: %w", err)
	}
	return nil
}

// SetLocked flips only the header lock state.
func (r *RotationRepository) SetLocked(ctx context.Context, number int, variant string, locked bool) error {
	const query = `UPDATE rotations SET locked = $3, updated_at = $4 WHERE rotation_number = $1 AND variant = $2`
	result, err := r.db.ExecContext(ctx, query, number, variant, locked, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set rotation lock: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set rotation lock rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
