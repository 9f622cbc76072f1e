package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/airops/netplan-api/internal/models"
)

// FlightRepository reads the network schedule and tracks which flights
// have been absorbed into rotations.
type FlightRepository struct {
	db *sqlx.DB
}

// NewFlightRepository creates a new instance of FlightRepository.
func NewFlightRepository(db *sqlx.DB) *FlightRepository {
	return &FlightRepository{db: db}
}

// ListUnassigned returns flights without a rotation that match the filter.
// Day-of-week containment is checked by the service layer; SQL narrows by
// variant, validity overlap, and the optional trailing station/time.
func (r *FlightRepository) ListUnassigned(ctx context.Context, filter models.UnassignedFlightFilter) ([]models.UnassignedFlight, error) {
	baseQuery := `SELECT id, flight_number, dep_stn, arr_stn, std, sta, bt, variant, dow, eff_from_dt, eff_to_dt, dom_intl, rotation_number, created_at
FROM flights WHERE rotation_number IS NULL`
	var conditions []string
	var args []interface{}

	if filter.Variant != "" {
		conditions = append(conditions, fmt.Sprintf("variant = $%d", len(args)+1))
		args = append(args, filter.Variant)
	}
	if filter.EffFromDate != "" && filter.EffToDate != "" {
		conditions = append(conditions, fmt.Sprintf("eff_from_dt <= $%d AND eff_to_dt >= $%d", len(args)+1, len(args)+2))
		args = append(args, filter.EffToDate, filter.EffFromDate)
	}
	if filter.AllowedDeptStn != "" {
		conditions = append(conditions, fmt.Sprintf("dep_stn = $%d", len(args)+1))
		args = append(args, filter.AllowedDeptStn)
	}
	if filter.AllowedStdLt != "" {
		conditions = append(conditions, fmt.Sprintf("std >= $%d", len(args)+1))
		args = append(args, filter.AllowedStdLt)
	}

	query := baseQuery
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY std ASC, flight_number ASC"

	var flights []models.UnassignedFlight
	if err := r.db.SelectContext(ctx, &flights, query, args...); err != nil {
		return nil, fmt.Errorf("list unassigned flights: %w", err)
	}
	return flights, nil
}

// MarkAssigned records that a flight now belongs to a rotation.
func (r *FlightRepository) MarkAssigned(ctx context.Context, flightNumber, variant string, rotationNumber int) error {
	const query = `UPDATE flights SET rotation_number = $3 WHERE flight_number = $1 AND variant = $2 AND rotation_number IS NULL`
	if _, err := r.db.ExecContext(ctx, query, flightNumber, variant, rotationNumber); err != nil {
		return fmt.Errorf("mark flight assigned: %w", err)
	}
	return nil
}

// MarkUnassigned releases a flight back into the candidate pool.
func (r *FlightRepository) MarkUnassigned(ctx context.Context, flightNumber, variant string) error {
	const query = `UPDATE flights SET rotation_number = NULL WHERE flight_number = $1 AND variant = $2`
	if _, err := r.db.ExecContext(ctx, query, flightNumber, variant); err != nil {
		return fmt.Errorf("mark flight unassigned: %w", err)
	}
	return nil
}

// ReleaseRotation frees every flight held by a rotation+variant pair.
func (r *FlightRepository) ReleaseRotation(ctx context.Context, rotationNumber int, variant string) error {
	const query = `UPDATE flights SET rotation_number = NULL WHERE rotation_number = $1 AND variant = $2`
	if _, err := r.db.ExecContext(ctx, query, rotationNumber, variant); err != nil {
		return fmt.Errorf("release rotation flights: %w", err)
	}
	return nil
}
