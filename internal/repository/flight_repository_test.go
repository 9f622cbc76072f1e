package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airops/netplan-api/internal/models"
)

func newFlightRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestFlightRepositoryListUnassignedWithTrailingStation(t *testing.T) {
	db, mock, cleanup := newFlightRepoMock(t)
	defer cleanup()
	repo := NewFlightRepository(db)

	rows := sqlmock.NewRows([]string{"id", "flight_number", "dep_stn", "arr_stn", "std", "sta", "bt", "variant", "dow", "eff_from_dt", "eff_to_dt", "dom_intl", "rotation_number", "created_at"}).
		AddRow("f-1", "AB200", "LAX", "SEA", "11:30", "14:00", "02:30", "73H", "12345", "2026-01-01", "2026-03-31", "DOM", nil, time.Now())
	mock.ExpectQuery("SELECT id, flight_number, .* FROM flights WHERE rotation_number IS NULL AND variant = \\$1 AND eff_from_dt <= \\$2 AND eff_to_dt >= \\$3 AND dep_stn = \\$4 AND std >= \\$5").
		WithArgs("73H", "2026-03-31", "2026-01-01", "LAX", "10:45").
		WillReturnRows(rows)

	flights, err := repo.ListUnassigned(context.Background(), models.UnassignedFlightFilter{
		AllowedDeptStn: "LAX",
		AllowedStdLt:   "10:45",
		Variant:        "73H",
		EffFromDate:    "2026-01-01",
		EffToDate:      "2026-03-31",
		Dow:            "12345",
	})
	require.NoError(t, err)
	require.Len(t, flights, 1)
	assert.Equal(t, "AB200", flights[0].FlightNumber)
	assert.Nil(t, flights[0].RotationNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlightRepositoryListUnassignedEmptyChain(t *testing.T) {
	db, mock, cleanup := newFlightRepoMock(t)
	defer cleanup()
	repo := NewFlightRepository(db)

	rows := sqlmock.NewRows([]string{"id", "flight_number", "dep_stn", "arr_stn", "std", "sta", "bt", "variant", "dow", "eff_from_dt", "eff_to_dt", "dom_intl", "rotation_number", "created_at"})
	mock.ExpectQuery("SELECT id, flight_number, .* FROM flights WHERE rotation_number IS NULL AND variant = \\$1 AND eff_from_dt <= \\$2 AND eff_to_dt >= \\$3").
		WithArgs("73H", "2026-03-31", "2026-01-01").
		WillReturnRows(rows)

	flights, err := repo.ListUnassigned(context.Background(), models.UnassignedFlightFilter{
		Variant:     "73H",
		EffFromDate: "2026-01-01",
		EffToDate:   "2026-03-31",
	})
	require.NoError(t, err)
	assert.Empty(t, flights)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlightRepositoryMarkAssigned(t *testing.T) {
	db, mock, cleanup := newFlightRepoMock(t)
	defer cleanup()
	repo := NewFlightRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE flights SET rotation_number = $3 WHERE flight_number = $1 AND variant = $2 AND rotation_number IS NULL")).
		WithArgs("AB123", "73H", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkAssigned(context.Background(), "AB123", "73H", 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlightRepositoryReleaseRotation(t *testing.T) {
	db, mock, cleanup := newFlightRepoMock(t)
	defer cleanup()
	repo := NewFlightRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE flights SET rotation_number = NULL WHERE rotation_number = $1 AND variant = $2")).
		WithArgs(7, "73H").
		WillReturnResult(sqlmock.NewResult(0, 4))

	require.NoError(t, repo.ReleaseRotation(context.Background(), 7, "73H"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
