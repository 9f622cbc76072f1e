package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airops/netplan-api/internal/models"
)

func newRotationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRotationRepositoryNextNumber(t *testing.T) {
	db, mock, cleanup := newRotationRepoMock(t)
	defer cleanup()
	repo := NewRotationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(rotation_number), 0) + 1 FROM rotations")).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(42))

	next, err := repo.NextNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, next)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRotationRepositoryListLegsOrdered(t *testing.T) {
	db, mock, cleanup := newRotationRepoMock(t)
	defer cleanup()
	repo := NewRotationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "rotation_number", "variant", "dep_number", "flight_number", "dep_stn", "arr_stn", "std", "sta", "bt", "gt", "dom_intl", "day_offset", "created_at"}).
		AddRow("leg-1", 7, "73H", 1, "AB123", "JFK", "LAX", "08:00", "10:00", "02:00", "00:45", "DOM", 0, time.Now()).
		AddRow("leg-2", 7, "73H", 2, "AB124", "LAX", "SFO", "10:45", "12:00", "01:15", "00:30", "DOM", 0, time.Now())
	mock.ExpectQuery("SELECT id, rotation_number, variant, dep_number, .* FROM rotation_legs WHERE rotation_number = \\$1 AND variant = \\$2 ORDER BY dep_number ASC").
		WithArgs(7, "73H").
		WillReturnRows(rows)

	legs, err := repo.ListLegs(context.Background(), 7, "73H")
	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, 1, legs[0].DepNumber)
	assert.Equal(t, "LAX", legs[0].ArrStn)
	assert.Equal(t, "LAX", legs[1].DepStn)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRotationRepositoryInsertLegAssignsID(t *testing.T) {
	db, mock, cleanup := newRotationRepoMock(t)
	defer cleanup()
	repo := NewRotationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rotation_legs")).
		WithArgs(sqlmock.AnyArg(), 7, "73H", 1, "AB123", "JFK", "LAX", "08:00", "10:00", "02:00", "00:45", "DOM", 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	leg := &models.RotationLeg{
		RotationNumber: 7,
		Variant:        "73H",
		DepNumber:      1,
		FlightNumber:   "AB123",
		DepStn:         "JFK",
		ArrStn:         "LAX",
		Std:            "08:00",
		Sta:            "10:00",
		Bt:             "02:00",
		Gt:             "00:45",
		DomIntl:        "DOM",
	}
	require.NoError(t, repo.InsertLeg(context.Background(), leg))
	assert.NotEmpty(t, leg.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRotationRepositoryDeleteLegMissing(t *testing.T) {
	db, mock, cleanup := newRotationRepoMock(t)
	defer cleanup()
	repo := NewRotationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM rotation_legs WHERE id = $1 AND rotation_number = $2 AND variant = $3 AND dep_number = $4")).
		WithArgs("leg-9", 7, "73H", 3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteLeg(context.Background(), "leg-9", 7, "73H", 3)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRotationRepositoryDeleteRotation(t *testing.T) {
	db, mock, cleanup := newRotationRepoMock(t)
	defer cleanup()
	repo := NewRotationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM rotation_legs WHERE rotation_number = $1 AND variant = $2")).
		WithArgs(7, "73H").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM rotations WHERE rotation_number = $1 AND variant = $2")).
		WithArgs(7, "73H").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteRotation(context.Background(), 7, "73H"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRotationRepositoryUpsertSummary(t *testing.T) {
	db, mock, cleanup := newRotationRepoMock(t)
	defer cleanup()
	repo := NewRotationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rotations")).
		WithArgs(7, "73H", "morning shuttle", "2026-01-01", "2026-03-31", "12345", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rotation := &models.Rotation{
		RotationNumber: 7,
		Variant:        "73H",
		RotationTag:    "morning shuttle",
		EffFromDt:      "2026-01-01",
		EffToDt:        "2026-03-31",
		Dow:            "12345",
		Locked:         true,
	}
	require.NoError(t, repo.UpsertSummary(context.Background(), rotation))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRotationRepositoryFindConflictNone(t *testing.T) {
	db, mock, cleanup := newRotationRepoMock(t)
	defer cleanup()
	repo := NewRotationRepository(db)

	mock.ExpectQuery("SELECT l.id, l.rotation_number, .* FROM rotation_legs l").
		WithArgs("AB123", "JFK", "08:00", "2026-03-31", "2026-01-01").
		WillReturnError(sql.ErrNoRows)

	existing, err := repo.FindConflict(context.Background(), &models.RotationLeg{
		FlightNumber: "AB123",
		DepStn:       "JFK",
		Std:          "08:00",
	}, "2026-01-01", "2026-03-31")
	require.NoError(t, err)
	assert.Nil(t, existing)
	assert.NoError(t, mock.ExpectationsWereMet())
}
