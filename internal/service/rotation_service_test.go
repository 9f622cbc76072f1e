package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airops/netplan-api/internal/dto"
	"github.com/airops/netplan-api/internal/models"
	appErrors "github.com/airops/netplan-api/pkg/errors"
)

type stubRotationRepo struct {
	nextNumber    int
	summary       *models.Rotation
	summaryErr    error
	legs          []models.RotationLeg
	conflict      *models.RotationLeg
	inserted      []*models.RotationLeg
	upserted      []*models.Rotation
	deletedLegs   []string
	deletedChains []int
	lockedCalls   []bool
}

func (r *stubRotationRepo) NextNumber(ctx context.Context) (int, error) {
	return r.nextNumber, nil
}

func (r *stubRotationRepo) FindSummary(ctx context.Context, number int, variant string) (*models.Rotation, error) {
	if r.summaryErr != nil {
		return nil, r.summaryErr
	}
	if r.summary == nil {
		return nil, sql.ErrNoRows
	}
	return r.summary, nil
}

func (r *stubRotationRepo) ListSummaries(ctx context.Context, filter models.RotationFilter) ([]models.Rotation, int, error) {
	if r.summary == nil {
		return nil, 0, nil
	}
	return []models.Rotation{*r.summary}, 1, nil
}

func (r *stubRotationRepo) ListLegs(ctx context.Context, number int, variant string) ([]models.RotationLeg, error) {
	return r.legs, nil
}

func (r *stubRotationRepo) CountLegs(ctx context.Context, number int, variant string) (int, error) {
	return len(r.legs), nil
}

func (r *stubRotationRepo) LastLeg(ctx context.Context, number int, variant string) (*models.RotationLeg, error) {
	if len(r.legs) == 0 {
		return nil, sql.ErrNoRows
	}
	return &r.legs[len(r.legs)-1], nil
}

func (r *stubRotationRepo) FindConflict(ctx context.Context, leg *models.RotationLeg, effFrom, effTo string) (*models.RotationLeg, error) {
	return r.conflict, nil
}

func (r *stubRotationRepo) InsertLeg(ctx context.Context, leg *models.RotationLeg) error {
	r.inserted = append(r.inserted, leg)
	return nil
}

func (r *stubRotationRepo) DeleteLeg(ctx context.Context, legID string, number int, variant string, depNumber int) error {
	r.deletedLegs = append(r.deletedLegs, legID)
	return nil
}

func (r *stubRotationRepo) DeleteRotation(ctx context.Context, number int, variant string) error {
	r.deletedChains = append(r.deletedChains, number)
	return nil
}

func (r *stubRotationRepo) UpsertSummary(ctx context.Context, rotation *models.Rotation) error {
	r.upserted = append(r.upserted, rotation)
	return nil
}

func (r *stubRotationRepo) SetLocked(ctx context.Context, number int, variant string, locked bool) error {
	r.lockedCalls = append(r.lockedCalls, locked)
	return nil
}

type stubFlightAssignments struct {
	assigned   []string
	unassigned []string
	released   []int
}

func (f *stubFlightAssignments) MarkAssigned(ctx context.Context, flightNumber, variant string, rotationNumber int) error {
	f.assigned = append(f.assigned, flightNumber)
	return nil
}

func (f *stubFlightAssignments) MarkUnassigned(ctx context.Context, flightNumber, variant string) error {
	f.unassigned = append(f.unassigned, flightNumber)
	return nil
}

func (f *stubFlightAssignments) ReleaseRotation(ctx context.Context, rotationNumber int, variant string) error {
	f.released = append(f.released, rotationNumber)
	return nil
}

func newTestRotationService(repo *stubRotationRepo, flights *stubFlightAssignments) *RotationService {
	return NewRotationService(repo, flights, nil, nil, nil, nil, 0)
}

func firstLegRequest() dto.AppendLegRequest {
	return dto.AppendLegRequest{
		RotationNumber: 7,
		DepNumber:      1,
		FlightNumber:   "AB123",
		DepStn:         "JFK",
		Std:            "08:00",
		Bt:             "02:00",
		Sta:            "10:00",
		ArrStn:         "LAX",
		Variant:        "73H",
		Dow:            "1234567",
		EffFromDate:    "2026-01-01",
		EffToDate:      "2026-03-31",
		DomIntl:        "DOM",
	}
}

func TestAppendLegFirstDeparture(t *testing.T) {
	repo := &stubRotationRepo{}
	flights := &stubFlightAssignments{}
	svc := newTestRotationService(repo, flights)

	leg, err := svc.AppendLeg(context.Background(), firstLegRequest())
	require.NoError(t, err)
	require.Len(t, repo.inserted, 1)
	assert.Equal(t, 1, leg.DepNumber)
	assert.Equal(t, "00:00", leg.Gt, "blank ground time defaults to 00:00")
	assert.Equal(t, 0, leg.DayOffset)
	assert.Equal(t, []string{"AB123"}, flights.assigned)

	// a draft header is written for the not-yet-saved rotation
	require.Len(t, repo.upserted, 1)
	assert.False(t, repo.upserted[0].Locked)
}

func TestAppendLegOvernightSetsDayOffset(t *testing.T) {
	repo := &stubRotationRepo{}
	svc := newTestRotationService(repo, &stubFlightAssignments{})

	req := firstLegRequest()
	req.Std = "23:50"
	req.Bt = "00:20"
	req.Sta = "00:10"

	leg, err := svc.AppendLeg(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, leg.DayOffset)
}

func TestAppendLegRejectsInconsistentSta(t *testing.T) {
	repo := &stubRotationRepo{}
	svc := newTestRotationService(repo, &stubFlightAssignments{})

	req := firstLegRequest()
	req.Sta = "10:30"

	_, err := svc.AppendLeg(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.inserted)
}

func TestAppendLegRejectsOutOfRangeTimeOfDay(t *testing.T) {
	repo := &stubRotationRepo{}
	svc := newTestRotationService(repo, &stubFlightAssignments{})

	req := firstLegRequest()
	req.Std = "27:00"
	req.Sta = "05:00"

	_, err := svc.AppendLeg(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.inserted, "departure times above 23:59 must never be persisted")

	req = firstLegRequest()
	req.Sta = "27:00"
	_, err = svc.AppendLeg(context.Background(), req)
	require.Error(t, err)
	assert.Empty(t, repo.inserted)

	// only times of day are capped; a block time above 24h is a legal duration
	req = firstLegRequest()
	req.Bt = "26:00"
	req.Sta = "10:00"
	leg, err := svc.AppendLeg(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, leg.DayOffset)
}

func TestAppendLegRejectsNonTailDepNumber(t *testing.T) {
	repo := &stubRotationRepo{
		legs: []models.RotationLeg{{ID: "leg-1", DepNumber: 1, ArrStn: "LAX", Sta: "10:00", Gt: "00:45"}},
	}
	svc := newTestRotationService(repo, &stubFlightAssignments{})

	req := firstLegRequest()
	req.DepNumber = 3

	_, err := svc.AppendLeg(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrChainBroken.Code, appErrors.FromError(err).Code)
}

func TestAppendLegEnforcesStationContinuity(t *testing.T) {
	repo := &stubRotationRepo{
		summary: &models.Rotation{RotationNumber: 7, Variant: "73H"},
		legs:    []models.RotationLeg{{ID: "leg-1", DepNumber: 1, ArrStn: "LAX", Sta: "10:00", Gt: "00:45"}},
	}
	svc := newTestRotationService(repo, &stubFlightAssignments{})

	req := firstLegRequest()
	req.DepNumber = 2
	req.DepStn = "SFO"
	req.Std = "10:45"
	req.Bt = "01:00"
	req.Sta = "11:45"

	_, err := svc.AppendLeg(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrChainBroken.Code, appErrors.FromError(err).Code)
	assert.Contains(t, err.Error(), "LAX")
}

func TestAppendLegEnforcesDerivedDepartureTime(t *testing.T) {
	repo := &stubRotationRepo{
		summary: &models.Rotation{RotationNumber: 7, Variant: "73H"},
		legs:    []models.RotationLeg{{ID: "leg-1", DepNumber: 1, ArrStn: "LAX", Sta: "10:00", Gt: "00:45"}},
	}
	svc := newTestRotationService(repo, &stubFlightAssignments{})

	req := firstLegRequest()
	req.DepNumber = 2
	req.DepStn = "LAX"
	req.Std = "11:00" // expected 10:45
	req.Bt = "01:00"
	req.Sta = "12:00"

	_, err := svc.AppendLeg(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrChainBroken.Code, appErrors.FromError(err).Code)
	assert.Contains(t, err.Error(), "10:45")
}

func TestAppendLegNamesConflictingFlight(t *testing.T) {
	repo := &stubRotationRepo{
		conflict: &models.RotationLeg{RotationNumber: 12, FlightNumber: "XY999", DepStn: "JFK", Std: "08:00"},
	}
	svc := newTestRotationService(repo, &stubFlightAssignments{})

	_, err := svc.AppendLeg(context.Background(), firstLegRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLegConflict.Code, appErrors.FromError(err).Code)
	assert.Contains(t, err.Error(), "XY999")
	assert.Empty(t, repo.inserted)
}

func TestAppendLegRespectsMaxLegs(t *testing.T) {
	repo := &stubRotationRepo{
		legs: []models.RotationLeg{{ID: "leg-1", DepNumber: 1, ArrStn: "JFK", Sta: "07:00", Gt: "01:00"}},
	}
	svc := NewRotationService(repo, nil, nil, nil, nil, nil, 1)

	req := firstLegRequest()
	req.DepNumber = 2

	_, err := svc.AppendLeg(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRemoveLastLegRejectsNonTail(t *testing.T) {
	repo := &stubRotationRepo{
		legs: []models.RotationLeg{
			{ID: "leg-1", DepNumber: 1},
			{ID: "leg-2", DepNumber: 2},
		},
	}
	svc := newTestRotationService(repo, &stubFlightAssignments{})

	err := svc.RemoveLastLeg(context.Background(), dto.DeleteLastLegRequest{
		RotationNumber:  7,
		SelectedVariant: "73H",
		DepNumber:       1,
		LegID:           "leg-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotTailLeg.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deletedLegs)
}

func TestRemoveLastLegDeletesTail(t *testing.T) {
	repo := &stubRotationRepo{
		legs: []models.RotationLeg{
			{ID: "leg-1", DepNumber: 1, FlightNumber: "AB123"},
			{ID: "leg-2", DepNumber: 2, FlightNumber: "AB124"},
		},
	}
	flights := &stubFlightAssignments{}
	svc := newTestRotationService(repo, flights)

	err := svc.RemoveLastLeg(context.Background(), dto.DeleteLastLegRequest{
		RotationNumber:  7,
		SelectedVariant: "73H",
		DepNumber:       2,
		LegID:           "leg-2",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"leg-2"}, repo.deletedLegs)
	assert.Equal(t, []string{"AB124"}, flights.unassigned)
	assert.Empty(t, repo.deletedChains)
}

func TestRemoveLastLegOnSingleLegDeletesRotation(t *testing.T) {
	repo := &stubRotationRepo{
		legs: []models.RotationLeg{{ID: "leg-1", DepNumber: 1, FlightNumber: "AB123"}},
	}
	flights := &stubFlightAssignments{}
	svc := newTestRotationService(repo, flights)

	err := svc.RemoveLastLeg(context.Background(), dto.DeleteLastLegRequest{
		RotationNumber:  7,
		SelectedVariant: "73H",
		DepNumber:       1,
		LegID:           "leg-1",
	})
	require.NoError(t, err)
	assert.Equal(t, []int{7}, repo.deletedChains)
	assert.Equal(t, []int{7}, flights.released)
	assert.Empty(t, repo.deletedLegs)
}

func TestRemoveLastLegOnEmptyChain(t *testing.T) {
	svc := newTestRotationService(&stubRotationRepo{}, &stubFlightAssignments{})

	err := svc.RemoveLastLeg(context.Background(), dto.DeleteLastLegRequest{
		RotationNumber:  7,
		SelectedVariant: "73H",
		DepNumber:       1,
		LegID:           "leg-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRotationNotFound.Code, appErrors.FromError(err).Code)
}

func TestSaveSummaryLocksHeader(t *testing.T) {
	repo := &stubRotationRepo{}
	svc := newTestRotationService(repo, &stubFlightAssignments{})

	rotation, err := svc.SaveSummary(context.Background(), dto.SaveSummaryRequest{
		RotationNumber:  7,
		RotationTag:     "SHUTTLE",
		EffFromDate:     "2026-01-01",
		EffToDate:       "2026-03-31",
		Dow:             "12345",
		SelectedVariant: "73H",
	})
	require.NoError(t, err)
	assert.True(t, rotation.Locked)
	require.Len(t, repo.upserted, 1)
	assert.True(t, repo.upserted[0].Locked)
}

func TestSaveSummaryRejectsIncompleteHeader(t *testing.T) {
	svc := newTestRotationService(&stubRotationRepo{}, &stubFlightAssignments{})

	_, err := svc.SaveSummary(context.Background(), dto.SaveSummaryRequest{
		RotationNumber:  7,
		SelectedVariant: "73H",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSummaryIncomplete.Code, appErrors.FromError(err).Code)
}

func TestSaveSummaryRejectsBadDow(t *testing.T) {
	svc := newTestRotationService(&stubRotationRepo{}, &stubFlightAssignments{})

	_, err := svc.SaveSummary(context.Background(), dto.SaveSummaryRequest{
		RotationNumber:  7,
		EffFromDate:     "2026-01-01",
		EffToDate:       "2026-03-31",
		Dow:             "89",
		SelectedVariant: "73H",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSaveSummaryRejectsInvertedWindow(t *testing.T) {
	svc := newTestRotationService(&stubRotationRepo{}, &stubFlightAssignments{})

	_, err := svc.SaveSummary(context.Background(), dto.SaveSummaryRequest{
		RotationNumber:  7,
		EffFromDate:     "2026-03-31",
		EffToDate:       "2026-01-01",
		Dow:             "12345",
		SelectedVariant: "73H",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRotationNotFound(t *testing.T) {
	svc := newTestRotationService(&stubRotationRepo{}, &stubFlightAssignments{})

	_, err := svc.Rotation(context.Background(), 42, "73H")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRotationNotFound.Code, appErrors.FromError(err).Code)
}

func TestRotationSummaryLoadFailure(t *testing.T) {
	repo := &stubRotationRepo{summaryErr: errors.New("connection reset")}
	svc := newTestRotationService(repo, &stubFlightAssignments{})

	_, err := svc.Rotation(context.Background(), 42, "73H")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestUnlockClearsLockedFlag(t *testing.T) {
	repo := &stubRotationRepo{}
	svc := newTestRotationService(repo, &stubFlightAssignments{})

	require.NoError(t, svc.Unlock(context.Background(), 7, "73H"))
	assert.Equal(t, []bool{false}, repo.lockedCalls)
}
