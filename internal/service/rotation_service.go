package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/airops/netplan-api/internal/dto"
	"github.com/airops/netplan-api/internal/models"
	appErrors "github.com/airops/netplan-api/pkg/errors"
	"github.com/airops/netplan-api/pkg/hhmm"
)

const dateLayout = "2006-01-02"

var (
	stationPattern = regexp.MustCompile(`^[A-Z]{3,4}$`)
	dowPattern     = regexp.MustCompile(`^[1-7]{1,7}$`)
)

// unassignedCachePattern covers every cached unassigned-flight lookup; any
// chain mutation can change the candidate pool.
const unassignedCachePattern = "unassigned:*"

type rotationRepository interface {
	NextNumber(ctx context.Context) (int, error)
	FindSummary(ctx context.Context, number int, variant string) (*models.Rotation, error)
	ListSummaries(ctx context.Context, filter models.RotationFilter) ([]models.Rotation, int, error)
	ListLegs(ctx context.Context, number int, variant string) ([]models.RotationLeg, error)
	CountLegs(ctx context.Context, number int, variant string) (int, error)
	LastLeg(ctx context.Context, number int, variant string) (*models.RotationLeg, error)
	FindConflict(ctx context.Context, leg *models.RotationLeg, effFrom, effTo string) (*models.RotationLeg, error)
	InsertLeg(ctx context.Context, leg *models.RotationLeg) error
	DeleteLeg(ctx context.Context, legID string, number int, variant string, depNumber int) error
	DeleteRotation(ctx context.Context, number int, variant string) error
	UpsertSummary(ctx context.Context, rotation *models.Rotation) error
	SetLocked(ctx context.Context, number int, variant string, locked bool) error
}

type flightAssignmentRepository interface {
	MarkAssigned(ctx context.Context, flightNumber, variant string, rotationNumber int) error
	MarkUnassigned(ctx context.Context, flightNumber, variant string) error
	ReleaseRotation(ctx context.Context, rotationNumber int, variant string) error
}

// RotationService coordinates rotation chain persistence and enforces the
// chain invariants: dense 1-based departure numbers, station continuity,
// derived departure times, and tail-only removal.
type RotationService struct {
	repo      rotationRepository
	flights   flightAssignmentRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	maxLegs   int
}

// NewRotationService instantiates RotationService.
func NewRotationService(repo rotationRepository, flights flightAssignmentRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, maxLegs int) *RotationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RotationService{repo: repo, flights: flights, cache: cache, metrics: metrics, validator: validate, logger: logger, maxLegs: maxLegs}
}

// NextRotationNumber reserves the next free rotation number for a new chain.
func (s *RotationService) NextRotationNumber(ctx context.Context) (int, error) {
	next, err := s.repo.NextNumber(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve rotation number")
	}
	return next, nil
}

// Rotation returns the leg chain and summary header for one pair.
func (s *RotationService) Rotation(ctx context.Context, number int, variant string) (*dto.RotationDetailsResponse, error) {
	summary, err := s.repo.FindSummary(ctx, number, variant)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrRotationNotFound, fmt.Sprintf("rotation %d/%s not found", number, variant))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rotation summary")
	}
	legs, err := s.repo.ListLegs(ctx, number, variant)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rotation legs")
	}
	return &dto.RotationDetailsResponse{RotationDetails: legs, RotationSummary: *summary}, nil
}

// List returns rotation summaries with pagination metadata.
func (s *RotationService) List(ctx context.Context, filter models.RotationFilter) ([]models.Rotation, *models.Pagination, error) {
	rotations, total, err := s.repo.ListSummaries(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rotations")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return rotations, pagination, nil
}

// AppendLeg validates and persists one new tail departure.
func (s *RotationService) AppendLeg(ctx context.Context, req dto.AppendLegRequest) (leg *models.RotationLeg, err error) {
	defer func() { s.metrics.RecordLegMutation("append", err) }()

	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leg payload")
	}
	if req.Gt == "" {
		req.Gt = "00:00"
	}
	if err = validateLegShapes(req); err != nil {
		return nil, err
	}
	if err = validateWindow(req.EffFromDate, req.EffToDate); err != nil {
		return nil, err
	}

	// STA must be derivable from STD + BT; the wrap marks an overnight leg.
	expectedSta, wrapped, timeErr := hhmm.Add(req.Std, req.Bt)
	if timeErr != nil {
		return nil, appErrors.Wrap(timeErr, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid departure time or block time")
	}
	if expectedSta != req.Sta {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("sta %s does not equal std %s plus bt %s", req.Sta, req.Std, req.Bt))
	}

	count, err := s.repo.CountLegs(ctx, req.RotationNumber, req.Variant)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count rotation legs")
	}
	if s.maxLegs > 0 && count >= s.maxLegs {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("rotation already has %d departures", count))
	}
	if req.DepNumber != count+1 {
		return nil, appErrors.Clone(appErrors.ErrChainBroken, fmt.Sprintf("departure number %d is not the chain tail, expected %d", req.DepNumber, count+1))
	}

	if count > 0 {
		last, lastErr := s.repo.LastLeg(ctx, req.RotationNumber, req.Variant)
		if lastErr != nil {
			return nil, appErrors.Wrap(lastErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chain tail")
		}
		if req.DepStn != last.ArrStn {
			return nil, appErrors.Clone(appErrors.ErrChainBroken, fmt.Sprintf("departure station %s does not match previous arrival %s", req.DepStn, last.ArrStn))
		}
		expectedStd, _, stdErr := hhmm.Add(last.Sta, last.Gt)
		if stdErr != nil {
			return nil, appErrors.Wrap(stdErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored chain tail has malformed times")
		}
		if req.Std != expectedStd {
			return nil, appErrors.Clone(appErrors.ErrChainBroken, fmt.Sprintf("departure time %s does not match previous arrival plus ground time %s", req.Std, expectedStd))
		}
	}

	candidate := &models.RotationLeg{
		RotationNumber: req.RotationNumber,
		Variant:        req.Variant,
		DepNumber:      req.DepNumber,
		FlightNumber:   req.FlightNumber,
		DepStn:         req.DepStn,
		ArrStn:         req.ArrStn,
		Std:            req.Std,
		Sta:            req.Sta,
		Bt:             req.Bt,
		Gt:             req.Gt,
		DomIntl:        req.DomIntl,
	}
	if wrapped {
		candidate.DayOffset = 1
	}

	existing, err := s.repo.FindConflict(ctx, candidate, req.EffFromDate, req.EffToDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check for conflicting legs")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrLegConflict, fmt.Sprintf("flight %s already departs %s at %s in rotation %d", existing.FlightNumber, existing.DepStn, existing.Std, existing.RotationNumber))
	}

	if err = s.ensureSummary(ctx, req); err != nil {
		return nil, err
	}

	if err = s.repo.InsertLeg(ctx, candidate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist leg")
	}

	if s.flights != nil {
		if markErr := s.flights.MarkAssigned(ctx, candidate.FlightNumber, candidate.Variant, candidate.RotationNumber); markErr != nil {
			s.logger.Warn("failed to mark flight assigned", zap.String("flight", candidate.FlightNumber), zap.Error(markErr))
		}
	}
	s.cache.Invalidate(ctx, unassignedCachePattern)

	return candidate, nil
}

// RemoveLastLeg deletes the tail departure. A single-leg chain is removed
// entirely, header included.
func (s *RotationService) RemoveLastLeg(ctx context.Context, req dto.DeleteLastLegRequest) (err error) {
	defer func() { s.metrics.RecordLegMutation("remove_last", err) }()

	if err = s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid delete payload")
	}

	last, err := s.repo.LastLeg(ctx, req.RotationNumber, req.SelectedVariant)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrRotationNotFound, fmt.Sprintf("rotation %d/%s has no departures", req.RotationNumber, req.SelectedVariant))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chain tail")
	}
	if last.ID != req.LegID || last.DepNumber != req.DepNumber {
		return appErrors.Clone(appErrors.ErrNotTailLeg, fmt.Sprintf("departure %d is not the chain tail", req.DepNumber))
	}

	if last.DepNumber == 1 {
		return s.deleteRotation(ctx, req.RotationNumber, req.SelectedVariant)
	}

	if err = s.repo.DeleteLeg(ctx, last.ID, req.RotationNumber, req.SelectedVariant, last.DepNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotTailLeg, "chain tail changed, reload the rotation")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete leg")
	}

	if s.flights != nil {
		if markErr := s.flights.MarkUnassigned(ctx, last.FlightNumber, req.SelectedVariant); markErr != nil {
			s.logger.Warn("failed to release flight", zap.String("flight", last.FlightNumber), zap.Error(markErr))
		}
	}
	s.cache.Invalidate(ctx, unassignedCachePattern)
	return nil
}

// DeleteRotation removes the whole chain and releases its flights.
func (s *RotationService) DeleteRotation(ctx context.Context, req dto.DeleteRotationRequest) (err error) {
	defer func() { s.metrics.RecordLegMutation("delete_rotation", err) }()

	if err = s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid delete payload")
	}
	return s.deleteRotation(ctx, req.RotationNumber, req.SelectedVariant)
}

func (s *RotationService) deleteRotation(ctx context.Context, number int, variant string) error {
	if s.flights != nil {
		if err := s.flights.ReleaseRotation(ctx, number, variant); err != nil {
			s.logger.Warn("failed to release rotation flights", zap.Int("rotation", number), zap.Error(err))
		}
	}
	if err := s.repo.DeleteRotation(ctx, number, variant); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete rotation")
	}
	s.cache.Invalidate(ctx, unassignedCachePattern)
	return nil
}

// SaveSummary persists the header and locks it. Every header field the
// chain is keyed by must be present; a partial header is rejected rather
// than silently ignored.
func (s *RotationService) SaveSummary(ctx context.Context, req dto.SaveSummaryRequest) (*models.Rotation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSummaryIncomplete.Code, appErrors.ErrSummaryIncomplete.Status, appErrors.ErrSummaryIncomplete.Message)
	}
	if !dowPattern.MatchString(req.Dow) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("malformed days-of-week mask %q", req.Dow))
	}
	if err := validateWindow(req.EffFromDate, req.EffToDate); err != nil {
		return nil, err
	}

	rotation := &models.Rotation{
		RotationNumber: req.RotationNumber,
		Variant:        req.SelectedVariant,
		RotationTag:    req.RotationTag,
		EffFromDt:      req.EffFromDate,
		EffToDt:        req.EffToDate,
		Dow:            req.Dow,
		Locked:         true,
	}
	if err := s.repo.UpsertSummary(ctx, rotation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save rotation summary")
	}
	return rotation, nil
}

// Unlock reopens a locked header for editing.
func (s *RotationService) Unlock(ctx context.Context, number int, variant string) error {
	if err := s.repo.SetLocked(ctx, number, variant, false); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrRotationNotFound, fmt.Sprintf("rotation %d/%s not found", number, variant))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unlock rotation")
	}
	return nil
}

// ensureSummary writes a draft header the first time a leg references a
// rotation that has not been saved yet.
func (s *RotationService) ensureSummary(ctx context.Context, req dto.AppendLegRequest) error {
	_, err := s.repo.FindSummary(ctx, req.RotationNumber, req.Variant)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rotation summary")
	}
	draft := &models.Rotation{
		RotationNumber: req.RotationNumber,
		Variant:        req.Variant,
		EffFromDt:      req.EffFromDate,
		EffToDt:        req.EffToDate,
		Dow:            req.Dow,
		Locked:         false,
	}
	if err := s.repo.UpsertSummary(ctx, draft); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create draft summary")
	}
	return nil
}

func validateLegShapes(req dto.AppendLegRequest) error {
	for field, value := range map[string]string{"std": req.Std, "sta": req.Sta} {
		if !hhmm.ValidTime(value) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("malformed %s value %q, expected a 24h HH:MM time of day", field, value))
		}
	}
	for field, value := range map[string]string{"bt": req.Bt, "gt": req.Gt} {
		if !hhmm.Valid(value) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("malformed %s value %q, expected HH:MM", field, value))
		}
	}
	for field, value := range map[string]string{"depStn": req.DepStn, "arrStn": req.ArrStn} {
		if !stationPattern.MatchString(value) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("malformed %s station code %q", field, value))
		}
	}
	if !dowPattern.MatchString(req.Dow) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("malformed days-of-week mask %q", req.Dow))
	}
	return nil
}

func validateWindow(from, to string) error {
	fromDt, err := time.Parse(dateLayout, from)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("malformed effective-from date %q", from))
	}
	toDt, err := time.Parse(dateLayout, to)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("malformed effective-to date %q", to))
	}
	if toDt.Before(fromDt) {
		return appErrors.Clone(appErrors.ErrValidation, "effective-to date precedes effective-from date")
	}
	return nil
}
