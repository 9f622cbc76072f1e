package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/airops/netplan-api/internal/dto"
	"github.com/airops/netplan-api/internal/models"
	appErrors "github.com/airops/netplan-api/pkg/errors"
)

type unassignedFlightRepository interface {
	ListUnassigned(ctx context.Context, filter models.UnassignedFlightFilter) ([]models.UnassignedFlight, error)
}

// FlightService serves the unassigned-flight candidate list consumed by
// the rotation builder.
type FlightService struct {
	repo      unassignedFlightRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFlightService instantiates FlightService.
func NewFlightService(repo unassignedFlightRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *FlightService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FlightService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// ListUnassigned returns flights without a rotation matching the chain
// constraints. A flight qualifies only when its operating days are covered
// by the rotation's days-of-week mask.
func (s *FlightService) ListUnassigned(ctx context.Context, req dto.UnassignedFlightsRequest) ([]models.UnassignedFlight, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid unassigned flights query")
	}

	key := cacheKey(req)
	var cached []models.UnassignedFlight
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	flights, err := s.repo.ListUnassigned(ctx, models.UnassignedFlightFilter{
		AllowedDeptStn: req.AllowedDeptStn,
		AllowedStdLt:   req.AllowedStdLt,
		Variant:        req.SelectedVariant,
		EffFromDate:    req.EffFromDate,
		EffToDate:      req.EffToDate,
		Dow:            req.Dow,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unassigned flights")
	}

	matched := make([]models.UnassignedFlight, 0, len(flights))
	for _, flight := range flights {
		if dowCovered(flight.Dow, req.Dow) {
			matched = append(matched, flight)
		}
	}

	if err := s.cache.Set(ctx, key, matched, 0); err != nil {
		s.logger.Warn("failed to cache unassigned flights", zap.String("key", key), zap.Error(err))
	}
	return matched, nil
}

// dowCovered reports whether every operating day of the flight falls on a
// day the rotation covers.
func dowCovered(flightDow, rotationDow string) bool {
	if flightDow == "" {
		return false
	}
	for _, day := range flightDow {
		if !strings.ContainsRune(rotationDow, day) {
			return false
		}
	}
	return true
}

func cacheKey(req dto.UnassignedFlightsRequest) string {
	return fmt.Sprintf("unassigned:%s:%s:%s:%s:%s:%s",
		req.SelectedVariant, req.AllowedDeptStn, req.AllowedStdLt, req.EffFromDate, req.EffToDate, req.Dow)
}
