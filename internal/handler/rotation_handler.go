package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/airops/netplan-api/internal/dto"
	"github.com/airops/netplan-api/internal/models"
	"github.com/airops/netplan-api/internal/service"
	appErrors "github.com/airops/netplan-api/pkg/errors"
	"github.com/airops/netplan-api/pkg/response"
)

// RotationHandler manages rotation chain endpoints.
type RotationHandler struct {
	service *service.RotationService
}

// NewRotationHandler constructs handler.
func NewRotationHandler(svc *service.RotationService) *RotationHandler {
	return &RotationHandler{service: svc}
}

// NextNumber godoc
// @Summary Next free rotation number
// @Description Reserve the next rotation number for a new chain
// @Tags Rotations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rotations/next-number [get]
func (h *RotationHandler) NextNumber(c *gin.Context) {
	next, err := h.service.NextRotationNumber(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NextRotationNumberResponse{NextRotationNumber: next}, nil)
}

// List godoc
// @Summary List rotation summaries
// @Tags Rotations
// @Produce json
// @Param variant query string false "Filter by aircraft variant"
// @Param search query string false "Search rotation tag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /rotations [get]
func (h *RotationHandler) List(c *gin.Context) {
	var filter models.RotationFilter
	filter.Variant = c.Query("variant")
	filter.Search = c.Query("search")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	rotations, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rotations, pagination)
}

// Get godoc
// @Summary Get one rotation chain
// @Description Returns the ordered leg chain and summary header
// @Tags Rotations
// @Produce json
// @Param number path int true "Rotation number"
// @Param variant query string true "Aircraft variant"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /rotations/{number} [get]
func (h *RotationHandler) Get(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid rotation number"))
		return
	}
	variant := c.Query("variant")
	if variant == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "variant is required"))
		return
	}

	details, err := h.service.Rotation(c.Request.Context(), number, variant)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, nil)
}

// AppendLeg godoc
// @Summary Append a departure to a chain
// @Description Persists one new tail departure after chain validation
// @Tags Rotations
// @Accept json
// @Produce json
// @Param payload body dto.AppendLegRequest true "Leg payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /rotations/legs [post]
func (h *RotationHandler) AppendLeg(c *gin.Context) {
	var req dto.AppendLegRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid leg payload"))
		return
	}

	leg, err := h.service.AppendLeg(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, leg)
}

// RemoveLastLeg godoc
// @Summary Remove the tail departure
// @Description Deletes the last departure; a single-leg rotation is removed entirely
// @Tags Rotations
// @Accept json
// @Produce json
// @Param payload body dto.DeleteLastLegRequest true "Delete payload"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /rotations/legs [delete]
func (h *RotationHandler) RemoveLastLeg(c *gin.Context) {
	var req dto.DeleteLastLegRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid delete payload"))
		return
	}

	if err := h.service.RemoveLastLeg(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete a whole rotation
// @Description Removes every departure and the summary header, releasing flights
// @Tags Rotations
// @Accept json
// @Produce json
// @Param payload body dto.DeleteRotationRequest true "Delete payload"
// @Success 204 {object} response.Envelope
// @Router /rotations [delete]
func (h *RotationHandler) Delete(c *gin.Context) {
	var req dto.DeleteRotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid delete payload"))
		return
	}

	if err := h.service.DeleteRotation(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SaveSummary godoc
// @Summary Save and lock the rotation summary
// @Tags Rotations
// @Accept json
// @Produce json
// @Param payload body dto.SaveSummaryRequest true "Summary payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /rotations/summary [put]
func (h *RotationHandler) SaveSummary(c *gin.Context) {
	var req dto.SaveSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid summary payload"))
		return
	}

	rotation, err := h.service.SaveSummary(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rotation, nil)
}

// Unlock godoc
// @Summary Unlock a rotation summary
// @Description Reopens a locked header for editing
// @Tags Rotations
// @Produce json
// @Param number path int true "Rotation number"
// @Param variant query string true "Aircraft variant"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /rotations/{number}/unlock [post]
func (h *RotationHandler) Unlock(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid rotation number"))
		return
	}
	variant := c.Query("variant")
	if variant == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "variant is required"))
		return
	}

	if err := h.service.Unlock(c.Request.Context(), number, variant); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
