package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/airops/netplan-api/internal/dto"
	"github.com/airops/netplan-api/internal/service"
	appErrors "github.com/airops/netplan-api/pkg/errors"
	"github.com/airops/netplan-api/pkg/response"
)

// FlightHandler serves flight candidate endpoints.
type FlightHandler struct {
	service *service.FlightService
}

// NewFlightHandler constructs handler.
func NewFlightHandler(svc *service.FlightService) *FlightHandler {
	return &FlightHandler{service: svc}
}

// Unassigned godoc
// @Summary List unassigned candidate flights
// @Description Flights without a rotation that can continue the current chain
// @Tags Flights
// @Accept json
// @Produce json
// @Param payload body dto.UnassignedFlightsRequest true "Chain constraints"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /flights/unassigned [post]
func (h *FlightHandler) Unassigned(c *gin.Context) {
	var req dto.UnassignedFlightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid candidates payload"))
		return
	}

	flights, err := h.service.ListUnassigned(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.UnassignedFlightsResponse{Data: flights}, nil)
}
