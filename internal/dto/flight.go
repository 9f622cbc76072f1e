package dto

import "github.com/airops/netplan-api/internal/models"

// UnassignedFlightsRequest filters candidate flights for the next
// departure of a chain. AllowedDeptStn and AllowedStdLt are blank for an
// empty chain.
type UnassignedFlightsRequest struct {
	AllowedDeptStn  string `json:"allowedDeptStn"`
	AllowedStdLt    string `json:"allowedStdLt"`
	SelectedVariant string `json:"selectedVariant" validate:"required"`
	EffFromDate     string `json:"effFromDate" validate:"required"`
	EffToDate       string `json:"effToDate" validate:"required"`
	Dow             string `json:"dow" validate:"required"`
}

// UnassignedFlightsResponse lists candidate flights.
type UnassignedFlightsResponse struct {
	Data []models.UnassignedFlight `json:"data"`
}
