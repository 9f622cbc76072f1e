package dto

import "github.com/airops/netplan-api/internal/models"

// NextRotationNumberResponse carries the next free rotation number
// reserved for a new chain.
type NextRotationNumberResponse struct {
	NextRotationNumber int `json:"nextRotationNumber"`
}

// RotationDetailsResponse bundles the ordered leg chain and its summary
// header for one rotation+variant pair.
type RotationDetailsResponse struct {
	RotationDetails []models.RotationLeg `json:"rotationDetails"`
	RotationSummary models.Rotation      `json:"rotationSummary"`
}

// AppendLegRequest submits one new departure to the tail of a chain.
// DepNumber must be the current chain length plus one.
type AppendLegRequest struct {
	RotationNumber int    `json:"rotationNumber" validate:"required,min=1"`
	DepNumber      int    `json:"depNumber" validate:"required,min=1"`
	FlightNumber   string `json:"flightNumber" validate:"required"`
	DepStn         string `json:"depStn" validate:"required"`
	Std            string `json:"std" validate:"required"`
	Bt             string `json:"bt" validate:"required"`
	Sta            string `json:"sta" validate:"required"`
	ArrStn         string `json:"arrStn" validate:"required"`
	Variant        string `json:"variant" validate:"required"`
	Dow            string `json:"dow" validate:"required"`
	EffFromDate    string `json:"effFromDate" validate:"required"`
	EffToDate      string `json:"effToDate" validate:"required"`
	DomIntl        string `json:"domIntl"`
	Gt             string `json:"gt"`
}

// DeleteLastLegRequest removes the tail departure of a chain by its
// persisted id.
type DeleteLastLegRequest struct {
	RotationNumber  int    `json:"rotationNumber" validate:"required,min=1"`
	SelectedVariant string `json:"selectedVariant" validate:"required"`
	DepNumber       int    `json:"depNumber" validate:"required,min=1"`
	LegID           string `json:"legId" validate:"required"`
}

// DeleteRotationRequest removes every departure of a rotation+variant pair.
type DeleteRotationRequest struct {
	RotationNumber  int    `json:"rotationNumber" validate:"required,min=1"`
	SelectedVariant string `json:"selectedVariant" validate:"required"`
	TotalDepNumber  int    `json:"totalDepNumber"`
}

// SaveSummaryRequest persists the rotation header and locks it.
type SaveSummaryRequest struct {
	RotationNumber  int    `json:"rotationNumber" validate:"required,min=1"`
	RotationTag     string `json:"rotationTag"`
	EffFromDate     string `json:"effFromDate" validate:"required"`
	EffToDate       string `json:"effToDate" validate:"required"`
	Dow             string `json:"dow" validate:"required"`
	SelectedVariant string `json:"selectedVariant" validate:"required"`
}
