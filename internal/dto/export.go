package dto

import "time"

// ExportPlanRequest asks for a rotation plan file.
type ExportPlanRequest struct {
	RotationNumber int    `json:"rotationNumber" validate:"required,min=1"`
	Variant        string `json:"variant" validate:"required"`
	Format         string `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportPlanResponse returns the signed download location for a rendered
// plan.
type ExportPlanResponse struct {
	JobID     string    `json:"job_id"`
	Format    string    `json:"format"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
