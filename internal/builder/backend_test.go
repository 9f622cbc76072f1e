package builder

import (
	"github.com/airops/netplan-api/internal/service"
)

// The services are the only production backends; keep their method sets in
// lockstep with the builder interfaces.
var (
	_ RotationBackend = (*service.RotationService)(nil)
	_ FlightBackend   = (*service.FlightService)(nil)
)
