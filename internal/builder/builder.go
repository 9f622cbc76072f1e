// Package builder implements the rotation-building workflow: select or
// create a rotation, lock its summary header, then grow and shrink the leg
// chain one departure at a time against the backend services.
package builder

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/airops/netplan-api/internal/dto"
	"github.com/airops/netplan-api/internal/models"
	appErrors "github.com/airops/netplan-api/pkg/errors"
	"github.com/airops/netplan-api/pkg/hhmm"
)

// Mode is the builder workflow state.
type Mode int

const (
	// ModeUnselected means no rotation is loaded.
	ModeUnselected Mode = iota
	// ModeEditing means the summary header is open for changes and the leg
	// chain cannot be modified yet.
	ModeEditing
	// ModeLocked means the header is saved and chain mutations are allowed.
	ModeLocked
)

func (m Mode) String() string {
	switch m {
	case ModeEditing:
		return "editing"
	case ModeLocked:
		return "locked"
	default:
		return "unselected"
	}
}

// NewRotationSelection selects a fresh rotation number instead of an
// existing chain.
const NewRotationSelection = "new"

// RotationBackend is the slice of the rotation service the builder drives.
type RotationBackend interface {
	NextRotationNumber(ctx context.Context) (int, error)
	Rotation(ctx context.Context, number int, variant string) (*dto.RotationDetailsResponse, error)
	AppendLeg(ctx context.Context, req dto.AppendLegRequest) (*models.RotationLeg, error)
	RemoveLastLeg(ctx context.Context, req dto.DeleteLastLegRequest) error
	DeleteRotation(ctx context.Context, req dto.DeleteRotationRequest) error
	SaveSummary(ctx context.Context, req dto.SaveSummaryRequest) (*models.Rotation, error)
	Unlock(ctx context.Context, number int, variant string) error
}

// FlightBackend lists candidate flights for the next departure.
type FlightBackend interface {
	ListUnassigned(ctx context.Context, req dto.UnassignedFlightsRequest) ([]models.UnassignedFlight, error)
}

// Header is the editable rotation summary held by the builder.
type Header struct {
	RotationNumber int
	Variant        string
	RotationTag    string
	EffFromDate    string
	EffToDate      string
	Dow            string
}

// LegInput is the operator-entered form for one new departure. Gt may be
// blank and defaults to a zero turnaround.
type LegInput struct {
	FlightNumber string
	DepStn       string
	ArrStn       string
	Std          string
	Sta          string
	Bt           string
	Gt           string
	DomIntl      string
}

// Builder holds one operator's rotation editing session. All operations are
// serialized: while a backend call is in flight, further operations fail
// fast instead of queueing.
type Builder struct {
	rotations RotationBackend
	flights   FlightBackend

	mu      sync.Mutex
	pending bool
	mode    Mode
	header  Header
	legs    []models.RotationLeg
	draft   *LegInput
}

// New creates an empty builder session.
func New(rotations RotationBackend, flights FlightBackend) *Builder {
	return &Builder{rotations: rotations, flights: flights}
}

// begin claims the in-flight slot for one operation.
func (b *Builder) begin() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending {
		return appErrors.Clone(appErrors.ErrOperationPending, "")
	}
	b.pending = true
	return nil
}

func (b *Builder) end() {
	b.mu.Lock()
	b.pending = false
	b.mu.Unlock()
}

// Mode returns the current workflow state.
func (b *Builder) Mode() Mode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mode
}

// Header returns a copy of the session header.
func (b *Builder) Header() Header {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.header
}

// Legs returns a copy of the loaded chain in departure order.
func (b *Builder) Legs() []models.RotationLeg {
	b.mu.Lock()
	defer b.mu.Unlock()
	legs := make([]models.RotationLeg, len(b.legs))
	copy(legs, b.legs)
	return legs
}

// Draft returns the leg form preserved from the last failed append, or nil.
func (b *Builder) Draft() *LegInput {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.draft == nil {
		return nil
	}
	d := *b.draft
	return &d
}

// SelectRotation loads an existing rotation or reserves a fresh number when
// selection is "new". Loading replaces the whole session state.
func (b *Builder) SelectRotation(ctx context.Context, selection, variant string) error {
	if err := b.begin(); err != nil {
		return err
	}
	defer b.end()

	if variant == "" {
		return appErrors.Clone(appErrors.ErrValidation, "variant is required")
	}

	if selection == NewRotationSelection {
		number, err := b.rotations.NextRotationNumber(ctx)
		if err != nil {
			return err
		}
		b.mu.Lock()
		b.mode = ModeEditing
		b.header = Header{RotationNumber: number, Variant: variant}
		b.legs = nil
		b.draft = nil
		b.mu.Unlock()
		return nil
	}

	number, err := strconv.Atoi(selection)
	if err != nil || number < 1 {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid rotation selection %q", selection))
	}

	details, err := b.rotations.Rotation(ctx, number, variant)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.header = Header{
		RotationNumber: details.RotationSummary.RotationNumber,
		Variant:        details.RotationSummary.Variant,
		RotationTag:    details.RotationSummary.RotationTag,
		EffFromDate:    details.RotationSummary.EffFromDt,
		EffToDate:      details.RotationSummary.EffToDt,
		Dow:            details.RotationSummary.Dow,
	}
	b.legs = details.RotationDetails
	b.draft = nil
	if details.RotationSummary.Locked {
		b.mode = ModeLocked
	} else {
		b.mode = ModeEditing
	}
	b.mu.Unlock()
	return nil
}

// SetHeader updates the editable summary fields. The header must be open.
func (b *Builder) SetHeader(tag, effFrom, effTo, dow string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.mode {
	case ModeUnselected:
		return appErrors.Clone(appErrors.ErrNoRotationSelected, "")
	case ModeLocked:
		return appErrors.Clone(appErrors.ErrRotationLocked, "unlock the rotation before editing its header")
	}
	b.header.RotationTag = tag
	b.header.EffFromDate = effFrom
	b.header.EffToDate = effTo
	b.header.Dow = dow
	return nil
}

// SaveSummary persists the header and locks the session for leg editing.
func (b *Builder) SaveSummary(ctx context.Context) error {
	if err := b.begin(); err != nil {
		return err
	}
	defer b.end()

	b.mu.Lock()
	mode := b.mode
	header := b.header
	b.mu.Unlock()

	switch mode {
	case ModeUnselected:
		return appErrors.Clone(appErrors.ErrNoRotationSelected, "")
	case ModeLocked:
		return appErrors.Clone(appErrors.ErrRotationLocked, "summary is already saved")
	}

	if _, err := b.rotations.SaveSummary(ctx, dto.SaveSummaryRequest{
		RotationNumber:  header.RotationNumber,
		RotationTag:     header.RotationTag,
		EffFromDate:     header.EffFromDate,
		EffToDate:       header.EffToDate,
		Dow:             header.Dow,
		SelectedVariant: header.Variant,
	}); err != nil {
		return err
	}

	b.mu.Lock()
	b.mode = ModeLocked
	b.mu.Unlock()
	return nil
}

// Unlock reopens a saved header for editing.
func (b *Builder) Unlock(ctx context.Context) error {
	if err := b.begin(); err != nil {
		return err
	}
	defer b.end()

	b.mu.Lock()
	mode := b.mode
	header := b.header
	b.mu.Unlock()

	switch mode {
	case ModeUnselected:
		return appErrors.Clone(appErrors.ErrNoRotationSelected, "")
	case ModeEditing:
		return nil
	}

	if err := b.rotations.Unlock(ctx, header.RotationNumber, header.Variant); err != nil {
		return err
	}

	b.mu.Lock()
	b.mode = ModeEditing
	b.mu.Unlock()
	return nil
}

// AppendLeg submits one new tail departure. On failure the entered form is
// preserved as a draft so the operator can correct and resubmit; on success
// the draft is cleared and the chain grows locally.
func (b *Builder) AppendLeg(ctx context.Context, input LegInput) error {
	if err := b.begin(); err != nil {
		return err
	}
	defer b.end()

	b.mu.Lock()
	mode := b.mode
	header := b.header
	depNumber := len(b.legs) + 1
	b.mu.Unlock()

	if err := requireLocked(mode); err != nil {
		return err
	}

	if input.Gt == "" {
		input.Gt = "00:00"
	}

	leg, err := b.rotations.AppendLeg(ctx, dto.AppendLegRequest{
		RotationNumber: header.RotationNumber,
		DepNumber:      depNumber,
		FlightNumber:   input.FlightNumber,
		DepStn:         input.DepStn,
		Std:            input.Std,
		Bt:             input.Bt,
		Sta:            input.Sta,
		ArrStn:         input.ArrStn,
		Variant:        header.Variant,
		Dow:            header.Dow,
		EffFromDate:    header.EffFromDate,
		EffToDate:      header.EffToDate,
		DomIntl:        input.DomIntl,
		Gt:             input.Gt,
	})

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		draft := input
		b.draft = &draft
		return err
	}
	b.legs = append(b.legs, *leg)
	b.draft = nil
	return nil
}

// RemoveLastLeg deletes the tail departure. Removing the only departure
// deletes the whole rotation and clears the session.
func (b *Builder) RemoveLastLeg(ctx context.Context) error {
	if err := b.begin(); err != nil {
		return err
	}
	defer b.end()

	b.mu.Lock()
	mode := b.mode
	header := b.header
	var tail *models.RotationLeg
	if len(b.legs) > 0 {
		t := b.legs[len(b.legs)-1]
		tail = &t
	}
	b.mu.Unlock()

	if err := requireLocked(mode); err != nil {
		return err
	}
	if tail == nil {
		return appErrors.Clone(appErrors.ErrValidation, "rotation has no departures")
	}

	if err := b.rotations.RemoveLastLeg(ctx, dto.DeleteLastLegRequest{
		RotationNumber:  header.RotationNumber,
		SelectedVariant: header.Variant,
		DepNumber:       tail.DepNumber,
		LegID:           tail.ID,
	}); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.legs = b.legs[:len(b.legs)-1]
	if len(b.legs) == 0 {
		// the backend removed the rotation with its last departure
		b.mode = ModeUnselected
		b.header = Header{}
	}
	return nil
}

// DeleteRotation removes the whole chain and clears the session.
func (b *Builder) DeleteRotation(ctx context.Context) error {
	if err := b.begin(); err != nil {
		return err
	}
	defer b.end()

	b.mu.Lock()
	mode := b.mode
	header := b.header
	total := len(b.legs)
	b.mu.Unlock()

	if mode == ModeUnselected {
		return appErrors.Clone(appErrors.ErrNoRotationSelected, "")
	}

	if err := b.rotations.DeleteRotation(ctx, dto.DeleteRotationRequest{
		RotationNumber:  header.RotationNumber,
		SelectedVariant: header.Variant,
		TotalDepNumber:  total,
	}); err != nil {
		return err
	}

	b.mu.Lock()
	b.mode = ModeUnselected
	b.header = Header{}
	b.legs = nil
	b.draft = nil
	b.mu.Unlock()
	return nil
}

// NextDeparture derives where and when the next leg must depart: the
// trailing arrival station and its arrival time plus ground time. Both are
// blank for an empty chain, which places no constraint on candidates.
func (b *Builder) NextDeparture() (station, std string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.legs) == 0 {
		return "", "", nil
	}
	tail := b.legs[len(b.legs)-1]
	next, _, err := hhmm.Add(tail.Sta, tail.Gt)
	if err != nil {
		return "", "", err
	}
	return tail.ArrStn, next, nil
}

// Totals aggregates block, ground and turn time over the chain. The sums
// never wrap at 24 hours.
func (b *Builder) Totals() (models.RotationTotals, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	blockTimes := make([]string, 0, len(b.legs))
	groundTimes := make([]string, 0, len(b.legs))
	turnTimes := make([]string, 0, 2*len(b.legs))
	for _, leg := range b.legs {
		blockTimes = append(blockTimes, leg.Bt)
		groundTimes = append(groundTimes, leg.Gt)
		turnTimes = append(turnTimes, leg.Bt, leg.Gt)
	}

	totalBt, err := hhmm.Sum(blockTimes)
	if err != nil {
		return models.RotationTotals{}, err
	}
	totalGt, err := hhmm.Sum(groundTimes)
	if err != nil {
		return models.RotationTotals{}, err
	}
	totalTurn, err := hhmm.Sum(turnTimes)
	if err != nil {
		return models.RotationTotals{}, err
	}
	return models.RotationTotals{TotalBt: totalBt, TotalGt: totalGt, TotalTurnTime: totalTurn}, nil
}

// UnassignedFlights lists candidates able to continue the chain from its
// trailing station.
func (b *Builder) UnassignedFlights(ctx context.Context) ([]models.UnassignedFlight, error) {
	if err := b.begin(); err != nil {
		return nil, err
	}
	defer b.end()

	b.mu.Lock()
	mode := b.mode
	header := b.header
	var station, std string
	if len(b.legs) > 0 {
		tail := b.legs[len(b.legs)-1]
		next, _, err := hhmm.Add(tail.Sta, tail.Gt)
		if err != nil {
			b.mu.Unlock()
			return nil, err
		}
		station, std = tail.ArrStn, next
	}
	b.mu.Unlock()

	if err := requireLocked(mode); err != nil {
		return nil, err
	}

	return b.flights.ListUnassigned(ctx, dto.UnassignedFlightsRequest{
		AllowedDeptStn:  station,
		AllowedStdLt:    std,
		SelectedVariant: header.Variant,
		EffFromDate:     header.EffFromDate,
		EffToDate:       header.EffToDate,
		Dow:             header.Dow,
	})
}

func requireLocked(mode Mode) error {
	switch mode {
	case ModeUnselected:
		return appErrors.Clone(appErrors.ErrNoRotationSelected, "")
	case ModeEditing:
		return appErrors.Clone(appErrors.ErrValidation, "save the rotation summary before editing departures")
	}
	return nil
}
