package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/airops/netplan-api/internal/dto"
	"github.com/airops/netplan-api/internal/models"
	appErrors "github.com/airops/netplan-api/pkg/errors"
	"github.com/airops/netplan-api/pkg/export"
	"github.com/airops/netplan-api/pkg/hhmm"
	"github.com/airops/netplan-api/pkg/jobs"
	"github.com/airops/netplan-api/pkg/storage"
)

type rotationPlanReader interface {
	FindSummary(ctx context.Context, rotationNumber int, variant string) (*models.Rotation, error)
	ListLegs(ctx context.Context, rotationNumber int, variant string) ([]models.RotationLeg, error)
}

type exportJobPayload struct {
	RotationNumber int
	Variant        string
	Format         string
	RelPath        string
}

// ExportService renders rotation plans to CSV or PDF in the background and
// hands out signed download URLs.
type ExportService struct {
	reader    rotationPlanReader
	store     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	queue     *jobs.Queue
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	ttl       time.Duration
}

// ExportConfig carries export service tuning.
type ExportConfig struct {
	SignedURLTTL time.Duration
	Workers      int
	MaxRetries   int
}

// NewExportService wires the export pipeline and its worker queue.
func NewExportService(reader rotationPlanReader, store *storage.LocalStorage, signer *storage.SignedURLSigner, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ExportConfig) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExportService{
		reader:    reader,
		store:     store,
		signer:    signer,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		ttl:       cfg.SignedURLTTL,
	}
	s.queue = jobs.NewQueue("plan-exports", s.handleJob, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the export workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the export workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Enqueue schedules the plan render and immediately returns a signed URL
// pointing at the deterministic output path.
func (s *ExportService) Enqueue(ctx context.Context, req dto.ExportPlanRequest) (*dto.ExportPlanResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export request")
	}

	if _, err := s.reader.FindSummary(ctx, req.RotationNumber, req.Variant); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrRotationNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rotation")
	}

	jobID := uuid.NewString()
	relPath := planPath(req.RotationNumber, req.Variant, req.Format)

	if err := s.queue.Enqueue(jobs.Job{
		ID:   jobID,
		Type: "rotation-plan",
		Payload: exportJobPayload{
			RotationNumber: req.RotationNumber,
			Variant:        req.Variant,
			Format:         req.Format,
			RelPath:        relPath,
		},
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule export")
	}

	token, expiresAt, err := s.signer.Generate(jobID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}

	return &dto.ExportPlanResponse{
		JobID:     jobID,
		Format:    req.Format,
		URL:       fmt.Sprintf("/exports/download?token=%s", token),
		ExpiresAt: expiresAt,
	}, nil
}

// Download validates a signed token and opens the rendered file.
func (s *ExportService) Download(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		if os.IsNotExist(errors.Unwrap(err)) || os.IsNotExist(err) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export is not ready yet")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export")
	}
	return file, relPath, nil
}

// Cleanup removes rendered files older than the signed URL TTL.
func (s *ExportService) Cleanup() {
	deleted, err := s.store.CleanupOlderThan(s.ttl)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(deleted) > 0 {
		s.logger.Info("export files cleaned up", zap.Int("count", len(deleted)))
	}
}

func (s *ExportService) handleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(exportJobPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for job %s", job.ID)
	}

	err := s.render(ctx, payload)
	s.metrics.RecordExportJob(payload.Format, err)
	if err != nil {
		return fmt.Errorf("render plan %d/%s: %w", payload.RotationNumber, payload.Variant, err)
	}
	s.logger.Info("rotation plan rendered",
		zap.Int("rotation_number", payload.RotationNumber),
		zap.String("variant", payload.Variant),
		zap.String("format", payload.Format),
		zap.String("path", payload.RelPath))
	return nil
}

func (s *ExportService) render(ctx context.Context, payload exportJobPayload) error {
	summary, err := s.reader.FindSummary(ctx, payload.RotationNumber, payload.Variant)
	if err != nil {
		return fmt.Errorf("load rotation summary: %w", err)
	}
	legs, err := s.reader.ListLegs(ctx, payload.RotationNumber, payload.Variant)
	if err != nil {
		return fmt.Errorf("load rotation legs: %w", err)
	}

	dataset := planDataset(legs)

	var data []byte
	switch payload.Format {
	case "pdf":
		title := fmt.Sprintf("ROTATION %d / %s", summary.RotationNumber, summary.Variant)
		data, err = s.pdf.Render(dataset, title)
	default:
		data, err = s.csv.Render(dataset)
	}
	if err != nil {
		return err
	}

	if _, err := s.store.Save(payload.RelPath, data); err != nil {
		return err
	}
	return nil
}

var planHeaders = []string{"DEP NO", "FLIGHT", "FROM", "STD", "BLOCK", "STA", "TO", "GROUND", "D-I"}

func planDataset(legs []models.RotationLeg) export.Dataset {
	rows := make([]map[string]string, 0, len(legs)+1)
	blockTimes := make([]string, 0, len(legs))
	groundTimes := make([]string, 0, len(legs))
	for _, leg := range legs {
		rows = append(rows, map[string]string{
			"DEP NO": strconv.Itoa(leg.DepNumber),
			"FLIGHT": leg.FlightNumber,
			"FROM":   leg.DepStn,
			"STD":    leg.Std,
			"BLOCK":  leg.Bt,
			"STA":    leg.Sta,
			"TO":     leg.ArrStn,
			"GROUND": leg.Gt,
			"D-I":    leg.DomIntl,
		})
		blockTimes = append(blockTimes, leg.Bt)
		groundTimes = append(groundTimes, leg.Gt)
	}

	totalBt, errBt := hhmm.Sum(blockTimes)
	totalGt, errGt := hhmm.Sum(groundTimes)
	if errBt == nil && errGt == nil && len(legs) > 0 {
		rows = append(rows, map[string]string{
			"DEP NO": "TOTAL",
			"BLOCK":  totalBt,
			"GROUND": totalGt,
		})
	}

	return export.Dataset{Headers: planHeaders, Rows: rows}
}

func planPath(rotationNumber int, variant, format string) string {
	return fmt.Sprintf("%d-%s.%s", rotationNumber, strings.ToLower(variant), format)
}
