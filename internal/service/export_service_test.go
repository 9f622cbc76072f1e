package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airops/netplan-api/internal/dto"
	"github.com/airops/netplan-api/internal/models"
	appErrors "github.com/airops/netplan-api/pkg/errors"
	"github.com/airops/netplan-api/pkg/storage"
)

type stubPlanReader struct {
	summary *models.Rotation
	legs    []models.RotationLeg
}

func (r *stubPlanReader) FindSummary(ctx context.Context, rotationNumber int, variant string) (*models.Rotation, error) {
	return r.summary, nil
}

func (r *stubPlanReader) ListLegs(ctx context.Context, rotationNumber int, variant string) ([]models.RotationLeg, error) {
	return r.legs, nil
}

func TestPlanDatasetIncludesTotalsRow(t *testing.T) {
	dataset := planDataset([]models.RotationLeg{
		{DepNumber: 1, FlightNumber: "AB1", DepStn: "JFK", ArrStn: "LAX", Std: "06:00", Sta: "16:00", Bt: "10:00", Gt: "01:00", DomIntl: "DOM"},
		{DepNumber: 2, FlightNumber: "AB2", DepStn: "LAX", ArrStn: "JFK", Std: "17:00", Sta: "03:00", Bt: "10:00", Gt: "01:00", DomIntl: "DOM"},
		{DepNumber: 3, FlightNumber: "AB3", DepStn: "JFK", ArrStn: "LAX", Std: "04:00", Sta: "10:15", Bt: "06:15", DomIntl: "DOM"},
	})

	require.Len(t, dataset.Rows, 4)
	assert.Equal(t, "1", dataset.Rows[0]["DEP NO"])
	assert.Equal(t, "AB1", dataset.Rows[0]["FLIGHT"])

	totals := dataset.Rows[3]
	assert.Equal(t, "TOTAL", totals["DEP NO"])
	assert.Equal(t, "26:15", totals["BLOCK"], "block total must not wrap at 24h")
	assert.Equal(t, "02:00", totals["GROUND"])
}

func TestPlanPath(t *testing.T) {
	assert.Equal(t, "7-73h.csv", planPath(7, "73H", "csv"))
	assert.Equal(t, "12-a20n.pdf", planPath(12, "A20N", "pdf"))
}

func TestEnqueueRendersPlan(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)

	reader := &stubPlanReader{
		summary: &models.Rotation{RotationNumber: 7, Variant: "73H"},
		legs: []models.RotationLeg{
			{DepNumber: 1, FlightNumber: "AB1", DepStn: "JFK", ArrStn: "LAX", Std: "08:00", Sta: "10:00", Bt: "02:00", Gt: "00:45", DomIntl: "DOM"},
		},
	}

	svc := NewExportService(reader, store, signer, nil, nil, nil, ExportConfig{SignedURLTTL: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	res, err := svc.Enqueue(ctx, dto.ExportPlanRequest{RotationNumber: 7, Variant: "73H", Format: "csv"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.JobID)
	assert.Contains(t, res.URL, "/exports/download?token=")

	require.Eventually(t, func() bool {
		_, statErr := os.Stat(filepath.Join(dir, "7-73h.csv"))
		return statErr == nil
	}, 2*time.Second, 20*time.Millisecond)
}

func TestDownloadRejectsInvalidToken(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)

	svc := NewExportService(&stubPlanReader{}, store, signer, nil, nil, nil, ExportConfig{})

	_, _, err = svc.Download("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
