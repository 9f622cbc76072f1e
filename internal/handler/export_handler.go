package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/airops/netplan-api/internal/dto"
	"github.com/airops/netplan-api/internal/service"
	appErrors "github.com/airops/netplan-api/pkg/errors"
	"github.com/airops/netplan-api/pkg/response"
)

// ExportHandler serves rotation plan exports.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Create godoc
// @Summary Export a rotation plan
// @Description Schedules a CSV or PDF render and returns a signed download URL
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body dto.ExportPlanRequest true "Export payload"
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exports [post]
func (h *ExportHandler) Create(c *gin.Context) {
	var req dto.ExportPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}

	res, err := h.service.Enqueue(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, res, nil)
}

// Download godoc
// @Summary Download a rendered plan
// @Description Streams the file referenced by a signed token
// @Tags Exports
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exports/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	file, relPath, err := h.service.Download(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export"))
		return
	}

	contentType := "text/csv"
	if strings.EqualFold(filepath.Ext(relPath), ".pdf") {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", `attachment; filename="`+filepath.Base(relPath)+`"`)
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}
