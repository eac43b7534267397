package handler

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/kgadmissions/enquiry-api/internal/models"
	"github.com/kgadmissions/enquiry-api/internal/service"
	appErrors "github.com/kgadmissions/enquiry-api/pkg/errors"
	"github.com/kgadmissions/enquiry-api/pkg/response"
)

// ExportHandler serves the asynchronous register exports.
type ExportHandler struct {
	service *service.ExportService
	metrics *service.MetricsService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.ExportService, metrics *service.MetricsService) *ExportHandler {
	return &ExportHandler{service: svc, metrics: metrics}
}

type exportRequest struct {
	Format models.ExportFormat `json:"format"`
}

// Request godoc
// @Summary Request a register export
// @Description Queue a CSV or PDF export of the enquiry register
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body exportRequest true "Export format"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /exports/enquiries [post]
func (h *ExportHandler) Request(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}

	requestedBy := ""
	if claims := claimsFromContext(c); claims != nil {
		requestedBy = claims.Username
	}

	job, err := h.service.Request(req.Format, requestedBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordExportRequest(string(job.Format))

	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status godoc
// @Summary Export job status
// @Description Report the state of a queued export; completed jobs include a signed download URL
// @Tags Exports
// @Produce json
// @Param id path string true "Export job id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exports/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	jobID := c.Param("id")
	job, err := h.service.Status(jobID)
	if err != nil {
		response.Error(c, err)
		return
	}

	meta := map[string]interface{}{}
	if job.Status == models.ExportCompleted {
		token, expiresAt, err := h.service.DownloadToken(jobID)
		if err != nil {
			response.Error(c, err)
			return
		}
		meta["download_url"] = fmt.Sprintf("/exports/%s/download?token=%s", jobID, token)
		meta["download_expires_at"] = expiresAt
	}

	response.JSON(c, http.StatusOK, job, nil, meta)
}

// Download godoc
// @Summary Download a finished export
// @Description Stream the rendered file referenced by a signed token
// @Tags Exports
// @Produce octet-stream
// @Param id path string true "Export job id"
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exports/{id}/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "download token required"))
		return
	}

	file, job, err := h.service.Download(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	if job.ID != c.Param("id") {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "token does not match export"))
		return
	}

	filename := filepath.Base(job.FilePath)
	contentType := "text/csv"
	if job.Format == models.ExportPDF {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", contentType)
	c.File(file.Name())
}
