package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kgadmissions/enquiry-api/internal/middleware"
	"github.com/kgadmissions/enquiry-api/internal/models"
	"github.com/kgadmissions/enquiry-api/internal/service"
	"github.com/kgadmissions/enquiry-api/pkg/storage"
)

func newExportTestHandler(t *testing.T, repo *fakeEnquiryRepo) (*ExportHandler, *service.ExportService) {
	t.Helper()
	store, err := storage.NewExportStore(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("export-secret", time.Hour)
	svc := service.NewExportService(repo, store, signer, service.ExportConfig{Workers: 1}, zap.NewNop())
	svc.Start(context.Background())
	t.Cleanup(svc.Stop)
	return NewExportHandler(svc, service.NewMetricsService()), svc
}

func TestExportHandlerRequestAndDownload(t *testing.T) {
	repo := &fakeEnquiryRepo{enquiries: []models.Enquiry{
		{ID: 1, AppNumber: "APP-2025-1234", StudentName: "Priya R", Status: models.StatusPending},
	}}
	handler, svc := newExportTestHandler(t, repo)

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	raw, _ := json.Marshal(map[string]string{"format": "csv"})
	c.Request = httptest.NewRequest(http.MethodPost, "/exports/enquiries", bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.StaffClaims{Username: "admin", Role: models.RoleAdmin})

	handler.Request(c)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var job models.ExportJob
	require.NoError(t, json.Unmarshal(envelope.Data, &job))
	assert.Equal(t, "admin", job.RequestedBy)

	require.Eventually(t, func() bool {
		current, err := svc.Status(job.ID)
		return err == nil && current.Status == models.ExportCompleted
	}, 5*time.Second, 10*time.Millisecond)

	statusRec := httptest.NewRecorder()
	sc, _ := gin.CreateTestContext(statusRec)
	sc.Request = httptest.NewRequest(http.MethodGet, "/exports/"+job.ID, nil)
	sc.Params = gin.Params{{Key: "id", Value: job.ID}}
	handler.Status(sc)

	require.Equal(t, http.StatusOK, statusRec.Code)
	var statusEnvelope responseEnvelope
	require.NoError(t, json.Unmarshal(statusRec.Body.Bytes(), &statusEnvelope))
	downloadURL, _ := statusEnvelope.Meta["download_url"].(string)
	require.NotEmpty(t, downloadURL)

	dlRec := httptest.NewRecorder()
	dc, _ := gin.CreateTestContext(dlRec)
	dc.Request = httptest.NewRequest(http.MethodGet, downloadURL, nil)
	dc.Params = gin.Params{{Key: "id", Value: job.ID}}
	handler.Download(dc)

	require.Equal(t, http.StatusOK, dlRec.Code)
	assert.Contains(t, dlRec.Body.String(), "APP-2025-1234")
}

func TestExportHandlerRejectsUnknownFormat(t *testing.T) {
	handler, _ := newExportTestHandler(t, &fakeEnquiryRepo{})

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	raw, _ := json.Marshal(map[string]string{"format": "xlsx"})
	c.Request = httptest.NewRequest(http.MethodPost, "/exports/enquiries", bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Request(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportHandlerDownloadRequiresToken(t *testing.T) {
	handler, _ := newExportTestHandler(t, &fakeEnquiryRepo{})

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/exports/j1/download", nil)
	c.Params = gin.Params{{Key: "id", Value: "j1"}}

	handler.Download(c)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
