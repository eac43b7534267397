package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kgadmissions/enquiry-api/internal/models"
	appErrors "github.com/kgadmissions/enquiry-api/pkg/errors"
	"github.com/kgadmissions/enquiry-api/pkg/storage"
)

func newTestExportService(t *testing.T, repo *mockEnquiryRepo) *ExportService {
	t.Helper()
	store, err := storage.NewExportStore(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("export-secret", time.Hour)
	svc := NewExportService(repo, store, signer, ExportConfig{Workers: 1, Retries: 1}, zap.NewNop())
	svc.Start(context.Background())
	t.Cleanup(svc.Stop)
	return svc
}

func waitForStatus(t *testing.T, svc *ExportService, jobID string, want models.ExportJobStatus) *models.ExportJob {
	t.Helper()
	var job *models.ExportJob
	require.Eventually(t, func() bool {
		current, err := svc.Status(jobID)
		if err != nil {
			return false
		}
		job = current
		return current.Status == want
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

func TestExportServiceCSVRoundTrip(t *testing.T) {
	repo := &mockEnquiryRepo{enquiries: []models.Enquiry{
		{ID: 1, AppNumber: "APP-2025-1234", StudentName: "Priya R", Course: "B.Sc CS", Status: models.StatusPending,
			Payload: models.EnquiryPayload{District: "Coimbatore", Marks12th: models.MarksTwelfth{Cutoff: "172.50"}}},
	}}
	svc := newTestExportService(t, repo)

	job, err := svc.Request(models.ExportCSV, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.ExportCSV, job.Format)

	done := waitForStatus(t, svc, job.ID, models.ExportCompleted)
	require.NotNil(t, done.CompletedAt)

	token, expiresAt, err := svc.DownloadToken(job.ID)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	file, downloaded, err := svc.Download(token)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, job.ID, downloaded.ID)

	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "App Number,Student Name"))
	assert.Contains(t, string(content), "APP-2025-1234")
	assert.Contains(t, string(content), "172.50")
}

func TestExportServicePDF(t *testing.T) {
	repo := &mockEnquiryRepo{enquiries: []models.Enquiry{
		{ID: 1, AppNumber: "APP-2025-1234", StudentName: "Priya R", Status: models.StatusApproved},
	}}
	svc := newTestExportService(t, repo)

	job, err := svc.Request(models.ExportPDF, "admin")
	require.NoError(t, err)
	waitForStatus(t, svc, job.ID, models.ExportCompleted)

	token, _, err := svc.DownloadToken(job.ID)
	require.NoError(t, err)
	file, _, err := svc.Download(token)
	require.NoError(t, err)
	defer file.Close()

	header := make([]byte, 5)
	_, err = io.ReadFull(file, header)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(header))
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := newTestExportService(t, &mockEnquiryRepo{})

	_, err := svc.Request(models.ExportFormat("xlsx"), "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceStatusUnknownJob(t *testing.T) {
	svc := newTestExportService(t, &mockEnquiryRepo{})

	_, err := svc.Status("missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportServiceDownloadTokenBeforeCompletion(t *testing.T) {
	svc := newTestExportService(t, &mockEnquiryRepo{})
	svc.Stop()

	job := &models.ExportJob{ID: "j1", Format: models.ExportCSV, Status: models.ExportQueued}
	svc.mu.Lock()
	svc.records[job.ID] = job
	svc.mu.Unlock()

	_, _, err := svc.DownloadToken("j1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestExportServiceDownloadRejectsTamperedToken(t *testing.T) {
	repo := &mockEnquiryRepo{enquiries: []models.Enquiry{{ID: 1, StudentName: "Priya R"}}}
	svc := newTestExportService(t, repo)

	job, err := svc.Request(models.ExportCSV, "admin")
	require.NoError(t, err)
	waitForStatus(t, svc, job.ID, models.ExportCompleted)

	token, _, err := svc.DownloadToken(job.ID)
	require.NoError(t, err)

	_, _, err = svc.Download(token + "x")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
