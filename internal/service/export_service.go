package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kgadmissions/enquiry-api/internal/models"
	appErrors "github.com/kgadmissions/enquiry-api/pkg/errors"
	"github.com/kgadmissions/enquiry-api/pkg/export"
	"github.com/kgadmissions/enquiry-api/pkg/jobs"
	"github.com/kgadmissions/enquiry-api/pkg/storage"
)

type registerExporter interface {
	Render(reg export.Register) ([]byte, error)
}

// ExportConfig sizes the background export workers.
type ExportConfig struct {
	Workers int
	Retries int
}

// ExportService renders the enquiry register to CSV or PDF in the
// background and serves the results through signed download tokens.
type ExportService struct {
	enquiries enquiryLister
	store     *storage.ExportStore
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	queue     *jobs.Queue
	exporters map[models.ExportFormat]registerExporter

	mu      sync.RWMutex
	records map[string]*models.ExportJob

	now func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(enquiries enquiryLister, store *storage.ExportStore, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	s := &ExportService{
		enquiries: enquiries,
		store:     store,
		signer:    signer,
		logger:    logger,
		exporters: map[models.ExportFormat]registerExporter{
			models.ExportCSV: export.NewCSVExporter(),
			models.ExportPDF: export.NewPDFExporter(),
		},
		records: make(map[string]*models.ExportJob),
		now:     time.Now,
	}
	s.queue = jobs.NewQueue("exports", s.handleJob, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
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

// Request queues a new register export and returns its tracking record.
func (s *ExportService) Request(format models.ExportFormat, requestedBy string) (*models.ExportJob, error) {
	if _, ok := s.exporters[format]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	job := &models.ExportJob{
		ID:          uuid.NewString(),
		Format:      format,
		Status:      models.ExportQueued,
		RequestedBy: requestedBy,
		CreatedAt:   s.now().UTC(),
	}
	s.mu.Lock()
	s.records[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "export"}); err != nil {
		s.fail(job.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export")
	}

	s.logger.Info("export queued", zap.String("job_id", job.ID), zap.String("format", string(format)))
	return s.snapshot(job.ID), nil
}

// Status returns the current state of an export job.
func (s *ExportService) Status(jobID string) (*models.ExportJob, error) {
	job := s.snapshot(jobID)
	if job == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return job, nil
}

// DownloadToken issues a signed token for a completed export.
func (s *ExportService) DownloadToken(jobID string) (string, time.Time, error) {
	job := s.snapshot(jobID)
	if job == nil {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	if job.Status != models.ExportCompleted {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("export is %s", job.Status))
	}
	token, expiresAt, err := s.signer.Generate(job.ID, job.FilePath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}
	return token, expiresAt, nil
}

// Download validates a signed token and opens the referenced export file.
// The caller owns the returned handle.
func (s *ExportService) Download(token string) (*os.File, *models.ExportJob, error) {
	jobID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download token")
	}
	job := s.snapshot(jobID)
	if job == nil || job.Status != models.ExportCompleted || job.FilePath != relPath {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "export not available")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return file, job, nil
}

func (s *ExportService) handleJob(ctx context.Context, job jobs.Job) error {
	s.transition(job.ID, models.ExportRunning, "")

	record := s.snapshot(job.ID)
	if record == nil {
		return fmt.Errorf("export job %s unknown", job.ID)
	}

	enquiries, err := s.enquiries.List(ctx)
	if err != nil {
		s.fail(job.ID, err)
		return err
	}

	data, err := s.exporters[record.Format].Render(BuildRegister(enquiries))
	if err != nil {
		s.fail(job.ID, err)
		return err
	}

	filename := fmt.Sprintf("enquiry-register-%s.%s", record.ID, record.Format)
	relPath, err := s.store.Save(filename, data)
	if err != nil {
		s.fail(job.ID, err)
		return err
	}

	s.complete(job.ID, relPath)
	s.logger.Info("export completed",
		zap.String("job_id", job.ID),
		zap.String("file", relPath),
		zap.Int("rows", len(enquiries)))
	return nil
}

func (s *ExportService) snapshot(jobID string) *models.ExportJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.records[jobID]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

func (s *ExportService) transition(jobID string, status models.ExportJobStatus, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.records[jobID]; ok {
		job.Status = status
		job.Error = errMsg
	}
}

func (s *ExportService) complete(jobID, relPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.records[jobID]; ok {
		now := s.now().UTC()
		job.Status = models.ExportCompleted
		job.FilePath = relPath
		job.Error = ""
		job.CompletedAt = &now
	}
}

func (s *ExportService) fail(jobID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.records[jobID]; ok {
		job.Status = models.ExportFailed
		job.Error = err.Error()
	}
}

// BuildRegister flattens the enquiry listing into the tabular register the
// exporters render.
func BuildRegister(enquiries []models.Enquiry) export.Register {
	reg := export.Register{
		Title:   "Admission Enquiry Register",
		Headers: []string{"App Number", "Student Name", "Date", "Institution", "Course", "District", "Phone", "Cutoff", "Status"},
	}
	for i := range enquiries {
		enquiry := &enquiries[i]
		reg.Rows = append(reg.Rows, []string{
			enquiry.AppNumber,
			enquiry.StudentName,
			enquiry.Date,
			enquiry.Institution,
			enquiry.Course,
			enquiry.Payload.District,
			enquiry.Phone1,
			enquiry.Payload.Marks12th.Cutoff,
			string(enquiry.Status),
		})
	}
	return reg
}
