package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kgadmissions/enquiry-api/internal/models"
	"github.com/kgadmissions/enquiry-api/internal/repository"
	appErrors "github.com/kgadmissions/enquiry-api/pkg/errors"
)

// maxAppNumberAttempts bounds the retry loop on application-number
// collisions before the submission is rejected.
const maxAppNumberAttempts = 5

type enquiryRepository interface {
	Create(ctx context.Context, enquiry *models.Enquiry) error
	List(ctx context.Context) ([]models.Enquiry, error)
	FindByID(ctx context.Context, id int64) (*models.Enquiry, error)
	Approve(ctx context.Context, id int64) (bool, error)
}

// statsInvalidator drops cached dashboard aggregates after a write.
type statsInvalidator interface {
	Invalidate(ctx context.Context)
}

// EnquiryService implements submission, listing, search and the approval
// workflow for admission enquiries.
type EnquiryService struct {
	repo      enquiryRepository
	stats     statsInvalidator
	validator *validator.Validate
	logger    *zap.Logger

	now        func() time.Time
	randSuffix func() int
}

// NewEnquiryService constructs an EnquiryService. stats may be nil when the
// aggregate cache is disabled.
func NewEnquiryService(repo enquiryRepository, stats statsInvalidator, logger *zap.Logger) *EnquiryService {
	return &EnquiryService{
		repo:       repo,
		stats:      stats,
		validator:  validator.New(),
		logger:     logger,
		now:        time.Now,
		randSuffix: func() int { return 1000 + rand.Intn(9000) },
	}
}

// Submit validates the application payload, assigns an application number
// and persists the enquiry. The application number carries the submission
// year and a random four-digit suffix; a collision on the unique column is
// retried with a fresh suffix a bounded number of times.
func (s *EnquiryService) Submit(ctx context.Context, payload models.EnquiryPayload) (*models.Enquiry, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "student name is required")
	}

	now := s.now().UTC()
	if payload.Date == "" {
		payload.Date = now.Format("2006-01-02")
	}
	ApplyCutoff(&payload.Marks12th)

	for attempt := 0; attempt < maxAppNumberAttempts; attempt++ {
		enquiry := &models.Enquiry{
			AppNumber:   fmt.Sprintf("APP-%d-%04d", now.Year(), s.randSuffix()),
			StudentName: payload.StudentName,
			Date:        payload.Date,
			Institution: payload.Institution,
			Course:      payload.Course,
			Phone1:      payload.Phone1,
			Status:      models.StatusPending,
			SubmittedAt: now,
			Payload:     payload,
		}
		err := s.repo.Create(ctx, enquiry)
		if err == nil {
			s.logger.Info("enquiry submitted",
				zap.String("app_number", enquiry.AppNumber),
				zap.String("student", enquiry.StudentName))
			s.invalidateStats(ctx)
			return enquiry, nil
		}
		if repository.IsUniqueViolation(err) {
			s.logger.Warn("application number collision, retrying",
				zap.String("app_number", enquiry.AppNumber),
				zap.Int("attempt", attempt+1))
			continue
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save enquiry")
	}
	return nil, appErrors.Clone(appErrors.ErrConflict, "could not allocate a unique application number")
}

// List returns all enquiries, newest first, optionally narrowed by a
// case-insensitive search term.
func (s *EnquiryService) List(ctx context.Context, search string) ([]models.Enquiry, error) {
	enquiries, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enquiries")
	}
	return Filter(enquiries, search), nil
}

// Get fetches a single enquiry by its storage id.
func (s *EnquiryService) Get(ctx context.Context, id int64) (*models.Enquiry, error) {
	enquiry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enquiry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enquiry")
	}
	return enquiry, nil
}

// Approve moves a Pending enquiry to Approved. Approving an already
// approved enquiry is a silent no-op; an unknown id is an error.
func (s *EnquiryService) Approve(ctx context.Context, id int64) (*models.Enquiry, error) {
	changed, err := s.repo.Approve(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve enquiry")
	}
	enquiry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if changed {
		s.logger.Info("enquiry approved", zap.Int64("id", id), zap.String("app_number", enquiry.AppNumber))
		s.invalidateStats(ctx)
	}
	return enquiry, nil
}

func (s *EnquiryService) invalidateStats(ctx context.Context) {
	if s.stats != nil {
		s.stats.Invalidate(ctx)
	}
}

// Filter narrows enquiries to those matching term in any of the fields the
// dashboard search covers. An empty term returns the input unchanged.
func Filter(enquiries []models.Enquiry, term string) []models.Enquiry {
	term = strings.TrimSpace(strings.ToLower(term))
	if term == "" {
		return enquiries
	}
	matched := make([]models.Enquiry, 0, len(enquiries))
	for _, enquiry := range enquiries {
		if matchesTerm(&enquiry, term) {
			matched = append(matched, enquiry)
		}
	}
	return matched
}

func matchesTerm(enquiry *models.Enquiry, term string) bool {
	fields := []string{
		enquiry.StudentName,
		enquiry.Course,
		enquiry.Institution,
		enquiry.AppNumber,
		enquiry.Phone1,
		enquiry.Payload.Phone2,
		enquiry.Payload.Phone3,
		enquiry.Payload.SchoolName,
		enquiry.Payload.District,
		enquiry.Payload.AadhaarNo,
	}
	for _, field := range fields {
		if field != "" && strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
