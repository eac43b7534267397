package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/kgadmissions/enquiry-api/internal/models"
)

const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a Postgres duplicate-key failure.
func IsUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// EnquiryRepository manages persistence for admission enquiries.
type EnquiryRepository struct {
	db *sqlx.DB
}

// NewEnquiryRepository constructs an EnquiryRepository.
func NewEnquiryRepository(db *sqlx.DB) *EnquiryRepository {
	return &EnquiryRepository{db: db}
}

// Create inserts a new enquiry and assigns its storage id. The app_number
// column carries a UNIQUE constraint; duplicate-key failures are returned
// unwrapped so callers can detect them with IsUniqueViolation.
func (r *EnquiryRepository) Create(ctx context.Context, enquiry *models.Enquiry) error {
	payload, err := json.Marshal(enquiry.Payload)
	if err != nil {
		return fmt.Errorf("encode enquiry payload: %w", err)
	}
	enquiry.FullData = payload
	if enquiry.SubmittedAt.IsZero() {
		enquiry.SubmittedAt = time.Now().UTC()
	}

	const query = `INSERT INTO enquiries (app_number, student_name, date, institution, course, phone1, status, full_data, submitted_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		enquiry.AppNumber,
		enquiry.StudentName,
		enquiry.Date,
		enquiry.Institution,
		enquiry.Course,
		enquiry.Phone1,
		enquiry.Status,
		enquiry.FullData,
		enquiry.SubmittedAt,
	).Scan(&enquiry.ID); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create enquiry: %w", err)
	}
	return nil
}

// List returns all enquiries ordered most-recent-first with decoded payloads.
func (r *EnquiryRepository) List(ctx context.Context) ([]models.Enquiry, error) {
	const query = `SELECT id, app_number, student_name, date, institution, course, phone1, status, full_data, submitted_at
        FROM enquiries ORDER BY submitted_at DESC, id DESC`
	var enquiries []models.Enquiry
	if err := r.db.SelectContext(ctx, &enquiries, query); err != nil {
		return nil, fmt.Errorf("list enquiries: %w", err)
	}
	for i := range enquiries {
		decodePayload(&enquiries[i])
	}
	return enquiries, nil
}

// FindByID fetches one enquiry by its storage id.
func (r *EnquiryRepository) FindByID(ctx context.Context, id int64) (*models.Enquiry, error) {
	const query = `SELECT id, app_number, student_name, date, institution, course, phone1, status, full_data, submitted_at
        FROM enquiries WHERE id = $1`
	var enquiry models.Enquiry
	if err := r.db.GetContext(ctx, &enquiry, query, id); err != nil {
		return nil, err
	}
	decodePayload(&enquiry)
	return &enquiry, nil
}

// Approve flips a Pending enquiry to Approved. The guard on the current
// status makes re-approval a no-op; the returned flag reports whether a row
// actually changed.
func (r *EnquiryRepository) Approve(ctx context.Context, id int64) (bool, error) {
	const query = `UPDATE enquiries SET status = $1 WHERE id = $2 AND status = $3`
	result, err := r.db.ExecContext(ctx, query, models.StatusApproved, id, models.StatusPending)
	if err != nil {
		return false, fmt.Errorf("approve enquiry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("approve enquiry: %w", err)
	}
	return affected > 0, nil
}

// decodePayload unpacks full_data into the Payload field. A corrupt document
// leaves the flattened columns usable rather than failing the read.
func decodePayload(enquiry *models.Enquiry) {
	if len(enquiry.FullData) == 0 {
		return
	}
	_ = json.Unmarshal(enquiry.FullData, &enquiry.Payload)
}
