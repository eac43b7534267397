package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kgadmissions/enquiry-api/internal/models"
)

// CommentRepository manages the append-only comment log.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository constructs a CommentRepository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Append stores a new comment for a record key.
func (r *CommentRepository) Append(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO enquiry_comments (id, record_key, text, author, created_at)
        VALUES (:id, :record_key, :text, :author, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, comment); err != nil {
		return fmt.Errorf("append comment: %w", err)
	}
	return nil
}

// ListByRecordKey returns all comments for a record, oldest first.
func (r *CommentRepository) ListByRecordKey(ctx context.Context, key string) ([]models.Comment, error) {
	const query = `SELECT id, record_key, text, author, created_at
        FROM enquiry_comments WHERE record_key = $1 ORDER BY created_at ASC`
	var comments []models.Comment
	if err := r.db.SelectContext(ctx, &comments, query, key); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}
