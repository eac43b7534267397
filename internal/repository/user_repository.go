package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/kgadmissions/enquiry-api/internal/models"
)

// UserRepository reads staff logins.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByUsername fetches a staff user by username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.StaffUser, error) {
	const query = `SELECT id, username, password_hash, role, created_at
        FROM staff_users WHERE username = $1`
	var user models.StaffUser
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		return nil, err
	}
	return &user, nil
}
