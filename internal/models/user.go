package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StaffRole labels what a logged-in staff member may do.
type StaffRole string

const (
	RoleAdmin     StaffRole = "admin"
	RoleCounselor StaffRole = "counselor"
)

// StaffUser represents a dashboard login stored in the staff_users table.
type StaffUser struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         StaffRole `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// StaffClaims are the token claims attached to authenticated requests.
type StaffClaims struct {
	Username string    `json:"username"`
	Role     StaffRole `json:"role"`
	jwt.RegisteredClaims
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Username    string    `json:"username"`
	Role        StaffRole `json:"role"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
