package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// EnsureSchema creates the tables the API needs when they do not exist yet.
// Run at boot so a fresh database is usable without a migration step.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS enquiries (
			id BIGSERIAL PRIMARY KEY,
			app_number TEXT UNIQUE,
			student_name TEXT NOT NULL,
			date TEXT,
			institution TEXT,
			course TEXT,
			phone1 TEXT,
			status TEXT NOT NULL DEFAULT 'Pending',
			full_data JSONB,
			submitted_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS school_blocks (
			id BIGSERIAL PRIMARY KEY,
			district TEXT,
			block_name TEXT,
			school_name TEXT,
			address TEXT,
			pincode TEXT,
			UNIQUE (district, block_name, school_name, address, pincode)
		)`,
		`CREATE TABLE IF NOT EXISTS enquiry_comments (
			id TEXT PRIMARY KEY,
			record_key TEXT NOT NULL,
			text TEXT NOT NULL,
			author TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_enquiry_comments_record_key ON enquiry_comments (record_key)`,
		`CREATE TABLE IF NOT EXISTS staff_users (
			id TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
