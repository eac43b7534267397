package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kgadmissions/enquiry-api/internal/models"
)

// SchoolRepository manages the school reference directory.
type SchoolRepository struct {
	db *sqlx.DB
}

// NewSchoolRepository constructs a SchoolRepository.
func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// ListDistinct returns the deduplicated suggestion projection, ordered by
// district then school name.
func (r *SchoolRepository) ListDistinct(ctx context.Context) ([]models.SchoolBlock, error) {
	const query = `SELECT DISTINCT district, block_name, school_name, address, pincode
        FROM school_blocks
        WHERE school_name IS NOT NULL AND school_name <> ''
        ORDER BY district ASC, school_name ASC`
	var blocks []models.SchoolBlock
	if err := r.db.SelectContext(ctx, &blocks, query); err != nil {
		return nil, fmt.Errorf("list school blocks: %w", err)
	}
	return blocks, nil
}

// ReplaceAll clears the directory and loads the provided rows inside one
// transaction. Duplicate rows are dropped silently; the inserted count is
// returned.
func (r *SchoolRepository) ReplaceAll(ctx context.Context, blocks []models.SchoolBlock) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin school import: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM school_blocks`); err != nil {
		return 0, fmt.Errorf("clear school blocks: %w", err)
	}

	const insert = `INSERT INTO school_blocks (district, block_name, school_name, address, pincode)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (district, block_name, school_name, address, pincode) DO NOTHING`

	inserted := 0
	for _, block := range blocks {
		result, err := tx.ExecContext(ctx, insert, block.District, block.BlockName, block.SchoolName, block.Address, block.Pincode)
		if err != nil {
			return 0, fmt.Errorf("insert school block: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("insert school block: %w", err)
		}
		inserted += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit school import: %w", err)
	}
	return inserted, nil
}
