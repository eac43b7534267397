package service

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/kgadmissions/enquiry-api/internal/models"
	appErrors "github.com/kgadmissions/enquiry-api/pkg/errors"
)

type schoolRepository interface {
	ListDistinct(ctx context.Context) ([]models.SchoolBlock, error)
	ReplaceAll(ctx context.Context, blocks []models.SchoolBlock) (int, error)
}

// ImportResult summarises one bulk directory load.
type ImportResult struct {
	Read     int `json:"read"`
	Skipped  int `json:"skipped"`
	Inserted int `json:"inserted"`
}

// SchoolService serves the school suggestion directory and its bulk loader.
type SchoolService struct {
	repo   schoolRepository
	logger *zap.Logger
}

// NewSchoolService constructs a SchoolService.
func NewSchoolService(repo schoolRepository, logger *zap.Logger) *SchoolService {
	return &SchoolService{repo: repo, logger: logger}
}

// Suggestions returns the deduplicated directory projection for the
// admission form's school picker.
func (s *SchoolService) Suggestions(ctx context.Context) ([]models.SchoolBlock, error) {
	blocks, err := s.repo.ListDistinct(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schools")
	}
	if blocks == nil {
		blocks = []models.SchoolBlock{}
	}
	return blocks, nil
}

// Import replaces the whole directory from a CSV stream. Rows are
// [serial, district, block, school, address, pincode]; a leading header row
// and rows lacking a district or school name are skipped.
func (s *SchoolService) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	result := &ImportResult{}
	var blocks []models.SchoolBlock
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed school directory file")
		}
		result.Read++
		block, ok := parseSchoolRow(row)
		if !ok {
			result.Skipped++
			continue
		}
		blocks = append(blocks, block)
	}

	inserted, err := s.repo.ReplaceAll(ctx, blocks)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import schools")
	}
	result.Inserted = inserted
	s.logger.Info("school directory imported",
		zap.Int("read", result.Read),
		zap.Int("skipped", result.Skipped),
		zap.Int("inserted", result.Inserted))
	return result, nil
}

func parseSchoolRow(row []string) (models.SchoolBlock, bool) {
	if len(row) < 4 {
		return models.SchoolBlock{}, false
	}
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	if serial := cell(0); strings.EqualFold(serial, "S NO") || strings.EqualFold(serial, "S.No") {
		return models.SchoolBlock{}, false
	}
	block := models.SchoolBlock{
		District:   cell(1),
		BlockName:  cell(2),
		SchoolName: cell(3),
		Address:    cell(4),
		Pincode:    cell(5),
	}
	if block.District == "" || block.SchoolName == "" {
		return models.SchoolBlock{}, false
	}
	return block, true
}
