package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kgadmissions/enquiry-api/internal/dto"
	"github.com/kgadmissions/enquiry-api/internal/models"
	appErrors "github.com/kgadmissions/enquiry-api/pkg/errors"
)

const statsCacheKey = "stats:enquiries"

type enquiryLister interface {
	List(ctx context.Context) ([]models.Enquiry, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// StatsService computes the dashboard aggregates over the full enquiry
// listing, recomputed on read and cached in Redis under a fixed key.
type StatsService struct {
	repo    enquiryLister
	cache   statsCache
	ttl     time.Duration
	enabled bool
	logger  *zap.Logger
}

// NewStatsService constructs a StatsService. cache may be nil when caching
// is disabled.
func NewStatsService(repo enquiryLister, cache statsCache, ttl time.Duration, enabled bool, logger *zap.Logger) *StatsService {
	return &StatsService{repo: repo, cache: cache, ttl: ttl, enabled: enabled && cache != nil, logger: logger}
}

// Overview returns the aggregated statistics, serving from cache when a
// fresh entry exists. The second return reports a cache hit.
func (s *StatsService) Overview(ctx context.Context) (*dto.EnquiryStatsResponse, bool, error) {
	if s.enabled {
		var cached dto.EnquiryStatsResponse
		err := s.cache.Get(ctx, statsCacheKey, &cached)
		if err == nil {
			return &cached, true, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("stats cache read failed", zap.Error(err))
		}
	}

	enquiries, err := s.repo.List(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute statistics")
	}
	stats := Aggregate(enquiries)

	if s.enabled {
		if err := s.cache.Set(ctx, statsCacheKey, stats, s.ttl); err != nil {
			s.logger.Warn("stats cache write failed", zap.Error(err))
		}
	}
	return stats, false, nil
}

// Invalidate drops the cached aggregates. Called after any record mutation.
func (s *StatsService) Invalidate(ctx context.Context) {
	if !s.enabled {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, statsCacheKey); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.Error(err))
	}
}

// Aggregate computes the dashboard statistics over the given enquiries.
// It never mutates its input.
func Aggregate(enquiries []models.Enquiry) *dto.EnquiryStatsResponse {
	stats := &dto.EnquiryStatsResponse{Total: len(enquiries)}

	districts := make(map[string]int)
	var male, female int
	var govt, mgmt int
	var busYes, busNo int
	var hostelYes, hostelNo int
	var cutoffSum float64
	var cutoffUsed int

	for i := range enquiries {
		enquiry := &enquiries[i]
		if enquiry.Status == models.StatusApproved {
			stats.Approved++
		} else {
			stats.Pending++
		}

		district := strings.TrimSpace(enquiry.Payload.District)
		if district == "" {
			district = "Other"
		}
		districts[district]++

		switch strings.ToLower(enquiry.Payload.Gender) {
		case "male":
			male++
		case "female":
			female++
		}
		switch strings.ToLower(enquiry.Payload.Quota) {
		case "government":
			govt++
		case "management":
			mgmt++
		}
		switch strings.ToLower(enquiry.Payload.Bus) {
		case "yes":
			busYes++
		case "no":
			busNo++
		}
		switch strings.ToLower(enquiry.Payload.Hostel) {
		case "yes":
			hostelYes++
		case "no":
			hostelNo++
		}

		if cutoff, ok := parseCutoff(enquiry.Payload.Marks12th.Cutoff); ok {
			cutoffSum += cutoff
			cutoffUsed++
		}
	}

	stats.Districts = sortDistricts(districts)
	stats.Gender = []dto.SplitCount{{Label: "Male", Count: male}, {Label: "Female", Count: female}}
	stats.Quota = []dto.SplitCount{{Label: "Government", Count: govt}, {Label: "Management", Count: mgmt}}
	stats.Bus = []dto.SplitCount{{Label: "Yes", Count: busYes}, {Label: "No", Count: busNo}}
	stats.Hostel = []dto.SplitCount{{Label: "Yes", Count: hostelYes}, {Label: "No", Count: hostelNo}}

	stats.Cutoff = dto.CutoffSummary{Average: "0.00", Used: cutoffUsed}
	if cutoffUsed > 0 {
		stats.Cutoff.Average = fmt.Sprintf("%.2f", cutoffSum/float64(cutoffUsed))
	}
	return stats
}

// parseCutoff accepts only finite positive values; blanks, junk and zeros
// are left out of the average.
func parseCutoff(raw string) (float64, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return 0, false
	}
	return value, true
}

func sortDistricts(counts map[string]int) []dto.DistrictCount {
	out := make([]dto.DistrictCount, 0, len(counts))
	for district, count := range counts {
		out = append(out, dto.DistrictCount{District: district, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].District < out[j].District
	})
	return out
}
