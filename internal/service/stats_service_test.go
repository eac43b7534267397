package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kgadmissions/enquiry-api/internal/dto"
	"github.com/kgadmissions/enquiry-api/internal/models"
	appErrors "github.com/kgadmissions/enquiry-api/pkg/errors"
)

type mockStatsCache struct {
	stored  *dto.EnquiryStatsResponse
	deletes int
}

func (m *mockStatsCache) Get(_ context.Context, key string, dest interface{}) error {
	if m.stored == nil {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*dto.EnquiryStatsResponse)) = *m.stored
	return nil
}

func (m *mockStatsCache) Set(_ context.Context, _ string, value interface{}, _ time.Duration) error {
	stats := value.(*dto.EnquiryStatsResponse)
	copied := *stats
	m.stored = &copied
	return nil
}

func (m *mockStatsCache) DeleteByPattern(context.Context, string) error {
	m.stored = nil
	m.deletes++
	return nil
}

func enquiryWith(district, gender, quota, bus, hostel, cutoff string, status models.EnquiryStatus) models.Enquiry {
	return models.Enquiry{
		Status: status,
		Payload: models.EnquiryPayload{
			District:  district,
			Gender:    gender,
			Quota:     quota,
			Bus:       bus,
			Hostel:    hostel,
			Marks12th: models.MarksTwelfth{Cutoff: cutoff},
		},
	}
}

func TestAggregate(t *testing.T) {
	enquiries := []models.Enquiry{
		enquiryWith("Coimbatore", "Female", "Government", "Yes", "No", "80.00", models.StatusApproved),
		enquiryWith("Coimbatore", "MALE", "management", "no", "yes", "90.00", models.StatusPending),
		enquiryWith("Salem", "female", "Government", "Yes", "", "bad", models.StatusPending),
		enquiryWith("", "", "", "", "", "0.00", models.StatusPending),
	}

	stats := Aggregate(enquiries)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Approved)
	assert.Equal(t, 3, stats.Pending)
	require.Len(t, stats.Districts, 3)
	assert.Equal(t, dto.DistrictCount{District: "Coimbatore", Count: 2}, stats.Districts[0])
	assert.Equal(t, dto.SplitCount{Label: "Male", Count: 1}, stats.Gender[0])
	assert.Equal(t, dto.SplitCount{Label: "Female", Count: 2}, stats.Gender[1])
	assert.Equal(t, dto.SplitCount{Label: "Government", Count: 2}, stats.Quota[0])
	assert.Equal(t, dto.SplitCount{Label: "Yes", Count: 2}, stats.Bus[0])
	assert.Equal(t, dto.SplitCount{Label: "Yes", Count: 1}, stats.Hostel[0])
	assert.Equal(t, "85.00", stats.Cutoff.Average)
	assert.Equal(t, 2, stats.Cutoff.Used)
}

func TestAggregateDistrictTieBreaksByName(t *testing.T) {
	enquiries := []models.Enquiry{
		enquiryWith("Salem", "", "", "", "", "", models.StatusPending),
		enquiryWith("Coimbatore", "", "", "", "", "", models.StatusPending),
	}
	stats := Aggregate(enquiries)
	require.Len(t, stats.Districts, 2)
	assert.Equal(t, "Coimbatore", stats.Districts[0].District)
	assert.Equal(t, "Salem", stats.Districts[1].District)
}

func TestAggregateEmpty(t *testing.T) {
	stats := Aggregate(nil)
	assert.Equal(t, 0, stats.Total)
	assert.Empty(t, stats.Districts)
	assert.Equal(t, "0.00", stats.Cutoff.Average)
	assert.Equal(t, 0, stats.Cutoff.Used)
}

func TestStatsServiceOverviewCaches(t *testing.T) {
	repo := &mockEnquiryRepo{enquiries: []models.Enquiry{
		enquiryWith("Coimbatore", "Male", "Government", "Yes", "No", "172.50", models.StatusPending),
	}}
	cache := &mockStatsCache{}
	svc := NewStatsService(repo, cache, time.Minute, true, zap.NewNop())

	stats, hit, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, stats.Total)

	stats, hit, err = svc.Overview(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, stats.Total)

	svc.Invalidate(context.Background())
	assert.Equal(t, 1, cache.deletes)

	_, hit, err = svc.Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestStatsServiceOverviewCacheDisabled(t *testing.T) {
	repo := &mockEnquiryRepo{}
	svc := NewStatsService(repo, nil, time.Minute, true, zap.NewNop())

	_, hit, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)

	// Invalidate must be safe with no cache wired.
	svc.Invalidate(context.Background())
}
