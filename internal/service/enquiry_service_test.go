package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kgadmissions/enquiry-api/internal/models"
	appErrors "github.com/kgadmissions/enquiry-api/pkg/errors"
)

type mockEnquiryRepo struct {
	enquiries   []models.Enquiry
	createErrs  []error
	created     []*models.Enquiry
	approveDone bool
	approveErr  error
}

func (m *mockEnquiryRepo) Create(_ context.Context, enquiry *models.Enquiry) error {
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		if err != nil {
			return err
		}
	}
	enquiry.ID = int64(len(m.created) + 1)
	m.created = append(m.created, enquiry)
	return nil
}

func (m *mockEnquiryRepo) List(_ context.Context) ([]models.Enquiry, error) {
	return m.enquiries, nil
}

func (m *mockEnquiryRepo) FindByID(_ context.Context, id int64) (*models.Enquiry, error) {
	for i := range m.enquiries {
		if m.enquiries[i].ID == id {
			return &m.enquiries[i], nil
		}
	}
	for _, e := range m.created {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnquiryRepo) Approve(_ context.Context, id int64) (bool, error) {
	if m.approveErr != nil {
		return false, m.approveErr
	}
	for i := range m.enquiries {
		if m.enquiries[i].ID == id && m.enquiries[i].Status == models.StatusPending {
			m.enquiries[i].Status = models.StatusApproved
			m.approveDone = true
			return true, nil
		}
	}
	return false, nil
}

type mockInvalidator struct {
	calls int
}

func (m *mockInvalidator) Invalidate(context.Context) { m.calls++ }

func newTestEnquiryService(repo *mockEnquiryRepo, stats statsInvalidator) *EnquiryService {
	svc := NewEnquiryService(repo, stats, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) }
	svc.randSuffix = func() int { return 4321 }
	return svc
}

func TestEnquiryServiceSubmit(t *testing.T) {
	repo := &mockEnquiryRepo{}
	stats := &mockInvalidator{}
	svc := newTestEnquiryService(repo, stats)

	payload := models.EnquiryPayload{
		StudentName: "Priya R",
		Course:      "B.E CSE",
		Institution: "KITE",
		Marks12th:   models.MarksTwelfth{MathsAccs: "90", PhyEco: "80", CheComm: "85"},
	}
	enquiry, err := svc.Submit(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, "APP-2025-4321", enquiry.AppNumber)
	assert.Equal(t, models.StatusPending, enquiry.Status)
	assert.Equal(t, "2025-06-15", enquiry.Date)
	assert.Equal(t, "172.50", enquiry.Payload.Marks12th.Cutoff)
	assert.Equal(t, 1, stats.calls)
}

func TestEnquiryServiceSubmitRequiresStudentName(t *testing.T) {
	repo := &mockEnquiryRepo{}
	svc := newTestEnquiryService(repo, nil)

	_, err := svc.Submit(context.Background(), models.EnquiryPayload{Course: "B.Sc CS"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, repo.created)
}

func TestEnquiryServiceSubmitRetriesOnCollision(t *testing.T) {
	repo := &mockEnquiryRepo{createErrs: []error{&pq.Error{Code: "23505"}, &pq.Error{Code: "23505"}}}
	svc := newTestEnquiryService(repo, nil)

	enquiry, err := svc.Submit(context.Background(), models.EnquiryPayload{StudentName: "Arun K"})
	require.NoError(t, err)
	assert.NotNil(t, enquiry)
	require.Len(t, repo.created, 1)
}

func TestEnquiryServiceSubmitExhaustsRetries(t *testing.T) {
	collisions := make([]error, maxAppNumberAttempts)
	for i := range collisions {
		collisions[i] = &pq.Error{Code: "23505"}
	}
	repo := &mockEnquiryRepo{createErrs: collisions}
	svc := newTestEnquiryService(repo, nil)

	_, err := svc.Submit(context.Background(), models.EnquiryPayload{StudentName: "Arun K"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEnquiryServiceListWithSearch(t *testing.T) {
	repo := &mockEnquiryRepo{enquiries: []models.Enquiry{
		{ID: 1, StudentName: "Priya R", Course: "B.Sc CS", Payload: models.EnquiryPayload{District: "Coimbatore"}},
		{ID: 2, StudentName: "Arun K", Course: "B.E CSE", Payload: models.EnquiryPayload{District: "Salem"}},
	}}
	svc := newTestEnquiryService(repo, nil)

	all, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	matched, err := svc.List(context.Background(), "salem")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "Arun K", matched[0].StudentName)
}

func TestEnquiryServiceApprove(t *testing.T) {
	repo := &mockEnquiryRepo{enquiries: []models.Enquiry{
		{ID: 5, AppNumber: "APP-2025-1111", Status: models.StatusPending},
	}}
	stats := &mockInvalidator{}
	svc := newTestEnquiryService(repo, stats)

	enquiry, err := svc.Approve(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, enquiry.Status)
	assert.Equal(t, 1, stats.calls)
}

func TestEnquiryServiceApproveAlreadyApprovedIsNoOp(t *testing.T) {
	repo := &mockEnquiryRepo{enquiries: []models.Enquiry{
		{ID: 5, AppNumber: "APP-2025-1111", Status: models.StatusApproved},
	}}
	stats := &mockInvalidator{}
	svc := newTestEnquiryService(repo, stats)

	enquiry, err := svc.Approve(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, enquiry.Status)
	assert.Equal(t, 0, stats.calls)
}

func TestEnquiryServiceApproveUnknownID(t *testing.T) {
	svc := newTestEnquiryService(&mockEnquiryRepo{}, nil)

	_, err := svc.Approve(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFilterMatchesAcrossFields(t *testing.T) {
	enquiries := []models.Enquiry{
		{ID: 1, AppNumber: "APP-2025-1234", StudentName: "Priya R", Phone1: "9876543210",
			Payload: models.EnquiryPayload{SchoolName: "GHSS Annur", AadhaarNo: "111122223333"}},
		{ID: 2, AppNumber: "APP-2025-5678", StudentName: "Arun K",
			Payload: models.EnquiryPayload{Phone2: "9000011111", District: "Salem"}},
	}

	tests := []struct {
		term     string
		expected []int64
	}{
		{"", []int64{1, 2}},
		{"APP-2025-1234", []int64{1}},
		{"priya", []int64{1}},
		{"annur", []int64{1}},
		{"9000011111", []int64{2}},
		{"111122223333", []int64{1}},
		{"nowhere", nil},
	}
	for _, tt := range tests {
		got := Filter(enquiries, tt.term)
		ids := make([]int64, 0, len(got))
		for _, e := range got {
			ids = append(ids, e.ID)
		}
		if tt.expected == nil {
			assert.Empty(t, ids, "term %q", tt.term)
			continue
		}
		assert.Equal(t, tt.expected, ids, "term %q", tt.term)
	}
}
