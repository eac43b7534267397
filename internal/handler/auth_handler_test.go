package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/kgadmissions/enquiry-api/internal/models"
	"github.com/kgadmissions/enquiry-api/internal/service"
)

type fakeStaffRepo struct {
	users map[string]*models.StaffUser
}

func (f *fakeStaffRepo) FindByUsername(_ context.Context, username string) (*models.StaffUser, error) {
	if user, ok := f.users[username]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func loginRequest(t *testing.T, handler *AuthHandler, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")
	handler.Login(c)
	return rec
}

func newAuthTestHandler(t *testing.T) *AuthHandler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &fakeStaffRepo{users: map[string]*models.StaffUser{
		"admin": {ID: "u1", Username: "admin", PasswordHash: string(hash), Role: models.RoleAdmin},
	}}
	svc := service.NewAuthService(repo, zap.NewNop(), service.AuthConfig{Secret: "test-secret", Expiration: time.Hour})
	return NewAuthHandler(svc)
}

func TestAuthHandlerLogin(t *testing.T) {
	handler := newAuthTestHandler(t)

	rec := loginRequest(t, handler, models.LoginRequest{Username: "admin", Password: "s3cret"})

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var login models.LoginResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &login))
	assert.NotEmpty(t, login.AccessToken)
	assert.Equal(t, models.RoleAdmin, login.Role)
}

func TestAuthHandlerLoginBadPassword(t *testing.T) {
	handler := newAuthTestHandler(t)

	rec := loginRequest(t, handler, models.LoginRequest{Username: "admin", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerLoginMissingPayload(t *testing.T) {
	handler := newAuthTestHandler(t)

	rec := loginRequest(t, handler, map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
