package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kgadmissions/enquiry-api/internal/models"
	"github.com/kgadmissions/enquiry-api/internal/service"
)

type fakeSchoolRepo struct {
	blocks   []models.SchoolBlock
	replaced []models.SchoolBlock
}

func (f *fakeSchoolRepo) ListDistinct(context.Context) ([]models.SchoolBlock, error) {
	return f.blocks, nil
}

func (f *fakeSchoolRepo) ReplaceAll(_ context.Context, blocks []models.SchoolBlock) (int, error) {
	f.replaced = blocks
	return len(blocks), nil
}

func TestSchoolHandlerSuggestions(t *testing.T) {
	repo := &fakeSchoolRepo{blocks: []models.SchoolBlock{
		{District: "Coimbatore", BlockName: "Annur", SchoolName: "GHSS Annur"},
	}}
	handler := NewSchoolHandler(service.NewSchoolService(repo, zap.NewNop()))

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/school-blocks", nil)

	handler.Suggestions(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var blocks []models.SchoolBlock
	require.NoError(t, json.Unmarshal(envelope.Data, &blocks))
	require.Len(t, blocks, 1)
	assert.Equal(t, "GHSS Annur", blocks[0].SchoolName)
}

func TestSchoolHandlerImport(t *testing.T) {
	repo := &fakeSchoolRepo{}
	handler := NewSchoolHandler(service.NewSchoolService(repo, zap.NewNop()))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "schools.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("S NO,DISTRICT,BLOCK,SCHOOL,ADDRESS,PINCODE\n1,Coimbatore,Annur,GHSS Annur,Main Road,641653\n"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/school-blocks/import", body)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())

	handler.Import(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var result service.ImportResult
	require.NoError(t, json.Unmarshal(envelope.Data, &result))
	assert.Equal(t, 2, result.Read)
	assert.Equal(t, 1, result.Inserted)
	require.Len(t, repo.replaced, 1)
}

func TestSchoolHandlerImportRequiresFile(t *testing.T) {
	handler := NewSchoolHandler(service.NewSchoolService(&fakeSchoolRepo{}, zap.NewNop()))

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/school-blocks/import", nil)

	handler.Import(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
