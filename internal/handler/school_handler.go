package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kgadmissions/enquiry-api/internal/service"
	appErrors "github.com/kgadmissions/enquiry-api/pkg/errors"
	"github.com/kgadmissions/enquiry-api/pkg/response"
)

// SchoolHandler serves the school reference directory.
type SchoolHandler struct {
	service *service.SchoolService
}

// NewSchoolHandler creates a new handler.
func NewSchoolHandler(svc *service.SchoolService) *SchoolHandler {
	return &SchoolHandler{service: svc}
}

// Suggestions godoc
// @Summary List school suggestions
// @Description Deduplicated school directory for the admission form picker
// @Tags Schools
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /school-blocks [get]
func (h *SchoolHandler) Suggestions(c *gin.Context) {
	blocks, err := h.service.Suggestions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, blocks, nil, map[string]interface{}{"count": len(blocks)})
}

// Import godoc
// @Summary Import the school directory
// @Description Replace the whole directory from an uploaded CSV file
// @Tags Schools
// @Accept mpfd
// @Produce json
// @Param file formData file true "CSV file [serial, district, block, school, address, pincode]"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /school-blocks/import [post]
func (h *SchoolHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "csv file upload required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read upload"))
		return
	}
	defer file.Close()

	result, err := h.service.Import(c.Request.Context(), file)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}
