package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kgadmissions/enquiry-api/internal/models"
	"github.com/kgadmissions/enquiry-api/internal/service"
	appErrors "github.com/kgadmissions/enquiry-api/pkg/errors"
	"github.com/kgadmissions/enquiry-api/pkg/response"
)

// EnquiryHandler wires HTTP endpoints to the enquiry service.
type EnquiryHandler struct {
	service *service.EnquiryService
}

// NewEnquiryHandler creates a new handler.
func NewEnquiryHandler(svc *service.EnquiryService) *EnquiryHandler {
	return &EnquiryHandler{service: svc}
}

// Submit godoc
// @Summary Submit an admission enquiry
// @Description Validate and persist a new admission application
// @Tags Enquiries
// @Accept json
// @Produce json
// @Param payload body models.EnquiryPayload true "Application form"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enquiries [post]
func (h *EnquiryHandler) Submit(c *gin.Context) {
	var payload models.EnquiryPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid application payload"))
		return
	}

	enquiry, err := h.service.Submit(c.Request.Context(), payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, enquiry)
}

// List godoc
// @Summary List admission enquiries
// @Description List all enquiries newest first, optionally narrowed by a search term
// @Tags Enquiries
// @Produce json
// @Param search query string false "Case-insensitive search term"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /enquiries [get]
func (h *EnquiryHandler) List(c *gin.Context) {
	enquiries, err := h.service.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, enquiries, nil, map[string]interface{}{"count": len(enquiries)})
}

// Get godoc
// @Summary Fetch one enquiry
// @Tags Enquiries
// @Produce json
// @Param id path int true "Enquiry id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enquiries/{id} [get]
func (h *EnquiryHandler) Get(c *gin.Context) {
	id, ok := enquiryID(c)
	if !ok {
		return
	}

	enquiry, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, enquiry, nil)
}

// Approve godoc
// @Summary Approve an enquiry
// @Description Move a pending enquiry to Approved; approving twice is a no-op
// @Tags Enquiries
// @Produce json
// @Param id path int true "Enquiry id"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enquiries/{id}/approve [post]
func (h *EnquiryHandler) Approve(c *gin.Context) {
	id, ok := enquiryID(c)
	if !ok {
		return
	}

	enquiry, err := h.service.Approve(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, enquiry, nil)
}

func enquiryID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid enquiry id"))
		return 0, false
	}
	return id, true
}
