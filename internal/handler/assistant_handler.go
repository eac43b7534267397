package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kgadmissions/enquiry-api/internal/dto"
	"github.com/kgadmissions/enquiry-api/internal/service"
	appErrors "github.com/kgadmissions/enquiry-api/pkg/errors"
	"github.com/kgadmissions/enquiry-api/pkg/response"
)

// AssistantHandler serves the counselor lookup assistant.
type AssistantHandler struct {
	service    *service.AssistantService
	replyDelay time.Duration
}

// NewAssistantHandler creates a new handler. replyDelay paces the bot
// responses the way the chat client expects.
func NewAssistantHandler(svc *service.AssistantService, replyDelay time.Duration) *AssistantHandler {
	return &AssistantHandler{service: svc, replyDelay: replyDelay}
}

// Message godoc
// @Summary Send a message to the counsel assistant
// @Description Look up a student or file a comment against the selected one
// @Tags Assistant
// @Accept json
// @Produce json
// @Param payload body dto.AssistantMessageRequest true "Counselor message"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /assistant/messages [post]
func (h *AssistantHandler) Message(c *gin.Context) {
	var req dto.AssistantMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assistant payload"))
		return
	}
	if strings.TrimSpace(req.SessionID) == "" || strings.TrimSpace(req.Message) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "session_id and message are required"))
		return
	}

	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	reply, err := h.service.Handle(c.Request.Context(), req.SessionID, claims.Username, req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.replyDelay > 0 {
		timer := time.NewTimer(h.replyDelay)
		select {
		case <-c.Request.Context().Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	response.JSON(c, http.StatusOK, reply, nil)
}
