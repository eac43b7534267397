package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kgadmissions/enquiry-api/internal/service"
	"github.com/kgadmissions/enquiry-api/pkg/response"
)

// StatsHandler serves the dashboard aggregates.
type StatsHandler struct {
	service *service.StatsService
	metrics *service.MetricsService
}

// NewStatsHandler creates a new handler.
func NewStatsHandler(svc *service.StatsService, metrics *service.MetricsService) *StatsHandler {
	return &StatsHandler{service: svc, metrics: metrics}
}

// Overview godoc
// @Summary Enquiry statistics
// @Description Totals, district/gender/quota/transport splits and the average cutoff
// @Tags Statistics
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /stats/enquiries [get]
func (h *StatsHandler) Overview(c *gin.Context) {
	stats, cacheHit, err := h.service.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordStatsLookup(cacheHit)

	response.JSON(c, http.StatusOK, stats, nil, map[string]interface{}{"cached": cacheHit})
}
