package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/aleator-backend/internal/http/response"
	"github.com/yungbote/aleator-backend/internal/pkg/logger"
	"github.com/yungbote/aleator-backend/internal/services"
)

type AnalyticsHandler struct {
	log       *logger.Logger
	analytics services.AnalyticsService
}

func NewAnalyticsHandler(log *logger.Logger, analytics services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{log: log.With("handler", "AnalyticsHandler"), analytics: analytics}
}

// GET /api/decisions/:id/analytics?full=true
func (h *AnalyticsHandler) Decision(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	full, _ := strconv.ParseBool(c.Query("full"))
	a, err := h.analytics.Decision(c.Request.Context(), id, full)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, a)
}

// GET /api/analytics/overview
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	ov, err := h.analytics.Overview(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, ov)
}
