package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/aleator-backend/internal/http/response"
	"github.com/yungbote/aleator-backend/internal/pkg/logger"
	"github.com/yungbote/aleator-backend/internal/services"
)

type StatsHandler struct {
	log   *logger.Logger
	stats services.StatsService
}

func NewStatsHandler(log *logger.Logger, stats services.StatsService) *StatsHandler {
	return &StatsHandler{log: log.With("handler", "StatsHandler"), stats: stats}
}

// GET /api/stats
func (h *StatsHandler) Get(c *gin.Context) {
	st, err := h.stats.Get(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, st)
}
