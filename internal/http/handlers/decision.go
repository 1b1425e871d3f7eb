package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/aleator-backend/internal/http/response"
	"github.com/yungbote/aleator-backend/internal/pkg/logger"
	"github.com/yungbote/aleator-backend/internal/services"
)

type DecisionHandler struct {
	log       *logger.Logger
	decisions services.DecisionService
}

func NewDecisionHandler(log *logger.Logger, decisions services.DecisionService) *DecisionHandler {
	return &DecisionHandler{log: log.With("handler", "DecisionHandler"), decisions: decisions}
}

// GET /api/decisions
func (h *DecisionHandler) List(c *gin.Context) {
	list, err := h.decisions.List(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"decisions": list})
}

// POST /api/decisions
func (h *DecisionHandler) Create(c *gin.Context) {
	var in services.CreateDecisionInput
	if err := bindJSON(c, &in); err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	d, err := h.decisions.Create(c.Request.Context(), in)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"decision": d})
}

// GET /api/decisions/:id
func (h *DecisionHandler) Get(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	d, err := h.decisions.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"decision": d})
}

// PUT /api/decisions/:id
func (h *DecisionHandler) Update(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	var in services.UpdateDecisionInput
	if err := bindJSON(c, &in); err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	d, err := h.decisions.Update(c.Request.Context(), id, in)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"decision": d})
}

// DELETE /api/decisions/:id
func (h *DecisionHandler) Delete(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	if err := h.decisions.Delete(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type reorderRequest struct {
	DecisionIDs []uuid.UUID `json:"decision_ids" binding:"required"`
}

// POST /api/decisions/reorder
func (h *DecisionHandler) Reorder(c *gin.Context) {
	var req reorderRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	list, err := h.decisions.Reorder(c.Request.Context(), req.DecisionIDs)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"decisions": list})
}

// GET /api/decisions/:id/history?limit=
func (h *DecisionHandler) History(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	limit, err := intQuery(c, "limit", 100)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	rows, err := h.decisions.History(c.Request.Context(), id, limit)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"history": rows})
}
