package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	types "github.com/yungbote/aleator-backend/internal/domain"
	"github.com/yungbote/aleator-backend/internal/engine"
	"github.com/yungbote/aleator-backend/internal/http/response"
	"github.com/yungbote/aleator-backend/internal/pkg/logger"
	"github.com/yungbote/aleator-backend/internal/services"
)

type RollHandler struct {
	log   *logger.Logger
	rolls services.RollService
}

func NewRollHandler(log *logger.Logger, rolls services.RollService) *RollHandler {
	return &RollHandler{log: log.With("handler", "RollHandler"), rolls: rolls}
}

type adjustDraftRequest struct {
	Draft    *types.Snapshot  `json:"draft"`
	ChoiceID uuid.UUID        `json:"choice_id"`
	Delta    *decimal.Decimal `json:"delta"`
	Value    *decimal.Decimal `json:"value"`
}

// POST /api/decisions/:id/draft
func (h *RollHandler) AdjustDraft(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	var req adjustDraftRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	draft, changed, err := h.rolls.AdjustDraft(c.Request.Context(), id, req.Draft, engine.Adjustment{
		ChoiceID: req.ChoiceID,
		Delta:    req.Delta,
		Value:    req.Value,
	})
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"draft": draft, "changed": changed})
}

type rollRequest struct {
	Draft *types.Snapshot `json:"draft"`
}

// POST /api/decisions/:id/roll
// The body is optional; without a draft the committed odds are used.
func (h *RollHandler) Roll(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	var req rollRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondServiceError(c, h.log, engine.Validationf("invalid request body: %v", err))
		return
	}
	roll, err := h.rolls.Roll(c.Request.Context(), id, req.Draft)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"roll": roll})
}

type confirmRequest struct {
	Followed *bool `json:"followed" binding:"required"`
}

// POST /api/decisions/:id/rolls/:roll_id/confirm
func (h *RollHandler) Confirm(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	rollID, err := uuidParam(c, "roll_id")
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	var req confirmRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	roll, err := h.rolls.Confirm(c.Request.Context(), id, rollID, *req.Followed)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"roll": roll})
}

// GET /api/decisions/:id/pending-roll
func (h *RollHandler) PendingRoll(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	roll, err := h.rolls.PendingRoll(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"roll": roll})
}

// GET /api/decisions/:id/status
func (h *RollHandler) Status(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	st, err := h.rolls.Status(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, st)
}
