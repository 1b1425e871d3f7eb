package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/aleator-backend/internal/data/repos"
	types "github.com/yungbote/aleator-backend/internal/domain"
	"github.com/yungbote/aleator-backend/internal/engine"
	"github.com/yungbote/aleator-backend/internal/observability"
	"github.com/yungbote/aleator-backend/internal/pkg/dbctx"
	apperrors "github.com/yungbote/aleator-backend/internal/pkg/errors"
	"github.com/yungbote/aleator-backend/internal/pkg/logger"
)

// RollService exposes the engine to the request owner.
type RollService interface {
	AdjustDraft(ctx context.Context, decisionID uuid.UUID, draft *types.Snapshot, adj engine.Adjustment) (types.Snapshot, bool, error)
	Roll(ctx context.Context, decisionID uuid.UUID, draft *types.Snapshot) (*types.Roll, error)
	Confirm(ctx context.Context, decisionID, rollID uuid.UUID, followed bool) (*types.Roll, error)
	PendingRoll(ctx context.Context, decisionID uuid.UUID) (*types.Roll, error)
	Status(ctx context.Context, decisionID uuid.UUID) (engine.Status, error)
}

type rollService struct {
	log       *logger.Logger
	engine    *engine.Engine
	decisions repos.DecisionRepo
	rolls     repos.RollRepo
	limits    Limits
	metrics   *observability.Metrics
}

// NewRollService wires the engine behind ownership checks. metrics may be nil.
func NewRollService(log *logger.Logger, eng *engine.Engine, decisions repos.DecisionRepo, rolls repos.RollRepo, limits Limits, metrics *observability.Metrics) RollService {
	return &rollService{
		log:       log.With("service", "RollService"),
		engine:    eng,
		decisions: decisions,
		rolls:     rolls,
		limits:    limits.withDefaults(),
		metrics:   metrics,
	}
}

func (s *rollService) authorize(ctx context.Context, decisionID uuid.UUID) (uuid.UUID, *types.Decision, error) {
	owner, err := requestUser(ctx)
	if err != nil {
		return uuid.Nil, nil, err
	}
	d, err := ownedDecision(dbctx.Context{Ctx: ctx}, s.decisions, owner, decisionID)
	if err != nil {
		return uuid.Nil, nil, err
	}
	return owner, d, nil
}

func (s *rollService) AdjustDraft(ctx context.Context, decisionID uuid.UUID, draft *types.Snapshot, adj engine.Adjustment) (types.Snapshot, bool, error) {
	if _, _, err := s.authorize(ctx, decisionID); err != nil {
		return types.Snapshot{}, false, err
	}
	return s.engine.AdjustDraft(ctx, decisionID, draft, adj)
}

func (s *rollService) Roll(ctx context.Context, decisionID uuid.UUID, draft *types.Snapshot) (*types.Roll, error) {
	owner, d, err := s.authorize(ctx, decisionID)
	if err != nil {
		return nil, err
	}
	count, err := s.rolls.CountByOwner(dbctx.Context{Ctx: ctx}, owner)
	if err != nil {
		return nil, fmt.Errorf("count rolls: %w", err)
	}
	if count >= s.limits.MaxRollsPerUser {
		s.metrics.IncRollRejected("limit")
		return nil, &engine.Error{
			Kind:    engine.KindValidation,
			Message: fmt.Sprintf("you have reached the limit of %d rolls", s.limits.MaxRollsPerUser),
			Err:     apperrors.ErrLimitReached,
		}
	}
	roll, err := s.engine.Roll(ctx, decisionID, draft)
	if err != nil {
		if kind := engine.KindOf(err); kind != "" {
			s.metrics.IncRollRejected(string(kind))
		}
		return nil, err
	}
	s.metrics.IncRoll(string(d.Kind))
	s.log.Info("Roll created", "decision_id", decisionID, "roll_id", roll.ID, "user_id", owner)
	return roll, nil
}

func (s *rollService) Confirm(ctx context.Context, decisionID, rollID uuid.UUID, followed bool) (*types.Roll, error) {
	owner, d, err := s.authorize(ctx, decisionID)
	if err != nil {
		return nil, err
	}
	roll, err := s.engine.Confirm(ctx, decisionID, rollID, followed)
	if err != nil {
		return nil, err
	}
	s.metrics.IncConfirm(string(d.Kind), followed)
	s.log.Info("Roll confirmed", "decision_id", decisionID, "roll_id", rollID, "followed", followed, "user_id", owner)
	return roll, nil
}

func (s *rollService) PendingRoll(ctx context.Context, decisionID uuid.UUID) (*types.Roll, error) {
	if _, _, err := s.authorize(ctx, decisionID); err != nil {
		return nil, err
	}
	return s.engine.PendingRoll(ctx, decisionID)
}

func (s *rollService) Status(ctx context.Context, decisionID uuid.UUID) (engine.Status, error) {
	if _, _, err := s.authorize(ctx, decisionID); err != nil {
		return engine.Status{}, err
	}
	return s.engine.Status(ctx, decisionID)
}
