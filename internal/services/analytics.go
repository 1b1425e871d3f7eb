package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/aleator-backend/internal/data/repos"
	types "github.com/yungbote/aleator-backend/internal/domain"
	"github.com/yungbote/aleator-backend/internal/engine"
	"github.com/yungbote/aleator-backend/internal/pkg/dbctx"
	"github.com/yungbote/aleator-backend/internal/pkg/logger"
)

type DecisionSummary struct {
	DecisionID uuid.UUID  `json:"decision_id"`
	Title      string     `json:"title"`
	Kind       types.Kind `json:"kind"`
	TotalRolls int64      `json:"total_rolls"`
	Confirmed  int64      `json:"confirmed_rolls"`
	Followed   int64      `json:"followed_rolls"`
	Rate       int        `json:"follow_through_rate"`
}

type Overview struct {
	TotalDecisions int               `json:"total_decisions"`
	TotalRolls     int64             `json:"total_rolls"`
	Confirmed      int64             `json:"confirmed_rolls"`
	Followed       int64             `json:"followed_rolls"`
	Rate           int               `json:"follow_through_rate"`
	Decisions      []DecisionSummary `json:"decisions"`
}

type AnalyticsService interface {
	Decision(ctx context.Context, decisionID uuid.UUID, full bool) (engine.Analytics, error)
	Overview(ctx context.Context) (*Overview, error)
}

type analyticsService struct {
	log       *logger.Logger
	engine    *engine.Engine
	decisions repos.DecisionRepo
	rolls     repos.RollRepo
	limits    Limits
}

func NewAnalyticsService(log *logger.Logger, eng *engine.Engine, decisions repos.DecisionRepo, rolls repos.RollRepo, limits Limits) AnalyticsService {
	return &analyticsService{
		log:       log.With("service", "AnalyticsService"),
		engine:    eng,
		decisions: decisions,
		rolls:     rolls,
		limits:    limits.withDefaults(),
	}
}

func (s *analyticsService) Decision(ctx context.Context, decisionID uuid.UUID, full bool) (engine.Analytics, error) {
	owner, err := requestUser(ctx)
	if err != nil {
		return engine.Analytics{}, err
	}
	if _, err := ownedDecision(dbctx.Context{Ctx: ctx}, s.decisions, owner, decisionID); err != nil {
		return engine.Analytics{}, err
	}
	return s.engine.Analytics(ctx, decisionID, engine.AnalyticsOptions{Points: s.limits.TimelinePoints, Full: full})
}

func (s *analyticsService) Overview(ctx context.Context) (*Overview, error) {
	owner, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}

	var (
		list  []*types.Decision
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		list, err = s.decisions.ListByOwner(dbctx.Context{Ctx: gctx}, owner)
		if err != nil {
			return fmt.Errorf("list decisions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		total, err = s.rolls.CountByOwner(dbctx.Context{Ctx: gctx}, owner)
		if err != nil {
			return fmt.Errorf("count rolls: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(list))
	for _, d := range list {
		ids = append(ids, d.ID)
	}
	counts, err := s.rolls.CountsByDecision(dbctx.Context{Ctx: ctx}, ids)
	if err != nil {
		return nil, fmt.Errorf("count rolls by decision: %w", err)
	}

	out := &Overview{TotalDecisions: len(list), TotalRolls: total, Decisions: make([]DecisionSummary, 0, len(list))}
	for _, d := range list {
		c := counts[d.ID]
		out.Confirmed += c.Confirmed
		out.Followed += c.Followed
		out.Decisions = append(out.Decisions, DecisionSummary{
			DecisionID: d.ID,
			Title:      d.Title,
			Kind:       d.Kind,
			TotalRolls: c.Total,
			Confirmed:  c.Confirmed,
			Followed:   c.Followed,
			Rate:       engine.Rate(int(c.Followed), int(c.Confirmed)),
		})
	}
	out.Rate = engine.Rate(int(out.Followed), int(out.Confirmed))
	return out, nil
}
