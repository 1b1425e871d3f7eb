package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/aleator-backend/internal/data/repos"
	types "github.com/yungbote/aleator-backend/internal/domain"
	"github.com/yungbote/aleator-backend/internal/engine"
	"github.com/yungbote/aleator-backend/internal/pkg/dbctx"
	"github.com/yungbote/aleator-backend/internal/pkg/logger"
)

// DecisionStore backs the engine with the gorm repos. A store returned by
// Atomically is bound to that transaction.
type DecisionStore struct {
	db        *gorm.DB
	tx        *gorm.DB
	log       *logger.Logger
	decisions repos.DecisionRepo
	rolls     repos.RollRepo
	history   repos.WeightHistoryRepo
}

var _ engine.Store = (*DecisionStore)(nil)

func NewDecisionStore(db *gorm.DB, log *logger.Logger, decisions repos.DecisionRepo, rolls repos.RollRepo, history repos.WeightHistoryRepo) *DecisionStore {
	return &DecisionStore{
		db:        db,
		log:       log.With("service", "DecisionStore"),
		decisions: decisions,
		rolls:     rolls,
		history:   history,
	}
}

func (s *DecisionStore) dbc(ctx context.Context) dbctx.Context {
	return dbctx.Context{Ctx: ctx, Tx: s.tx}
}

func (s *DecisionStore) bound(tx *gorm.DB) *DecisionStore {
	cp := *s
	cp.tx = tx
	return &cp
}

// inTx runs fn in the bound transaction, or opens one.
func (s *DecisionStore) inTx(ctx context.Context, fn func(*DecisionStore) error) error {
	if s.tx != nil {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.bound(tx))
	})
}

func (s *DecisionStore) Atomically(ctx context.Context, fn func(engine.Store) error) error {
	return s.inTx(ctx, func(st *DecisionStore) error { return fn(st) })
}

func (s *DecisionStore) GetDecision(ctx context.Context, decisionID uuid.UUID) (*types.Decision, error) {
	d, err := s.decisions.GetByID(s.dbc(ctx), decisionID)
	if err != nil {
		return nil, fmt.Errorf("load decision: %w", err)
	}
	if d == nil {
		return nil, engine.NotFoundf("decision %s not found", decisionID)
	}
	return d, nil
}

func (s *DecisionStore) GetPendingRoll(ctx context.Context, decisionID uuid.UUID) (*types.Roll, error) {
	r, err := s.rolls.GetPending(s.dbc(ctx), decisionID)
	if err != nil {
		return nil, fmt.Errorf("load pending roll: %w", err)
	}
	return r, nil
}

func (s *DecisionStore) CreateRoll(ctx context.Context, roll *types.Roll, guard engine.RollGuard) (*types.Roll, error) {
	var created *types.Roll
	err := s.inTx(ctx, func(st *DecisionStore) error {
		dbc := st.dbc(ctx)
		found, err := st.decisions.LockByID(dbc, roll.DecisionID)
		if err != nil {
			return fmt.Errorf("lock decision: %w", err)
		}
		if !found {
			return engine.NotFoundf("decision %s not found", roll.DecisionID)
		}
		pending, err := st.rolls.GetPending(dbc, roll.DecisionID)
		if err != nil {
			return fmt.Errorf("load pending roll: %w", err)
		}
		if pending != nil {
			return engine.Conflictf("decision already has a pending roll")
		}
		if guard != nil {
			last, err := st.rolls.GetLastConfirmed(dbc, roll.DecisionID)
			if err != nil {
				return fmt.Errorf("load last confirmed roll: %w", err)
			}
			if err := guard(last); err != nil {
				return err
			}
		}
		created, err = st.rolls.Create(dbc, roll)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return engine.Conflictf("decision already has a pending roll")
		}
		if err != nil {
			return fmt.Errorf("insert roll: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *DecisionStore) ConfirmRoll(ctx context.Context, decisionID, rollID uuid.UUID, followed bool, at time.Time) (*types.Roll, error) {
	var out *types.Roll
	err := s.inTx(ctx, func(st *DecisionStore) error {
		dbc := st.dbc(ctx)
		ok, err := st.rolls.ConfirmPending(dbc, decisionID, rollID, followed, at)
		if err != nil {
			return fmt.Errorf("confirm roll: %w", err)
		}
		if !ok {
			return engine.NotFoundf("no pending roll %s for decision %s", rollID, decisionID)
		}
		out, err = st.rolls.GetByID(dbc, decisionID, rollID)
		if err != nil {
			return fmt.Errorf("reload roll: %w", err)
		}
		if out == nil {
			return engine.NotFoundf("roll %s not found", rollID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *DecisionStore) CommitWeights(ctx context.Context, decisionID uuid.UUID, snap types.Snapshot, rollID *uuid.UUID, at time.Time) error {
	return s.inTx(ctx, func(st *DecisionStore) error {
		dbc := st.dbc(ctx)
		d, err := st.decisions.GetByID(dbc, decisionID)
		if err != nil {
			return fmt.Errorf("load decision: %w", err)
		}
		if d == nil {
			return engine.NotFoundf("decision %s not found", decisionID)
		}
		rows, err := ApplySnapshot(dbc, st.decisions, d, snap, at)
		if err != nil {
			return err
		}
		for _, row := range rows {
			row.RollID = rollID
		}
		if _, err := st.history.Create(dbc, rows); err != nil {
			return fmt.Errorf("append weight history: %w", err)
		}
		if len(rows) > 0 {
			if err := st.decisions.UpdateFields(dbc, decisionID, map[string]interface{}{"updated_at": at}); err != nil {
				return fmt.Errorf("touch decision: %w", err)
			}
		}
		return nil
	})
}

func (s *DecisionStore) ListRolls(ctx context.Context, decisionID uuid.UUID) ([]*types.Roll, error) {
	out, err := s.rolls.ListByDecision(s.dbc(ctx), decisionID)
	if err != nil {
		return nil, fmt.Errorf("list rolls: %w", err)
	}
	return out, nil
}

// ApplySnapshot writes every value in snap that differs from d's committed
// odds and returns one history row per changed value.
func ApplySnapshot(dbc dbctx.Context, decisions repos.DecisionRepo, d *types.Decision, snap types.Snapshot, at time.Time) ([]*types.WeightHistory, error) {
	var rows []*types.WeightHistory
	switch d.Kind {
	case types.KindBinary:
		if snap.Probability == nil || d.Binary == nil {
			return nil, engine.Validationf("binary decision needs a probability")
		}
		if snap.Probability.Equal(d.Binary.Probability) {
			return nil, nil
		}
		if err := decisions.UpdateBinary(dbc, d.ID, map[string]interface{}{"probability": *snap.Probability}); err != nil {
			return nil, fmt.Errorf("update probability: %w", err)
		}
		rows = append(rows, &types.WeightHistory{DecisionID: d.ID, Value: *snap.Probability, ChangedAt: at})
	default:
		current := make(map[uuid.UUID]*types.WeightedChoice, len(d.Choices))
		for _, c := range d.Choices {
			current[c.ID] = c
		}
		for _, w := range snap.Weights {
			c, ok := current[w.ChoiceID]
			if !ok {
				return nil, engine.NotFoundf("choice %s not found", w.ChoiceID)
			}
			if c.Weight.Equal(w.Weight) {
				continue
			}
			if err := decisions.UpdateChoice(dbc, d.ID, c.ID, map[string]interface{}{"weight": w.Weight}); err != nil {
				return nil, fmt.Errorf("update choice weight: %w", err)
			}
			choiceID := c.ID
			rows = append(rows, &types.WeightHistory{DecisionID: d.ID, ChoiceID: &choiceID, Value: w.Weight, ChangedAt: at})
		}
	}
	return rows, nil
}
