package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/aleator-backend/internal/data/repos"
	"github.com/yungbote/aleator-backend/internal/data/store"
	types "github.com/yungbote/aleator-backend/internal/domain"
	"github.com/yungbote/aleator-backend/internal/engine"
	"github.com/yungbote/aleator-backend/internal/pkg/ctxutil"
	"github.com/yungbote/aleator-backend/internal/pkg/dbctx"
	apperrors "github.com/yungbote/aleator-backend/internal/pkg/errors"
	"github.com/yungbote/aleator-backend/internal/pkg/logger"
)

const (
	maxTitleLength = 200
	maxLabelLength = 100
)

type ChoiceInput struct {
	Name   string          `json:"name"`
	Weight decimal.Decimal `json:"weight"`
}

type CreateDecisionInput struct {
	Title           string            `json:"title"`
	Kind            types.Kind        `json:"kind"`
	CooldownSeconds int64             `json:"cooldown_seconds"`
	Granularity     types.Granularity `json:"granularity"`
	Probability     *decimal.Decimal  `json:"probability,omitempty"`
	YesLabel        string            `json:"yes_label,omitempty"`
	NoLabel         string            `json:"no_label,omitempty"`
	Choices         []ChoiceInput     `json:"choices,omitempty"`
}

type ChoiceUpdate struct {
	ID     uuid.UUID        `json:"id"`
	Name   *string          `json:"name,omitempty"`
	Weight *decimal.Decimal `json:"weight,omitempty"`
}

// UpdateDecisionInput is a partial update; nil fields are left alone. Weight
// edits must cover every choice so the set can be checked as a whole.
type UpdateDecisionInput struct {
	Title           *string            `json:"title,omitempty"`
	CooldownSeconds *int64             `json:"cooldown_seconds,omitempty"`
	Granularity     *types.Granularity `json:"granularity,omitempty"`
	Probability     *decimal.Decimal   `json:"probability,omitempty"`
	YesLabel        *string            `json:"yes_label,omitempty"`
	NoLabel         *string            `json:"no_label,omitempty"`
	Choices         []ChoiceUpdate     `json:"choices,omitempty"`
}

type DecisionService interface {
	Create(ctx context.Context, in CreateDecisionInput) (*types.Decision, error)
	List(ctx context.Context) ([]*types.Decision, error)
	Get(ctx context.Context, decisionID uuid.UUID) (*types.Decision, error)
	Update(ctx context.Context, decisionID uuid.UUID, in UpdateDecisionInput) (*types.Decision, error)
	Delete(ctx context.Context, decisionID uuid.UUID) error
	Reorder(ctx context.Context, orderedIDs []uuid.UUID) ([]*types.Decision, error)
	History(ctx context.Context, decisionID uuid.UUID, limit int) ([]*types.WeightHistory, error)
}

type decisionService struct {
	db        *gorm.DB
	log       *logger.Logger
	decisions repos.DecisionRepo
	history   repos.WeightHistoryRepo
	limits    Limits
	now       func() time.Time
}

func NewDecisionService(db *gorm.DB, log *logger.Logger, decisions repos.DecisionRepo, history repos.WeightHistoryRepo, limits Limits) DecisionService {
	return &decisionService{
		db:        db,
		log:       log.With("service", "DecisionService"),
		decisions: decisions,
		history:   history,
		limits:    limits.withDefaults(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func requestUser(ctx context.Context) (uuid.UUID, error) {
	id := ctxutil.UserID(ctx)
	if id == uuid.Nil {
		return uuid.Nil, apperrors.ErrUnauthorized
	}
	return id, nil
}

// ownedDecision loads a decision and hides it unless owner holds it.
func ownedDecision(dbc dbctx.Context, decisions repos.DecisionRepo, owner, decisionID uuid.UUID) (*types.Decision, error) {
	d, err := decisions.GetByID(dbc, decisionID)
	if err != nil {
		return nil, fmt.Errorf("load decision: %w", err)
	}
	if d == nil || d.OwnerUserID != owner {
		return nil, engine.NotFoundf("decision %s not found", decisionID)
	}
	return d, nil
}

func (s *decisionService) Create(ctx context.Context, in CreateDecisionInput) (*types.Decision, error) {
	owner, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	d, err := buildDecision(owner, in)
	if err != nil {
		return nil, err
	}

	var created *types.Decision
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		count, err := s.decisions.CountByOwner(dbc, owner)
		if err != nil {
			return fmt.Errorf("count decisions: %w", err)
		}
		if count >= s.limits.MaxDecisionsPerUser {
			return &engine.Error{
				Kind:    engine.KindValidation,
				Message: fmt.Sprintf("you can have at most %d decisions", s.limits.MaxDecisionsPerUser),
				Err:     apperrors.ErrLimitReached,
			}
		}
		maxOrder, err := s.decisions.MaxDisplayOrder(dbc, owner)
		if err != nil {
			return fmt.Errorf("load display order: %w", err)
		}
		d.DisplayOrder = maxOrder + 1

		created, err = s.decisions.Create(dbc, d)
		if err != nil {
			return fmt.Errorf("create decision: %w", err)
		}
		if _, err := s.history.Create(dbc, initialHistory(created, s.now())); err != nil {
			return fmt.Errorf("append weight history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Decision created", "decision_id", created.ID, "kind", created.Kind, "user_id", owner)
	return created, nil
}

func buildDecision(owner uuid.UUID, in CreateDecisionInput) (*types.Decision, error) {
	title, err := cleanText(in.Title, "title", maxTitleLength, true)
	if err != nil {
		return nil, err
	}
	if in.CooldownSeconds < 0 {
		return nil, engine.Validationf("cooldown_seconds must not be negative")
	}
	if !in.Granularity.Valid() {
		return nil, engine.Validationf("granularity must be 0, 1 or 2")
	}

	d := &types.Decision{
		ID:              uuid.New(),
		OwnerUserID:     owner,
		Title:           title,
		Kind:            in.Kind,
		CooldownSeconds: in.CooldownSeconds,
		Granularity:     in.Granularity,
	}
	switch in.Kind {
	case types.KindBinary:
		if in.Probability == nil {
			return nil, engine.Validationf("probability is required for a binary decision")
		}
		p := *in.Probability
		if err := engine.ValidateProbability(p, in.Granularity); err != nil {
			return nil, err
		}
		yes, err := labelOrDefault(in.YesLabel, "Yes")
		if err != nil {
			return nil, err
		}
		no, err := labelOrDefault(in.NoLabel, "No")
		if err != nil {
			return nil, err
		}
		d.Binary = &types.BinaryParameters{DecisionID: d.ID, Probability: p, YesLabel: yes, NoLabel: no}
	case types.KindWeightedChoice:
		weights := make([]decimal.Decimal, 0, len(in.Choices))
		seen := make(map[string]struct{}, len(in.Choices))
		for i, c := range in.Choices {
			name, err := cleanText(c.Name, "choice name", maxLabelLength, true)
			if err != nil {
				return nil, err
			}
			key := strings.ToLower(name)
			if _, dup := seen[key]; dup {
				return nil, engine.Validationf("choice %q appears twice", name)
			}
			seen[key] = struct{}{}
			w := c.Weight.Round(types.WeightScale)
			if !w.IsPositive() {
				return nil, engine.Validationf("choice %q needs a positive weight", name)
			}
			weights = append(weights, w)
			d.Choices = append(d.Choices, &types.WeightedChoice{
				ID:           uuid.New(),
				DecisionID:   d.ID,
				Name:         name,
				Weight:       w,
				DisplayOrder: i,
			})
		}
		if err := engine.ValidateWeights(weights, in.Granularity); err != nil {
			return nil, err
		}
	default:
		return nil, engine.Validationf("kind must be %q or %q", types.KindBinary, types.KindWeightedChoice)
	}
	return d, nil
}

func initialHistory(d *types.Decision, at time.Time) []*types.WeightHistory {
	var rows []*types.WeightHistory
	if d.Binary != nil {
		rows = append(rows, &types.WeightHistory{DecisionID: d.ID, Value: d.Binary.Probability, ChangedAt: at})
	}
	for _, c := range d.Choices {
		choiceID := c.ID
		rows = append(rows, &types.WeightHistory{DecisionID: d.ID, ChoiceID: &choiceID, Value: c.Weight, ChangedAt: at})
	}
	return rows
}

func (s *decisionService) List(ctx context.Context) ([]*types.Decision, error) {
	owner, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.decisions.ListByOwner(dbctx.Context{Ctx: ctx}, owner)
}

func (s *decisionService) Get(ctx context.Context, decisionID uuid.UUID) (*types.Decision, error) {
	owner, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	return ownedDecision(dbctx.Context{Ctx: ctx}, s.decisions, owner, decisionID)
}

func (s *decisionService) Update(ctx context.Context, decisionID uuid.UUID, in UpdateDecisionInput) (*types.Decision, error) {
	owner, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()

	var updated *types.Decision
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.decisions.LockByID(dbc, decisionID); err != nil {
			return fmt.Errorf("lock decision: %w", err)
		}
		d, err := ownedDecision(dbc, s.decisions, owner, decisionID)
		if err != nil {
			return err
		}

		fields := map[string]interface{}{}
		if in.Title != nil {
			title, err := cleanText(*in.Title, "title", maxTitleLength, true)
			if err != nil {
				return err
			}
			fields["title"] = title
		}
		if in.CooldownSeconds != nil {
			if *in.CooldownSeconds < 0 {
				return engine.Validationf("cooldown_seconds must not be negative")
			}
			fields["cooldown_seconds"] = *in.CooldownSeconds
		}
		granularity := d.Granularity
		if in.Granularity != nil {
			if !in.Granularity.Valid() {
				return engine.Validationf("granularity must be 0, 1 or 2")
			}
			granularity = *in.Granularity
			fields["granularity"] = granularity
		}

		snap, err := s.editedSnapshot(d, in, granularity)
		if err != nil {
			return err
		}
		if d.Kind == types.KindBinary {
			labels := map[string]interface{}{}
			if in.YesLabel != nil {
				yes, err := cleanText(*in.YesLabel, "yes_label", maxLabelLength, true)
				if err != nil {
					return err
				}
				labels["yes_label"] = yes
			}
			if in.NoLabel != nil {
				no, err := cleanText(*in.NoLabel, "no_label", maxLabelLength, true)
				if err != nil {
					return err
				}
				labels["no_label"] = no
			}
			if err := s.decisions.UpdateBinary(dbc, d.ID, labels); err != nil {
				return fmt.Errorf("update labels: %w", err)
			}
		} else {
			renames, err := choiceRenames(d, in.Choices)
			if err != nil {
				return err
			}
			for _, c := range d.Choices {
				name, ok := renames[c.ID]
				if !ok {
					continue
				}
				if err := s.decisions.UpdateChoice(dbc, d.ID, c.ID, map[string]interface{}{"name": name}); err != nil {
					return fmt.Errorf("rename choice: %w", err)
				}
			}
		}

		if snap != nil {
			rows, err := store.ApplySnapshot(dbc, s.decisions, d, *snap, now)
			if err != nil {
				return err
			}
			if _, err := s.history.Create(dbc, rows); err != nil {
				return fmt.Errorf("append weight history: %w", err)
			}
		}
		fields["updated_at"] = now
		if err := s.decisions.UpdateFields(dbc, d.ID, fields); err != nil {
			return fmt.Errorf("update decision: %w", err)
		}
		updated, err = s.decisions.GetByID(dbc, d.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// choiceRenames cleans the requested names and checks that the resulting
// choice set keeps unique names, ignoring case. Outcomes are recorded by name.
func choiceRenames(d *types.Decision, updates []ChoiceUpdate) (map[uuid.UUID]string, error) {
	renames := make(map[uuid.UUID]string)
	for _, cu := range updates {
		if cu.Name == nil {
			continue
		}
		name, err := cleanText(*cu.Name, "choice name", maxLabelLength, true)
		if err != nil {
			return nil, err
		}
		renames[cu.ID] = name
	}
	if len(renames) == 0 {
		return renames, nil
	}
	seen := make(map[string]struct{}, len(d.Choices))
	for _, c := range d.Choices {
		name := c.Name
		if renamed, ok := renames[c.ID]; ok {
			name = renamed
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return nil, engine.Validationf("choice %q appears twice", name)
		}
		seen[key] = struct{}{}
	}
	return renames, nil
}

// editedSnapshot turns a direct probability or weight edit into a validated
// snapshot, or nil when the odds are not being edited.
func (s *decisionService) editedSnapshot(d *types.Decision, in UpdateDecisionInput, g types.Granularity) (*types.Snapshot, error) {
	switch d.Kind {
	case types.KindBinary:
		if len(in.Choices) > 0 {
			return nil, engine.Validationf("a binary decision has no choices")
		}
		if in.Probability == nil {
			// A coarser granularity must still fit the committed probability.
			if g != d.Granularity && d.Binary != nil {
				if err := engine.ValidateProbability(d.Binary.Probability, g); err != nil {
					return nil, err
				}
			}
			return nil, nil
		}
		p := *in.Probability
		if err := engine.ValidateProbability(p, g); err != nil {
			return nil, err
		}
		return &types.Snapshot{Probability: &p}, nil
	default:
		if in.Probability != nil || in.YesLabel != nil || in.NoLabel != nil {
			return nil, engine.Validationf("a weighted-choice decision has no probability or labels")
		}
		known := make(map[uuid.UUID]bool, len(d.Choices))
		for _, c := range d.Choices {
			known[c.ID] = true
		}
		var draft types.Snapshot
		for _, cu := range in.Choices {
			if !known[cu.ID] {
				return nil, engine.NotFoundf("choice %s not found", cu.ID)
			}
			if cu.Weight != nil {
				draft.Weights = append(draft.Weights, types.ChoiceWeight{ChoiceID: cu.ID, Weight: *cu.Weight})
			}
		}
		if len(draft.Weights) == 0 {
			return nil, nil
		}
		scoped := *d
		scoped.Granularity = g
		resolved, err := engine.ResolveDraft(&scoped, &draft)
		if err != nil {
			return nil, err
		}
		return &resolved, nil
	}
}

func (s *decisionService) Delete(ctx context.Context, decisionID uuid.UUID) error {
	owner, err := requestUser(ctx)
	if err != nil {
		return err
	}
	ok, err := s.decisions.Delete(dbctx.Context{Ctx: ctx}, owner, decisionID)
	if err != nil {
		return fmt.Errorf("delete decision: %w", err)
	}
	if !ok {
		return engine.NotFoundf("decision %s not found", decisionID)
	}
	s.log.Info("Decision deleted", "decision_id", decisionID, "user_id", owner)
	return nil
}

func (s *decisionService) Reorder(ctx context.Context, orderedIDs []uuid.UUID) ([]*types.Decision, error) {
	owner, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	var out []*types.Decision
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		current, err := s.decisions.ListByOwner(dbc, owner)
		if err != nil {
			return fmt.Errorf("list decisions: %w", err)
		}
		if len(orderedIDs) != len(current) {
			return engine.Validationf("order must list each of your %d decisions exactly once", len(current))
		}
		owned := make(map[uuid.UUID]bool, len(current))
		for _, d := range current {
			owned[d.ID] = true
		}
		seen := make(map[uuid.UUID]bool, len(orderedIDs))
		for _, id := range orderedIDs {
			if !owned[id] || seen[id] {
				return engine.Validationf("order must list each of your %d decisions exactly once", len(current))
			}
			seen[id] = true
		}
		if err := s.decisions.SetDisplayOrder(dbc, owner, orderedIDs); err != nil {
			return fmt.Errorf("reorder decisions: %w", err)
		}
		out, err = s.decisions.ListByOwner(dbc, owner)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *decisionService) History(ctx context.Context, decisionID uuid.UUID, limit int) ([]*types.WeightHistory, error) {
	owner, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := ownedDecision(dbc, s.decisions, owner, decisionID); err != nil {
		return nil, err
	}
	return s.history.ListByDecision(dbc, decisionID, limit)
}

func cleanText(raw, field string, max int, required bool) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" && required {
		return "", engine.Validationf("%s is required", field)
	}
	if len([]rune(v)) > max {
		return "", engine.Validationf("%s must be at most %d characters", field, max)
	}
	return v, nil
}

func labelOrDefault(raw, def string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	return cleanText(raw, "label", maxLabelLength, true)
}
