package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	types "github.com/yungbote/aleator-backend/internal/domain"
	"github.com/yungbote/aleator-backend/internal/pkg/logger"
)

// RollGuard runs inside CreateRoll's atomic step with the decision's most
// recently confirmed roll (nil if none). A non-nil error aborts the insert.
type RollGuard func(lastConfirmed *types.Roll) error

// Store is everything the engine needs from persistence.
type Store interface {
	// GetDecision returns the decision with its parameters or choices in
	// display order, or a not_found error.
	GetDecision(ctx context.Context, decisionID uuid.UUID) (*types.Decision, error)
	// GetPendingRoll returns nil, nil when nothing is pending.
	GetPendingRoll(ctx context.Context, decisionID uuid.UUID) (*types.Roll, error)
	// CreateRoll inserts roll as pending. The pending check, guard and insert
	// are one step serialized per decision; an existing pending roll yields a
	// conflict error.
	CreateRoll(ctx context.Context, roll *types.Roll, guard RollGuard) (*types.Roll, error)
	// ConfirmRoll sets the follow-through flag of a pending roll. A missing or
	// already confirmed roll yields a not_found error.
	ConfirmRoll(ctx context.Context, decisionID, rollID uuid.UUID, followed bool, at time.Time) (*types.Roll, error)
	// CommitWeights replaces the decision's committed odds.
	CommitWeights(ctx context.Context, decisionID uuid.UUID, s types.Snapshot, rollID *uuid.UUID, at time.Time) error
	// ListRolls returns the decision's rolls oldest first.
	ListRolls(ctx context.Context, decisionID uuid.UUID) ([]*types.Roll, error)
	// Atomically runs fn against a store bound to a single transaction.
	Atomically(ctx context.Context, fn func(Store) error) error
}

type Engine struct {
	store  Store
	source Source
	now    func() time.Time
	log    *logger.Logger
}

type Option func(*Engine)

func WithSource(src Source) Option {
	return func(e *Engine) {
		if src != nil {
			e.source = src
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log.With("component", "DecisionEngine")
		}
	}
}

func New(store Store, opts ...Option) *Engine {
	e := &Engine{store: store, source: DefaultSource(), now: utcNow}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Status is the derived lifecycle state of a decision at a point in time.
type Status struct {
	Pending     *types.Roll `json:"pending_roll"`
	CoolingDown bool        `json:"cooling_down"`
	ResumeAt    *time.Time  `json:"resume_at,omitempty"`
}

// CooldownEnd returns when the cooldown started by lastConfirmed ends, and
// whether now is still before it.
func CooldownEnd(d *types.Decision, lastConfirmed *types.Roll, now time.Time) (time.Time, bool) {
	cd := d.Cooldown()
	if cd <= 0 || lastConfirmed == nil || !lastConfirmed.Confirmed() {
		return time.Time{}, false
	}
	start := lastConfirmed.CreatedAt
	if lastConfirmed.ConfirmedAt != nil {
		start = *lastConfirmed.ConfirmedAt
	}
	end := start.Add(cd)
	return end, now.Before(end)
}

func (e *Engine) AdjustDraft(ctx context.Context, decisionID uuid.UUID, draft *types.Snapshot, adj Adjustment) (types.Snapshot, bool, error) {
	d, err := e.store.GetDecision(ctx, decisionID)
	if err != nil {
		return types.Snapshot{}, false, err
	}
	return AdjustDraft(d, draft, adj)
}

// Roll draws an outcome from draft, or from the committed odds when draft is
// nil, and stores it as the decision's pending roll.
func (e *Engine) Roll(ctx context.Context, decisionID uuid.UUID, draft *types.Snapshot) (*types.Roll, error) {
	d, err := e.store.GetDecision(ctx, decisionID)
	if err != nil {
		return nil, err
	}
	snap, err := ResolveDraft(d, draft)
	if err != nil {
		return nil, err
	}
	if err := validateSnapshot(d, snap); err != nil {
		return nil, err
	}
	outcome, err := SampleSnapshot(e.source, d.Kind, snap)
	if err != nil {
		return nil, err
	}

	now := e.now()
	roll := &types.Roll{
		DecisionID: d.ID,
		Outcome:    outcome,
		Snapshot:   datatypes.NewJSONType(snap),
		UsedDraft:  draft != nil && !snap.Equal(d.Baseline()),
		CreatedAt:  now,
	}
	created, err := e.store.CreateRoll(ctx, roll, func(last *types.Roll) error {
		if end, cooling := CooldownEnd(d, last, now); cooling {
			return &CooldownError{DecisionID: d.ID.String(), ResumeAt: end}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if e.log != nil {
		e.log.Debug("Roll created", "decision_id", d.ID, "roll_id", created.ID, "outcome", created.Outcome, "used_draft", created.UsedDraft)
	}
	return created, nil
}

// Confirm records follow-through on a pending roll. A followed roll commits
// the odds captured at roll time as the new baseline; an unfollowed roll
// leaves the baseline untouched.
func (e *Engine) Confirm(ctx context.Context, decisionID, rollID uuid.UUID, followed bool) (*types.Roll, error) {
	now := e.now()
	var confirmed *types.Roll
	err := e.store.Atomically(ctx, func(s Store) error {
		d, err := s.GetDecision(ctx, decisionID)
		if err != nil {
			return err
		}
		r, err := s.ConfirmRoll(ctx, decisionID, rollID, followed, now)
		if err != nil {
			return err
		}
		confirmed = r
		if !followed {
			return nil
		}
		snap := r.Snapshot.Data()
		if snap.Equal(d.Baseline()) {
			return nil
		}
		return s.CommitWeights(ctx, decisionID, snap, &r.ID, now)
	})
	if err != nil {
		return nil, err
	}
	if e.log != nil {
		e.log.Debug("Roll confirmed", "decision_id", decisionID, "roll_id", rollID, "followed", followed)
	}
	return confirmed, nil
}

func (e *Engine) Status(ctx context.Context, decisionID uuid.UUID) (Status, error) {
	d, err := e.store.GetDecision(ctx, decisionID)
	if err != nil {
		return Status{}, err
	}
	rolls, err := e.store.ListRolls(ctx, decisionID)
	if err != nil {
		return Status{}, err
	}
	var st Status
	var last *types.Roll
	for _, r := range rolls {
		if !r.Confirmed() {
			st.Pending = r
			continue
		}
		if last == nil || confirmedAt(r).After(confirmedAt(last)) {
			last = r
		}
	}
	if end, cooling := CooldownEnd(d, last, e.now()); cooling {
		st.CoolingDown = true
		st.ResumeAt = &end
	}
	return st, nil
}

func (e *Engine) PendingRoll(ctx context.Context, decisionID uuid.UUID) (*types.Roll, error) {
	if _, err := e.store.GetDecision(ctx, decisionID); err != nil {
		return nil, err
	}
	return e.store.GetPendingRoll(ctx, decisionID)
}

func (e *Engine) Analytics(ctx context.Context, decisionID uuid.UUID, opts AnalyticsOptions) (Analytics, error) {
	if _, err := e.store.GetDecision(ctx, decisionID); err != nil {
		return Analytics{}, err
	}
	rolls, err := e.store.ListRolls(ctx, decisionID)
	if err != nil {
		return Analytics{}, err
	}
	if opts.Now.IsZero() {
		opts.Now = e.now()
	}
	return Analyze(rolls, opts), nil
}

func utcNow() time.Time { return time.Now().UTC() }

func validateSnapshot(d *types.Decision, s types.Snapshot) error {
	switch d.Kind {
	case types.KindBinary:
		if s.Probability == nil {
			return Validationf("binary decision has no probability")
		}
		return ValidateProbability(*s.Probability, d.Granularity)
	case types.KindWeightedChoice:
		weights := make([]decimal.Decimal, 0, len(s.Weights))
		for _, w := range s.Weights {
			weights = append(weights, w.Weight)
		}
		return ValidateWeights(weights, d.Granularity)
	default:
		return Validationf("unknown decision kind %q", d.Kind)
	}
}

func confirmedAt(r *types.Roll) time.Time {
	if r.ConfirmedAt != nil {
		return *r.ConfirmedAt
	}
	return r.CreatedAt
}
